// Package checkpoint persists per-stage progress so an interrupted run can
// be resumed without re-fetching entities that already completed.
package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"cardscraper/pkg/logger"
)

// Checkpoint records which entities a stage has already processed.
// Failed entities are counted but never added to the processed set, so a
// resumed run retries them.
type Checkpoint struct {
	Stage          string               `json:"stage"`
	Processed      map[string]time.Time `json:"processed"` // entity name -> completion time
	TotalProcessed int                  `json:"total_processed"`
	TotalSkipped   int                  `json:"total_skipped"`
	TotalFailed    int                  `json:"total_failed"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
	Version        int                  `json:"version"`
}

// IsProcessed checks if an entity has already been handled in this stage
func (cp *Checkpoint) IsProcessed(name string) bool {
	_, exists := cp.Processed[name]
	return exists
}

// Manager handles checkpoint operations for one pipeline stage
type Manager struct {
	checkpointPath string
	stage          string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for a stage, storing its state
// under dataDir/checkpoints
func NewManager(dataDir, stage string) (*Manager, error) {
	checkpointsDir := filepath.Join(dataDir, "checkpoints")
	if err := os.MkdirAll(checkpointsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &Manager{
		checkpointPath: filepath.Join(checkpointsDir, fmt.Sprintf("%s.checkpoint.json", stage)),
		stage:          stage,
		logger:         logger.GetLogger(),
	}, nil
}

// Create creates a new checkpoint for the stage
func (m *Manager) Create() (*Checkpoint, error) {
	cp := &Checkpoint{
		Stage:     m.stage,
		Processed: make(map[string]time.Time),
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Version:   1,
	}

	if err := m.Save(cp); err != nil {
		return nil, fmt.Errorf("failed to save initial checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint created", map[string]interface{}{
		"stage": m.stage,
		"path":  m.checkpointPath,
	})

	return cp, nil
}

// Load loads an existing checkpoint; returns nil when none exists
func (m *Manager) Load() (*Checkpoint, error) {
	file, err := os.Open(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}
	defer file.Close()

	var cp Checkpoint
	if err := json.NewDecoder(file).Decode(&cp); err != nil {
		return nil, fmt.Errorf("failed to decode checkpoint: %w", err)
	}
	if cp.Processed == nil {
		cp.Processed = make(map[string]time.Time)
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"stage":           cp.Stage,
		"total_processed": cp.TotalProcessed,
		"updated_at":      cp.UpdatedAt,
	})

	return &cp, nil
}

// Save saves the checkpoint to disk atomically
func (m *Manager) Save(cp *Checkpoint) error {
	cp.UpdatedAt = time.Now()

	tempPath := m.checkpointPath + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(cp); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode checkpoint: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}

// Delete removes the checkpoint file
func (m *Manager) Delete() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.InfoWithFields("Checkpoint deleted", map[string]interface{}{"stage": m.stage})
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// MarkProcessed records an entity as completed and persists the checkpoint
func (m *Manager) MarkProcessed(cp *Checkpoint, name string) error {
	cp.Processed[name] = time.Now()
	cp.TotalProcessed++
	return m.Save(cp)
}

// MarkSkipped records an entity that was examined but had nothing to do
// (e.g. its page lacks the stands section) and persists the checkpoint.
// Like processed entities, skipped ones are not revisited on resume.
func (m *Manager) MarkSkipped(cp *Checkpoint, name string) error {
	cp.Processed[name] = time.Now()
	cp.TotalSkipped++
	return m.Save(cp)
}

// MarkFailed counts a per-entity failure and persists the checkpoint. The
// entity is deliberately left out of the processed set so a resumed run
// retries it.
func (m *Manager) MarkFailed(cp *Checkpoint) error {
	cp.TotalFailed++
	return m.Save(cp)
}
