package checkpoint

import (
	"path/filepath"
	"testing"
)

func TestCheckpointManager(t *testing.T) {
	t.Run("CreateAndLoad", func(t *testing.T) {
		dataDir := t.TempDir()
		mgr, err := NewManager(dataDir, "enrich")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create()
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if cp.Stage != "enrich" {
			t.Errorf("Expected stage enrich, got %s", cp.Stage)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to load checkpoint: %v", err)
		}
		if loaded == nil {
			t.Fatal("Expected checkpoint, got nil")
		}
		if loaded.Stage != "enrich" {
			t.Errorf("Expected loaded stage enrich, got %s", loaded.Stage)
		}
	})

	t.Run("LoadMissingReturnsNil", func(t *testing.T) {
		mgr, err := NewManager(t.TempDir(), "analyze")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded != nil {
			t.Error("Expected nil for missing checkpoint")
		}
	})

	t.Run("MarkProcessed", func(t *testing.T) {
		mgr, err := NewManager(t.TempDir(), "enrich")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create()
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if cp.IsProcessed("First Cardinal") {
			t.Error("Expected fresh checkpoint to have nothing processed")
		}

		if err := mgr.MarkProcessed(cp, "First Cardinal"); err != nil {
			t.Fatalf("Failed to mark processed: %v", err)
		}
		if err := mgr.MarkSkipped(cp, "Second Cardinal"); err != nil {
			t.Fatalf("Failed to mark skipped: %v", err)
		}

		// Persistence survives a reload
		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to reload checkpoint: %v", err)
		}
		if !loaded.IsProcessed("First Cardinal") {
			t.Error("Expected First Cardinal to be marked processed")
		}
		if !loaded.IsProcessed("Second Cardinal") {
			t.Error("Expected skipped entity to also be marked, so resume does not retry it")
		}
		if loaded.TotalProcessed != 1 {
			t.Errorf("Expected 1 processed, got %d", loaded.TotalProcessed)
		}
		if loaded.TotalSkipped != 1 {
			t.Errorf("Expected 1 skipped, got %d", loaded.TotalSkipped)
		}
	})

	t.Run("MarkFailed", func(t *testing.T) {
		mgr, err := NewManager(t.TempDir(), "enrich")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		cp, err := mgr.Create()
		if err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}

		if err := mgr.MarkFailed(cp); err != nil {
			t.Fatalf("Failed to mark failed: %v", err)
		}

		loaded, err := mgr.Load()
		if err != nil {
			t.Fatalf("Failed to reload checkpoint: %v", err)
		}
		if loaded.TotalFailed != 1 {
			t.Errorf("Expected 1 failed, got %d", loaded.TotalFailed)
		}
		if len(loaded.Processed) != 0 {
			t.Error("Expected failed entities to stay out of the processed set, so resume retries them")
		}
	})

	t.Run("ExistsAndDelete", func(t *testing.T) {
		mgr, err := NewManager(t.TempDir(), "enrich")
		if err != nil {
			t.Fatalf("Failed to create manager: %v", err)
		}

		if mgr.Exists() {
			t.Error("Expected no checkpoint before create")
		}

		if _, err := mgr.Create(); err != nil {
			t.Fatalf("Failed to create checkpoint: %v", err)
		}
		if !mgr.Exists() {
			t.Error("Expected checkpoint to exist after create")
		}

		if err := mgr.Delete(); err != nil {
			t.Fatalf("Failed to delete checkpoint: %v", err)
		}
		if mgr.Exists() {
			t.Error("Expected checkpoint to be gone after delete")
		}

		// Deleting again is not an error
		if err := mgr.Delete(); err != nil {
			t.Errorf("Expected idempotent delete, got %v", err)
		}
	})

	t.Run("StagesAreIndependent", func(t *testing.T) {
		dataDir := t.TempDir()

		enrichMgr, err := NewManager(dataDir, "enrich")
		if err != nil {
			t.Fatalf("Failed to create enrich manager: %v", err)
		}
		analyzeMgr, err := NewManager(dataDir, "analyze")
		if err != nil {
			t.Fatalf("Failed to create analyze manager: %v", err)
		}

		if _, err := enrichMgr.Create(); err != nil {
			t.Fatalf("Failed to create enrich checkpoint: %v", err)
		}

		if analyzeMgr.Exists() {
			t.Error("Expected analyze checkpoint to be independent of enrich")
		}
	})
}

func TestCheckpointPath(t *testing.T) {
	dataDir := t.TempDir()
	mgr, err := NewManager(dataDir, "enrich")
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}

	want := filepath.Join(dataDir, "checkpoints", "enrich.checkpoint.json")
	if mgr.checkpointPath != want {
		t.Errorf("Expected checkpoint path %s, got %s", want, mgr.checkpointPath)
	}
}
