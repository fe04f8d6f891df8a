package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Collection is the full ordered set of cardinal records for one run.
// Array order is preserved across load/save cycles.
type Collection []*Cardinal

// LoadCollection reads a collection from a JSON file. A file containing a
// single object is treated as a one-element collection.
func LoadCollection(path string) (Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection file: %w", err)
	}

	var collection Collection
	if err := json.Unmarshal(data, &collection); err != nil {
		// Some early exports hold a single record instead of an array
		var single Cardinal
		if singleErr := json.Unmarshal(data, &single); singleErr == nil {
			return Collection{&single}, nil
		}
		return nil, fmt.Errorf("failed to decode collection: %w", err)
	}

	return collection, nil
}

// Save writes the collection to path atomically: the data is written to a
// temporary file, synced, and renamed over the target. Called after every
// enriched entity so a crash loses at most the in-flight record.
func (c Collection) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(c); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to encode collection: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync collection file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close collection file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace collection file: %w", err)
	}

	return nil
}

// FilterUnknown removes attributes whose label is the Unknown sentinel from
// every record and returns the number of attributes dropped.
func (c Collection) FilterUnknown() int {
	dropped := 0
	for _, cardinal := range c {
		kept := cardinal.Attributes[:0]
		for _, attr := range cardinal.Attributes {
			if attr.Label == UnknownLabel {
				dropped++
				continue
			}
			kept = append(kept, attr)
		}
		cardinal.Attributes = kept
	}
	return dropped
}

// FindByName returns the first record with the given name, or nil
func (c Collection) FindByName(name string) *Cardinal {
	for _, cardinal := range c {
		if cardinal.Name == name {
			return cardinal
		}
	}
	return nil
}
