package models

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCollectionSaveLoad(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "cardinals.json")

	collection := Collection{
		{Name: "First Cardinal", ProfileURL: "/cardinals/first/", Nation: "Italy"},
		{
			Name:       "Second Cardinal",
			ProfileURL: "/cardinals/second/",
			Attributes: []Attribute{
				{IssueTitle: "Liturgy", Subtitle: "Latin Mass", Value: "2", Label: "Restrictive"},
			},
		},
	}

	if err := collection.Save(path); err != nil {
		t.Fatalf("Failed to save collection: %v", err)
	}

	// The temp file must not survive the rename
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("Expected temporary file to be removed after save")
	}

	loaded, err := LoadCollection(path)
	if err != nil {
		t.Fatalf("Failed to load collection: %v", err)
	}

	if len(loaded) != 2 {
		t.Fatalf("Expected 2 cardinals, got %d", len(loaded))
	}
	// Order must survive the round trip
	if loaded[0].Name != "First Cardinal" || loaded[1].Name != "Second Cardinal" {
		t.Errorf("Expected order to be preserved, got %q then %q", loaded[0].Name, loaded[1].Name)
	}
	if len(loaded[1].Attributes) != 1 {
		t.Errorf("Expected 1 attribute on second cardinal, got %d", len(loaded[1].Attributes))
	}
}

func TestLoadCollectionSingleObject(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "single.json")

	data := `{"name": "Lone Cardinal", "profile_url": "/cardinals/lone/"}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	loaded, err := LoadCollection(path)
	if err != nil {
		t.Fatalf("Failed to load single-object collection: %v", err)
	}

	if len(loaded) != 1 {
		t.Fatalf("Expected 1 cardinal, got %d", len(loaded))
	}
	if loaded[0].Name != "Lone Cardinal" {
		t.Errorf("Expected name Lone Cardinal, got %s", loaded[0].Name)
	}
}

func TestLoadCollectionMissingFile(t *testing.T) {
	_, err := LoadCollection(filepath.Join(t.TempDir(), "absent.json"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestLoadCollectionInvalidJSON(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "bad.json")
	if err := os.WriteFile(path, []byte("not json at all"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadCollection(path); err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
}

func TestFilterUnknown(t *testing.T) {
	collection := Collection{
		{
			Name: "Test Cardinal",
			Attributes: []Attribute{
				{IssueTitle: "Liturgy", Subtitle: "Latin Mass", Value: "2", Label: "Restrictive"},
				{IssueTitle: "Mystery", Subtitle: "No title found", Value: "Unknown", Label: "Unknown"},
				{IssueTitle: "Synodality", Subtitle: "Synodal Church", Value: "4", Label: "Supportive"},
			},
		},
		{
			Name: "Sparse Cardinal",
			Attributes: []Attribute{
				{IssueTitle: "Unknown Issue", Subtitle: "No title found", Value: "Unknown", Label: "Unknown"},
			},
		},
	}

	dropped := collection.FilterUnknown()
	if dropped != 2 {
		t.Errorf("Expected 2 dropped attributes, got %d", dropped)
	}

	if len(collection[0].Attributes) != 2 {
		t.Errorf("Expected 2 attributes remaining on first cardinal, got %d", len(collection[0].Attributes))
	}
	if len(collection[1].Attributes) != 0 {
		t.Errorf("Expected 0 attributes remaining on second cardinal, got %d", len(collection[1].Attributes))
	}
	// Cardinals themselves are never removed
	if len(collection) != 2 {
		t.Errorf("Expected collection size unchanged, got %d", len(collection))
	}
}

func TestFindByName(t *testing.T) {
	collection := Collection{
		{Name: "First Cardinal"},
		{Name: "Second Cardinal"},
	}

	if found := collection.FindByName("Second Cardinal"); found == nil || found.Name != "Second Cardinal" {
		t.Error("Expected to find Second Cardinal")
	}
	if found := collection.FindByName("Missing Cardinal"); found != nil {
		t.Error("Expected nil for missing cardinal")
	}
}
