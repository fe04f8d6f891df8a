package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"path/filepath"
	"testing"

	"cardscraper/pkg/models"
)

func rating(r int) *models.DimensionRating {
	return &models.DimensionRating{Rating: r, Explanation: "test"}
}

func analyzedCardinal(name string, conservative, reform, lgbtq, env int) *models.Cardinal {
	return &models.Cardinal{
		Name:         name,
		ProfileURL:   "https://example.com/" + name,
		VotingStatus: "Voting",
		Nation:       "Italy",
		Continent:    "Europe",
		Position:     "Archbishop",
		Analysis: &models.Analysis{
			TheologicalStance: &models.TheologicalStance{
				Conservative:  rating(conservative),
				ReformLeaning: rating(reform),
			},
			IssuePositions: &models.IssuePositions{
				LGBTQPolicies:    rating(lgbtq),
				Environmentalism: rating(env),
			},
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	c := &models.Cardinal{
		Name:         "Angelo Rossi",
		ProfileURL:   "https://example.com/rossi",
		ImageURL:     "https://example.com/rossi.jpg",
		VotingStatus: "Voting",
		CreatedBy:    "Francis",
		Age:          "68",
		Nation:       "Italy",
		Continent:    "Europe",
		Position:     "Archbishop of Milan",
		Attributes: []models.Attribute{
			{IssueTitle: "Ordination of women", Subtitle: "Against", Value: "2", Label: "Moderately Conservative/Against"},
		},
	}

	id, err := s.Upsert(ctx, c)
	if err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if id == 0 {
		t.Error("Expected non-zero ID")
	}

	t.Run("RoundTrip", func(t *testing.T) {
		got, err := s.GetByName(ctx, "Angelo Rossi")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got.ProfileURL != c.ProfileURL {
			t.Errorf("Expected profile URL %q, got %q", c.ProfileURL, got.ProfileURL)
		}
		if got.Nation != "Italy" || got.Position != "Archbishop of Milan" {
			t.Errorf("Unexpected fields: nation=%q position=%q", got.Nation, got.Position)
		}
		if len(got.Attributes) != 1 {
			t.Fatalf("Expected 1 attribute, got %d", len(got.Attributes))
		}
		if got.Attributes[0].IssueTitle != "Ordination of women" {
			t.Errorf("Unexpected attribute title %q", got.Attributes[0].IssueTitle)
		}
	})

	t.Run("UpdateKeepsID", func(t *testing.T) {
		c.Position = "Archbishop of Turin"
		id2, err := s.Upsert(ctx, c)
		if err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		if id2 != id {
			t.Errorf("Expected same ID %d after update, got %d", id, id2)
		}

		got, err := s.GetByName(ctx, "Angelo Rossi")
		if err != nil {
			t.Fatalf("Failed to get: %v", err)
		}
		if got.Position != "Archbishop of Turin" {
			t.Errorf("Expected updated position, got %q", got.Position)
		}
	})

	t.Run("NoStanceWithoutAnalysis", func(t *testing.T) {
		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Failed to get stats: %v", err)
		}
		if stats.Cardinals != 1 {
			t.Errorf("Expected 1 cardinal, got %d", stats.Cardinals)
		}
		if stats.Stances != 0 {
			t.Errorf("Expected 0 stances, got %d", stats.Stances)
		}
	})

	t.Run("StanceWrittenAfterAnalysis", func(t *testing.T) {
		c.Analysis = analyzedCardinal("x", 4, 2, 3, 5).Analysis
		if _, err := s.Upsert(ctx, c); err != nil {
			t.Fatalf("Failed to upsert: %v", err)
		}
		stats, err := s.Stats(ctx)
		if err != nil {
			t.Fatalf("Failed to get stats: %v", err)
		}
		if stats.Stances != 1 {
			t.Errorf("Expected 1 stance, got %d", stats.Stances)
		}
	})
}

func TestIndexCollection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	collection := models.Collection{
		analyzedCardinal("Alpha", 1, 1, 1, 1),
		analyzedCardinal("Beta", 5, 5, 5, 5),
		{Name: "Gamma", ProfileURL: "https://example.com/gamma"},
		{Name: ""}, // no name, skipped
	}

	indexed, withStance, err := s.IndexCollection(ctx, collection)
	if err != nil {
		t.Fatalf("Failed to index: %v", err)
	}
	if indexed != 3 {
		t.Errorf("Expected 3 indexed, got %d", indexed)
	}
	if withStance != 2 {
		t.Errorf("Expected 2 with stance, got %d", withStance)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Cardinals != 3 || stats.Stances != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

func TestIndexCollectionReindex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	collection := models.Collection{
		analyzedCardinal("Alpha", 1, 1, 1, 1),
		analyzedCardinal("Beta", 5, 5, 5, 5),
	}
	if _, _, err := s.IndexCollection(ctx, collection); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	// Re-running the stage over the same collection must succeed and
	// leave the same counts behind.
	indexed, withStance, err := s.IndexCollection(ctx, collection)
	if err != nil {
		t.Fatalf("Failed to re-index: %v", err)
	}
	if indexed != 2 || withStance != 2 {
		t.Errorf("Unexpected re-index counts: indexed=%d withStance=%d", indexed, withStance)
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Failed to get stats: %v", err)
	}
	if stats.Cardinals != 2 || stats.Stances != 2 {
		t.Errorf("Expected counts unchanged after re-index, got %+v", stats)
	}

	// Updated ratings must replace the right cardinal's vector: after
	// flipping Alpha to the progressive extreme, a query near (5,5,5,5)
	// finds Alpha closest, not Beta's old neighbor order.
	collection[0] = analyzedCardinal("Alpha", 5, 5, 5, 5)
	collection[1] = analyzedCardinal("Beta", 1, 1, 1, 1)
	if _, _, err := s.IndexCollection(ctx, collection); err != nil {
		t.Fatalf("Failed to re-index with new ratings: %v", err)
	}

	neighbors, err := s.NearestByVector(ctx, []float32{5, 5, 5, 5}, 2)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("Expected 2 neighbors, got %d", len(neighbors))
	}
	if neighbors[0].Name != "Alpha" {
		t.Errorf("Expected Alpha nearest after update, got %q", neighbors[0].Name)
	}
	if neighbors[0].Distance != 0 {
		t.Errorf("Expected exact match distance 0, got %v", neighbors[0].Distance)
	}
}

func TestNearestByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	collection := models.Collection{
		analyzedCardinal("Conservative A", 1, 1, 1, 1),
		analyzedCardinal("Conservative B", 1, 2, 1, 1),
		analyzedCardinal("Progressive A", 5, 5, 5, 5),
		analyzedCardinal("Progressive B", 5, 4, 5, 5),
	}
	if _, _, err := s.IndexCollection(ctx, collection); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	neighbors, err := s.NearestByName(ctx, "Conservative A", 2)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(neighbors) != 2 {
		t.Fatalf("Expected 2 neighbors, got %d", len(neighbors))
	}

	// The query cardinal never appears in its own results.
	for _, n := range neighbors {
		if n.Name == "Conservative A" {
			t.Error("Query cardinal appeared in its own neighbors")
		}
	}

	if neighbors[0].Name != "Conservative B" {
		t.Errorf("Expected Conservative B as nearest, got %q", neighbors[0].Name)
	}
	if neighbors[0].Distance > neighbors[1].Distance {
		t.Error("Expected neighbors ordered by distance")
	}

	t.Run("UnknownName", func(t *testing.T) {
		if _, err := s.NearestByName(ctx, "Nobody", 2); err == nil {
			t.Error("Expected error for unindexed name")
		}
	})
}

func TestNearestByVector(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	collection := models.Collection{
		analyzedCardinal("Low", 1, 1, 1, 1),
		analyzedCardinal("High", 5, 5, 5, 5),
	}
	if _, _, err := s.IndexCollection(ctx, collection); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	neighbors, err := s.NearestByVector(ctx, []float32{1, 1, 1, 2}, 1)
	if err != nil {
		t.Fatalf("Failed to query: %v", err)
	}
	if len(neighbors) != 1 || neighbors[0].Name != "Low" {
		t.Errorf("Expected Low as nearest, got %+v", neighbors)
	}

	t.Run("WrongDimension", func(t *testing.T) {
		if _, err := s.NearestByVector(ctx, []float32{1, 2}, 1); err == nil {
			t.Error("Expected error for wrong dimensionality")
		}
	})
}

func TestExportCSV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	collection := models.Collection{
		analyzedCardinal("Beta", 2, 3, 4, 5),
		analyzedCardinal("Alpha", 1, 2, 3, 4),
		{Name: "Unanalyzed", ProfileURL: "https://example.com/u"},
	}
	if _, _, err := s.IndexCollection(ctx, collection); err != nil {
		t.Fatalf("Failed to index: %v", err)
	}

	var buf bytes.Buffer
	if err := s.ExportCSV(ctx, &buf); err != nil {
		t.Fatalf("Failed to export: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}

	// Header plus one row per cardinal with a stance vector, sorted by name.
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0][0] != "name" || records[0][5] != "conservative" {
		t.Errorf("Unexpected header: %v", records[0])
	}
	if records[1][0] != "Alpha" || records[2][0] != "Beta" {
		t.Errorf("Expected rows sorted by name, got %q, %q", records[1][0], records[2][0])
	}
	if records[1][5] != "1" || records[1][8] != "4" {
		t.Errorf("Unexpected stance values in row: %v", records[1])
	}
}

func TestSerializeFloat32(t *testing.T) {
	in := []float32{1, 2.5, -3, 0}
	out := deserializeFloat32(serializeFloat32(in))
	if len(out) != len(in) {
		t.Fatalf("Expected %d values, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("Value %d: expected %v, got %v", i, in[i], out[i])
		}
	}
}
