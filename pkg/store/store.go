// Package store persists cardinals and their stance vectors in SQLite,
// using sqlite-vec for nearest-neighbour queries over the stance space.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"cardscraper/pkg/models"
)

func init() {
	sqlite_vec.Auto()
}

// StanceDim is the dimensionality of the stance vector: theological
// conservatism, reform-leaning theology, LGBTQ+ policies, environmentalism.
const StanceDim = 4

// Neighbor is a cardinal returned from a stance-space KNN query.
type Neighbor struct {
	Name     string  `json:"name"`
	Nation   string  `json:"nation"`
	Position string  `json:"position"`
	Distance float64 `json:"distance"`
}

// Store wraps the SQLite database for cardinal persistence.
type Store struct {
	db *sql.DB
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including the sqlite-vec virtual table.
func New(dbPath string) (*Store, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(StanceDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Upsert inserts or updates a cardinal record and, when the cardinal has
// been analyzed, its stance vector. Returns the cardinal ID.
func (s *Store) Upsert(ctx context.Context, c *models.Cardinal) (int64, error) {
	attrsJSON, err := json.Marshal(c.Attributes)
	if err != nil {
		return 0, fmt.Errorf("marshaling attributes: %w", err)
	}

	var id int64
	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO cardinals (name, profile_url, image_url, voting_status, created_by, age, nation, continent, position, attributes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				profile_url = excluded.profile_url,
				image_url = excluded.image_url,
				voting_status = excluded.voting_status,
				created_by = excluded.created_by,
				age = excluded.age,
				nation = excluded.nation,
				continent = excluded.continent,
				position = excluded.position,
				attributes = excluded.attributes,
				updated_at = CURRENT_TIMESTAMP
		`, c.Name, c.ProfileURL, c.ImageURL, c.VotingStatus, c.CreatedBy,
			c.Age, c.Nation, c.Continent, c.Position, string(attrsJSON))
		if err != nil {
			return err
		}

		// LastInsertId is unreliable after the DO UPDATE branch (it reports
		// the previous insert on the connection), so resolve the id by name.
		row := tx.QueryRowContext(ctx, "SELECT id FROM cardinals WHERE name = ?", c.Name)
		if err := row.Scan(&id); err != nil {
			return err
		}

		if !c.Analyzed() {
			return nil
		}

		// vec0 virtual tables reject REPLACE conflict resolution, so the
		// stance row is deleted and re-inserted.
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM vec_cardinals WHERE cardinal_id = ?", id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO vec_cardinals (cardinal_id, stance) VALUES (?, ?)",
			id, serializeFloat32(c.StanceVector()))
		return err
	})
	return id, err
}

// IndexCollection upserts every cardinal in the collection. Returns the
// number of records written and the number carrying a stance vector.
func (s *Store) IndexCollection(ctx context.Context, collection models.Collection) (indexed, withStance int, err error) {
	for _, c := range collection {
		if c.Name == "" {
			continue
		}
		if _, err := s.Upsert(ctx, c); err != nil {
			return indexed, withStance, fmt.Errorf("upserting %q: %w", c.Name, err)
		}
		indexed++
		if c.Analyzed() {
			withStance++
		}
	}
	return indexed, withStance, nil
}

// GetByName retrieves a cardinal record by name.
func (s *Store) GetByName(ctx context.Context, name string) (*models.Cardinal, error) {
	c := &models.Cardinal{}
	var attrs sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT name, profile_url, image_url, voting_status, created_by, age, nation, continent, position, attributes
		FROM cardinals WHERE name = ?
	`, name).Scan(&c.Name, &c.ProfileURL, &c.ImageURL, &c.VotingStatus,
		&c.CreatedBy, &c.Age, &c.Nation, &c.Continent, &c.Position, &attrs)
	if err != nil {
		return nil, err
	}
	if attrs.Valid && attrs.String != "" {
		if err := json.Unmarshal([]byte(attrs.String), &c.Attributes); err != nil {
			return nil, fmt.Errorf("parsing attributes: %w", err)
		}
	}
	return c, nil
}

// NearestByName finds the k cardinals closest in stance space to the
// named cardinal, excluding the cardinal itself.
func (s *Store) NearestByName(ctx context.Context, name string, k int) ([]Neighbor, error) {
	var id int64
	var stance []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id, v.stance FROM cardinals c
		JOIN vec_cardinals v ON v.cardinal_id = c.id
		WHERE c.name = ?
	`, name).Scan(&id, &stance)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no stance vector indexed for %q", name)
		}
		return nil, err
	}

	// Over-fetch by one so the query cardinal can be filtered out.
	neighbors, err := s.nearest(ctx, stance, k+1)
	if err != nil {
		return nil, err
	}

	out := neighbors[:0]
	for _, n := range neighbors {
		if n.Name == name {
			continue
		}
		out = append(out, n)
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// NearestByVector finds the k cardinals closest to an arbitrary stance vector.
func (s *Store) NearestByVector(ctx context.Context, stance []float32, k int) ([]Neighbor, error) {
	if len(stance) != StanceDim {
		return nil, fmt.Errorf("stance vector must have %d dimensions, got %d", StanceDim, len(stance))
	}
	return s.nearest(ctx, serializeFloat32(stance), k)
}

func (s *Store) nearest(ctx context.Context, stance []byte, k int) ([]Neighbor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.nation, c.position, v.distance
		FROM vec_cardinals v
		JOIN cardinals c ON c.id = v.cardinal_id
		WHERE v.stance MATCH ? AND k = ?
		ORDER BY v.distance
	`, stance, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var neighbors []Neighbor
	for rows.Next() {
		var n Neighbor
		if err := rows.Scan(&n.Name, &n.Nation, &n.Position, &n.Distance); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	return neighbors, rows.Err()
}

// Stats holds counts of indexed records.
type Stats struct {
	Cardinals int `json:"cardinals"`
	Stances   int `json:"stances"`
}

// Stats returns counts of cardinal records and indexed stance vectors.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cardinals").Scan(&stats.Cardinals); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vec_cardinals").Scan(&stats.Stances); err != nil {
		return nil, err
	}
	return stats, nil
}

// csvHeader is the column order for stance exports.
var csvHeader = []string{
	"name", "nation", "continent", "position", "voting_status",
	"conservative", "reform_leaning", "lgbtq_policies", "environmentalism",
}

// ExportCSV writes every cardinal with an indexed stance vector as CSV.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.nation, c.continent, c.position, c.voting_status, v.stance
		FROM cardinals c
		JOIN vec_cardinals v ON v.cardinal_id = c.id
		ORDER BY c.name
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for rows.Next() {
		var name, nation, continent, position, votingStatus string
		var stance []byte
		if err := rows.Scan(&name, &nation, &continent, &position, &votingStatus, &stance); err != nil {
			return err
		}

		record := []string{name, nation, continent, position, votingStatus}
		for _, f := range deserializeFloat32(stance) {
			record = append(record, fmt.Sprintf("%g", f))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// --- helpers ---

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func deserializeFloat32(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v
}
