package store

import "fmt"

// schemaSQL returns the DDL for the cardinal tables. stanceDim controls
// the vec0 virtual table dimension.
func schemaSQL(stanceDim int) string {
	return fmt.Sprintf(`
-- Cardinal registry keyed by name
CREATE TABLE IF NOT EXISTS cardinals (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    profile_url TEXT,
    image_url TEXT,
    voting_status TEXT,
    created_by TEXT,
    age TEXT,
    nation TEXT,
    continent TEXT,
    position TEXT,
    attributes JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Stance vectors via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_cardinals USING vec0(
    cardinal_id INTEGER PRIMARY KEY,
    stance float[%d]
);
`, stanceDim)
}
