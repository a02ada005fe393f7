package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Extraction runs (one per Extract call that was persisted)
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY,
    source TEXT NOT NULL,
    model TEXT NOT NULL,
    total_chunks INTEGER DEFAULT 0,
    total_triplets INTEGER DEFAULT 0,
    status TEXT DEFAULT 'running',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Accepted triplets, one row per validated (role, practice, counterrole)
CREATE TABLE IF NOT EXISTS triplets (
    id INTEGER PRIMARY KEY,
    run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    chunk_id INTEGER,
    role TEXT NOT NULL,
    practice TEXT NOT NULL,
    practice_original TEXT,
    practice_score REAL,
    counterrole TEXT NOT NULL,
    context TEXT,
    confidence REAL,
    entities JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Context embeddings via sqlite-vec
CREATE VIRTUAL TABLE IF NOT EXISTS vec_triplets USING vec0(
    triplet_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Full-text search via FTS5
CREATE VIRTUAL TABLE IF NOT EXISTS triplets_fts USING fts5(
    role,
    counterrole,
    context,
    content='triplets',
    content_rowid='id',
    tokenize='porter unicode61'
);

-- FTS triggers to keep index in sync
CREATE TRIGGER IF NOT EXISTS triplets_ai AFTER INSERT ON triplets BEGIN
    INSERT INTO triplets_fts(rowid, role, counterrole, context) VALUES (new.id, new.role, new.counterrole, new.context);
END;
CREATE TRIGGER IF NOT EXISTS triplets_ad AFTER DELETE ON triplets BEGIN
    INSERT INTO triplets_fts(triplets_fts, rowid, role, counterrole, context) VALUES ('delete', old.id, old.role, old.counterrole, old.context);
END;
CREATE TRIGGER IF NOT EXISTS triplets_au AFTER UPDATE ON triplets BEGIN
    INSERT INTO triplets_fts(triplets_fts, rowid, role, counterrole, context) VALUES ('delete', old.id, old.role, old.counterrole, old.context);
    INSERT INTO triplets_fts(triplets_fts, rowid, role, counterrole, context) VALUES (new.id, new.role, new.counterrole, new.context);
END;

-- Indexes
CREATE INDEX IF NOT EXISTS idx_triplets_run ON triplets(run_id);
CREATE INDEX IF NOT EXISTS idx_triplets_role ON triplets(role);
CREATE INDEX IF NOT EXISTS idx_triplets_practice ON triplets(practice);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`, embeddingDim)
}
