package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvidoni/sociograph/triplet"
)

// ErrRunNotFound is returned when an extraction run ID does not exist.
var ErrRunNotFound = errors.New("store: run not found")

func init() {
	sqlite_vec.Auto()
}

// Run represents a row in the runs table: one persisted extraction call.
type Run struct {
	ID            int64  `json:"id"`
	Source        string `json:"source"`
	Model         string `json:"model"`
	TotalChunks   int    `json:"total_chunks"`
	TotalTriplets int    `json:"total_triplets"`
	Status        string `json:"status"`
	CreatedAt     string `json:"created_at"`
}

// Triplet represents a row in the triplets table.
type Triplet struct {
	ID               int64            `json:"id"`
	RunID            int64            `json:"run_id"`
	ChunkID          int              `json:"chunk_id"`
	Role             string           `json:"role"`
	Practice         string           `json:"practice"`
	PracticeOriginal string           `json:"practice_original,omitempty"`
	PracticeScore    float64          `json:"practice_score,omitempty"`
	Counterrole      string           `json:"counterrole"`
	Context          string           `json:"context,omitempty"`
	Confidence       float64          `json:"model_confidence,omitempty"`
	Entities         []triplet.Entity `json:"ner,omitempty"`
	CreatedAt        string           `json:"created_at"`
}

// SearchResult holds a triplet with its search score.
type SearchResult struct {
	Triplet Triplet `json:"triplet"`
	Score   float64 `json:"score"`
}

// Stats summarises database contents.
type Stats struct {
	Runs       int64 `json:"runs"`
	Triplets   int64 `json:"triplets"`
	Embeddings int64 `json:"embeddings"`
}

// Store wraps the SQLite database for all sociograph persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initialises the schema including sqlite-vec and FTS5 virtual tables.
func New(dbPath string, embeddingDim int) (*Store, error) {
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

	// Create schema
	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	// Connection pool settings for SQLite.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

	// Run pending migrations.
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for advanced queries.
func (s *Store) DB() *sql.DB {
	return s.db
}

// EmbeddingDim returns the configured embedding dimension.
func (s *Store) EmbeddingDim() int {
	return s.embeddingDim
}

// --- Run operations ---

// InsertRun records the start of an extraction run and returns its ID.
func (s *Store) InsertRun(ctx context.Context, source, model string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (source, model, status) VALUES (?, ?, 'running')
	`, source, model)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	return res.LastInsertId()
}

// FinishRun records the final counts and status of a run.
func (s *Store) FinishRun(ctx context.Context, id int64, chunks, triplets int, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE runs SET total_chunks = ?, total_triplets = ?, status = ? WHERE id = ?
	`, chunks, triplets, status, id)
	if err != nil {
		return fmt.Errorf("finishing run %d: %w", id, err)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, id int64) (*Run, error) {
	var r Run
	err := s.db.QueryRowContext(ctx, `
		SELECT id, source, model, total_chunks, total_triplets, status, created_at
		FROM runs WHERE id = ?
	`, id).Scan(&r.ID, &r.Source, &r.Model, &r.TotalChunks, &r.TotalTriplets, &r.Status, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %d: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting run %d: %w", id, err)
	}
	return &r, nil
}

// ListRuns returns the most recent runs, newest first. limit <= 0 means
// a default of 50.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, model, total_chunks, total_triplets, status, created_at
		FROM runs ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Source, &r.Model, &r.TotalChunks, &r.TotalTriplets, &r.Status, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and, via cascade, its triplets. Embeddings of
// the removed triplets are cleaned up explicitly because vec0 tables do
// not participate in foreign keys.
func (s *Store) DeleteRun(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_triplets WHERE triplet_id IN (SELECT id FROM triplets WHERE run_id = ?)
		`, id); err != nil {
			return fmt.Errorf("deleting embeddings: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting run: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return fmt.Errorf("run %d: %w", id, ErrRunNotFound)
		}
		return nil
	})
}

// --- Triplet operations ---

// InsertTriplets stores validated triplets under a run in a single
// transaction. Returns the new row IDs in input order.
func (s *Store) InsertTriplets(ctx context.Context, runID int64, triplets []triplet.Validated) ([]int64, error) {
	ids := make([]int64, 0, len(triplets))
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO triplets (run_id, chunk_id, role, practice, practice_original,
				practice_score, counterrole, context, confidence, entities)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, t := range triplets {
			var entitiesJSON any
			if len(t.Entities) > 0 {
				data, err := json.Marshal(t.Entities)
				if err != nil {
					return fmt.Errorf("marshaling entities: %w", err)
				}
				entitiesJSON = string(data)
			}
			res, err := stmt.ExecContext(ctx, runID, t.ChunkID, t.Role, t.Practice,
				t.PracticeOriginal, t.PracticeScore, t.Counterrole, t.Context,
				t.Confidence, entitiesJSON)
			if err != nil {
				return fmt.Errorf("inserting triplet: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// TripletsByRun returns all triplets of a run in insertion order.
func (s *Store) TripletsByRun(ctx context.Context, runID int64) ([]Triplet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, chunk_id, role, practice,
			COALESCE(practice_original, ''), COALESCE(practice_score, 0),
			counterrole, COALESCE(context, ''), COALESCE(confidence, 0),
			entities, created_at
		FROM triplets WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying triplets: %w", err)
	}
	defer rows.Close()
	return scanTriplets(rows)
}

// SearchTriplets runs an FTS5 match over role, counterrole and context.
// Score is -rank so higher is better.
func (s *Store) SearchTriplets(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.run_id, t.chunk_id, t.role, t.practice,
			COALESCE(t.practice_original, ''), COALESCE(t.practice_score, 0),
			t.counterrole, COALESCE(t.context, ''), COALESCE(t.confidence, 0),
			t.entities, t.created_at, -f.rank AS score
		FROM triplets_fts f
		JOIN triplets t ON t.id = f.rowid
		WHERE triplets_fts MATCH ?
		ORDER BY f.rank
		LIMIT ?
	`, ftsQuote(query), limit)
	if err != nil {
		return nil, fmt.Errorf("fts search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var t Triplet
		var entitiesJSON sql.NullString
		var score float64
		if err := rows.Scan(&t.ID, &t.RunID, &t.ChunkID, &t.Role, &t.Practice,
			&t.PracticeOriginal, &t.PracticeScore, &t.Counterrole, &t.Context,
			&t.Confidence, &entitiesJSON, &t.CreatedAt, &score); err != nil {
			return nil, err
		}
		if entitiesJSON.Valid && entitiesJSON.String != "" {
			json.Unmarshal([]byte(entitiesJSON.String), &t.Entities)
		}
		results = append(results, SearchResult{Triplet: t, Score: score})
	}
	return results, rows.Err()
}

// InsertTripletEmbedding stores a context embedding for a stored triplet.
func (s *Store) InsertTripletEmbedding(ctx context.Context, tripletID int64, embedding []float32) error {
	if len(embedding) != s.embeddingDim {
		return fmt.Errorf("embedding dimension %d, store expects %d", len(embedding), s.embeddingDim)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO vec_triplets (triplet_id, embedding) VALUES (?, ?)
	`, tripletID, serializeFloat32(embedding))
	if err != nil {
		return fmt.Errorf("inserting embedding: %w", err)
	}
	return nil
}

// SimilarTriplets runs a KNN search against stored context embeddings.
// Score is 1 - distance so higher is more similar.
func (s *Store) SimilarTriplets(ctx context.Context, embedding []float32, k int) ([]SearchResult, error) {
	if k <= 0 {
		k = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.run_id, t.chunk_id, t.role, t.practice,
			COALESCE(t.practice_original, ''), COALESCE(t.practice_score, 0),
			t.counterrole, COALESCE(t.context, ''), COALESCE(t.confidence, 0),
			t.entities, t.created_at, v.distance
		FROM vec_triplets v
		JOIN triplets t ON t.id = v.triplet_id
		WHERE v.embedding MATCH ? AND k = ?
		ORDER BY v.distance
	`, serializeFloat32(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var t Triplet
		var entitiesJSON sql.NullString
		var distance float64
		if err := rows.Scan(&t.ID, &t.RunID, &t.ChunkID, &t.Role, &t.Practice,
			&t.PracticeOriginal, &t.PracticeScore, &t.Counterrole, &t.Context,
			&t.Confidence, &entitiesJSON, &t.CreatedAt, &distance); err != nil {
			return nil, err
		}
		if entitiesJSON.Valid && entitiesJSON.String != "" {
			json.Unmarshal([]byte(entitiesJSON.String), &t.Entities)
		}
		results = append(results, SearchResult{Triplet: t, Score: 1 - distance})
	}
	return results, rows.Err()
}

// DBStats returns row counts for diagnostics.
func (s *Store) DBStats(ctx context.Context) (*Stats, error) {
	var st Stats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&st.Runs); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM triplets").Scan(&st.Triplets); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vec_triplets").Scan(&st.Embeddings); err != nil {
		return nil, err
	}
	return &st, nil
}

// --- Helpers ---

func scanTriplets(rows *sql.Rows) ([]Triplet, error) {
	var triplets []Triplet
	for rows.Next() {
		var t Triplet
		var entitiesJSON sql.NullString
		if err := rows.Scan(&t.ID, &t.RunID, &t.ChunkID, &t.Role, &t.Practice,
			&t.PracticeOriginal, &t.PracticeScore, &t.Counterrole, &t.Context,
			&t.Confidence, &entitiesJSON, &t.CreatedAt); err != nil {
			return nil, err
		}
		if entitiesJSON.Valid && entitiesJSON.String != "" {
			json.Unmarshal([]byte(entitiesJSON.String), &t.Entities)
		}
		triplets = append(triplets, t)
	}
	return triplets, rows.Err()
}

// ftsQuote wraps each term in double quotes so user input with FTS5
// operators cannot break the MATCH expression.
func ftsQuote(query string) string {
	fields := splitFields(query)
	out := ""
	for i, f := range fields {
		if i > 0 {
			out += " "
		}
		out += `"` + f + `"`
	}
	return out
}

func splitFields(s string) []string {
	var fields []string
	field := ""
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '"' {
			if field != "" {
				fields = append(fields, field)
				field = ""
			}
			continue
		}
		field += string(r)
	}
	if field != "" {
		fields = append(fields, field)
	}
	return fields
}

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
