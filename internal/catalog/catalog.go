// Package catalog implements the SQLite-backed disc catalog store.
//
// The catalog is a single-file database shared with external desktop
// tooling, so writes are kept short and serialized by the caller; each
// statement runs in its own implicit transaction.
package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"slices"
	"time"

	_ "modernc.org/sqlite" // sqlite driver
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidateTable reports whether name is safe to interpolate into SQL.
func ValidateTable(name string) error {
	if !validTableName.MatchString(name) {
		return fmt.Errorf("invalid table name %q", name)
	}
	return nil
}

// Disc is one catalog row eligible for enrichment.
type Disc struct {
	ID           int64
	Manufacturer string
	Model        string
	Weblink      string
}

// Attempt is one durable ledger entry describing a pipeline outcome.
type Attempt struct {
	RunID   string
	DiscID  int64
	Stage   string
	Outcome string
	Detail  string
	At      time.Time
}

// OpenDB opens the catalog database with production pragmas applied.
func OpenDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 10000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog db: %w", err)
	}
	return db, nil
}

// Store reads and writes disc rows and the attempt ledger.
type Store struct {
	db    *sql.DB
	table string
}

// NewStore wraps an open database handle. The table name is interpolated
// into queries and therefore restricted to identifier characters.
func NewStore(db *sql.DB, table string) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	if table == "" {
		table = "discs"
	}
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &Store{db: db, table: table}, nil
}

// Open opens the database at path and returns a Store over table.
func Open(path, table string) (*Store, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	store, err := NewStore(db, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close catalog db: %w", err)
	}
	return nil
}

const attemptsDDL = `
CREATE TABLE IF NOT EXISTS enrichment_attempts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL,
	disc_id INTEGER NOT NULL,
	stage TEXT NOT NULL,
	outcome TEXT NOT NULL,
	detail TEXT,
	attempted_at TEXT NOT NULL
)`

// EnsureSchema adds the image column if the catalog predates it and
// creates the attempt ledger. Safe to run on every startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	cols, err := s.columnNames(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(cols, "image") {
		ddl := fmt.Sprintf("ALTER TABLE %s ADD COLUMN image BLOB", s.table)
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("add image column: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, attemptsDDL); err != nil {
		return fmt.Errorf("create attempt ledger: %w", err)
	}
	return nil
}

func (s *Store) columnNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", s.table))
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", s.table, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			dflt             sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("scan table info: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table info: %w", err)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("table %s does not exist", s.table)
	}
	return names, nil
}

// PendingDiscs returns a snapshot of every disc with a weblink and no
// stored image. The slice is fully materialized before dispatch begins,
// so writes made during the same run cannot perturb the candidate set.
func (s *Store) PendingDiscs(ctx context.Context) ([]Disc, error) {
	query := fmt.Sprintf(`
SELECT id, manufacturer, model, weblink
FROM %s
WHERE weblink IS NOT NULL
  AND weblink != ''
  AND (image IS NULL OR image = '')
ORDER BY id`, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select pending discs: %w", err)
	}
	defer rows.Close()

	var discs []Disc
	for rows.Next() {
		var (
			d                   Disc
			manufacturer, model sql.NullString
		)
		if err := rows.Scan(&d.ID, &manufacturer, &model, &d.Weblink); err != nil {
			return nil, fmt.Errorf("scan disc row: %w", err)
		}
		d.Manufacturer = manufacturer.String
		d.Model = model.String
		discs = append(discs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending discs: %w", err)
	}
	return discs, nil
}

// SetImage stores the canonical PNG bytes for one disc. A populated image
// column is the authoritative completion marker: the disc will never be
// selected again.
func (s *Store) SetImage(ctx context.Context, id int64, png []byte) error {
	query := fmt.Sprintf("UPDATE %s SET image = ? WHERE id = ?", s.table)
	res, err := s.db.ExecContext(ctx, query, png, id)
	if err != nil {
		return fmt.Errorf("update image for disc %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected for disc %d: %w", id, err)
	}
	if affected == 0 {
		return fmt.Errorf("disc %d not found", id)
	}
	return nil
}

// Image reads the stored image bytes for one disc; nil means no image yet.
func (s *Store) Image(ctx context.Context, id int64) ([]byte, error) {
	query := fmt.Sprintf("SELECT image FROM %s WHERE id = ?", s.table)
	var img []byte
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&img); err != nil {
		return nil, fmt.Errorf("read image for disc %d: %w", id, err)
	}
	return img, nil
}

// RecordAttempt appends one ledger row. The ledger makes repeated runs and
// failure trends auditable without re-deriving state from catalog contents.
func (s *Store) RecordAttempt(ctx context.Context, a Attempt) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO enrichment_attempts (run_id, disc_id, stage, outcome, detail, attempted_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		a.RunID, a.DiscID, a.Stage, a.Outcome, a.Detail, a.At.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("record attempt for disc %d: %w", a.DiscID, err)
	}
	return nil
}

// Attempts returns the ledger rows for one run in insertion order.
func (s *Store) Attempts(ctx context.Context, runID string) ([]Attempt, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, disc_id, stage, outcome, detail, attempted_at
FROM enrichment_attempts
WHERE run_id = ?
ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("select attempts: %w", err)
	}
	defer rows.Close()

	var attempts []Attempt
	for rows.Next() {
		var (
			a      Attempt
			detail sql.NullString
			at     string
		)
		if err := rows.Scan(&a.RunID, &a.DiscID, &a.Stage, &a.Outcome, &detail, &at); err != nil {
			return nil, fmt.Errorf("scan attempt row: %w", err)
		}
		a.Detail = detail.String
		if a.At, err = time.Parse(time.RFC3339, at); err != nil {
			return nil, fmt.Errorf("parse attempt timestamp %q: %w", at, err)
		}
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return attempts, nil
}
