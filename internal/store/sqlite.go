package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/agentic-research/yomitran/internal/note"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS schemas (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	fields JSON NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
	id INTEGER PRIMARY KEY,
	schema_id TEXT NOT NULL,
	fields JSON NOT NULL,
	raw JSON,
	mtime INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_notes_schema ON notes(schema_id);

CREATE TABLE IF NOT EXISTS note_tags (
	note_id INTEGER NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (note_id, tag)
) WITHOUT ROWID;
CREATE INDEX IF NOT EXISTS idx_note_tags_tag ON note_tags(tag);
`

// SQLiteStore is a Store backed by a SQLite database.
//
// Record IDs follow the collection convention of millisecond timestamps,
// bumped past the current maximum so they stay unique within one second.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return NewSQLiteStore(db), nil
}

// NewSQLiteStore wraps an open database whose tables already exist.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }() // no-op after commit
	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Schemas(ctx context.Context) ([]note.Schema, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name, fields FROM schemas ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("query schemas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []note.Schema
	for rows.Next() {
		var (
			sc  note.Schema
			raw string
		)
		if err := rows.Scan(&sc.ID, &sc.Name, &raw); err != nil {
			return nil, fmt.Errorf("scan schema: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &sc.Fields); err != nil {
			return nil, fmt.Errorf("parse fields of schema %s: %w", sc.ID, err)
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AddSchema(ctx context.Context, sc note.Schema) error {
	fields, err := json.Marshal(sc.Fields)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO schemas (id, name, fields) VALUES (?, ?, ?)",
		sc.ID, sc.Name, string(fields))
	if err != nil {
		return fmt.Errorf("add schema %s: %w", sc.ID, err)
	}
	return nil
}

func (s *SQLiteStore) AddSource(ctx context.Context, rec *note.Source) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertNote(ctx, tx, rec.ID, rec.Schema, rec.Fields, rec.Raw, rec.Tags)
		return err
	})
	return id, err
}

func (s *SQLiteStore) FindSources(ctx context.Context, q Query) ([]*note.Source, error) {
	query := "SELECT id, schema_id, fields, raw FROM notes n WHERE 1=1"
	var args []any
	if q.Schema != "" {
		query += " AND n.schema_id = ?"
		args = append(args, q.Schema)
	}
	if q.ExcludeTag != "" {
		query += " AND NOT EXISTS (SELECT 1 FROM note_tags t WHERE t.note_id = n.id AND t.tag = ?)"
		args = append(args, q.ExcludeTag)
	}
	query += " ORDER BY n.id"
	if q.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query notes: %w", err)
	}
	var out []*note.Source
	for rows.Next() {
		rec, err := scanSource(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		out = append(out, rec)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Tags are loaded after the cursor is closed so the pool can serve them
	// on the same connection.
	for _, rec := range out {
		if rec.Tags, err = loadTags(ctx, s.db, rec.ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id int64) (*note.Source, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, schema_id, fields, raw FROM notes WHERE id = ?", id)
	rec, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if rec.Tags, err = loadTags(ctx, s.db, id); err != nil {
		return nil, err
	}
	return rec, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSource(sc scanner) (*note.Source, error) {
	var (
		rec    note.Source
		fields string
		raw    sql.NullString
	)
	if err := sc.Scan(&rec.ID, &rec.Schema, &fields, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	if err := json.Unmarshal([]byte(fields), &rec.Fields); err != nil {
		return nil, fmt.Errorf("parse fields of note %d: %w", rec.ID, err)
	}
	if raw.Valid && raw.String != "" {
		if err := json.Unmarshal([]byte(raw.String), &rec.Raw); err != nil {
			return nil, fmt.Errorf("parse raw payload of note %d: %w", rec.ID, err)
		}
	}
	return &rec, nil
}

func loadTags(ctx context.Context, q querier, id int64) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT tag FROM note_tags WHERE note_id = ? ORDER BY tag", id)
	if err != nil {
		return nil, fmt.Errorf("query tags of %d: %w", id, err)
	}
	defer func() { _ = rows.Close() }()
	tags := []string{}
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func (s *SQLiteStore) CreateTarget(ctx context.Context, t *note.Target) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertNote(ctx, tx, 0, t.Schema, t.Fields, nil, t.AllTags())
		return err
	})
	return id, err
}

func (s *SQLiteStore) AppendTags(ctx context.Context, id int64, tags ...string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		return s.appendTags(ctx, tx, id, tags)
	})
}

func (s *SQLiteStore) SetField(ctx context.Context, id int64, field, value string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		fields, err := noteFields(ctx, tx, id)
		if err != nil {
			return err
		}
		fields[field] = value
		return s.writeFields(ctx, tx, id, fields)
	})
}

// Commit creates t and marks its source in one transaction.
func (s *SQLiteStore) Commit(ctx context.Context, t *note.Target, m Mark) (int64, error) {
	var id int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.insertNote(ctx, tx, 0, t.Schema, t.Fields, nil, t.AllTags())
		if err != nil {
			return err
		}
		if err := s.appendTags(ctx, tx, m.SourceID, m.Tags); err != nil {
			return err
		}
		if m.BacklinkField == "" {
			return nil
		}
		fields, err := noteFields(ctx, tx, m.SourceID)
		if err != nil {
			return err
		}
		cur, ok := fields[m.BacklinkField]
		if !ok {
			return nil
		}
		fields[m.BacklinkField] = note.AppendLink(cur, note.Link(m.BacklinkLabel, id))
		return s.writeFields(ctx, tx, m.SourceID, fields)
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteStore) insertNote(ctx context.Context, tx querier, id int64, schema string, fields map[string]string, raw any, tags []string) (int64, error) {
	if id == 0 {
		var maxID int64
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(id), 0) FROM notes").Scan(&maxID); err != nil {
			return 0, fmt.Errorf("allocate id: %w", err)
		}
		id = max(s.now().UnixMilli(), maxID+1)
	}
	if fields == nil {
		fields = map[string]string{}
	}
	fj, err := json.Marshal(fields)
	if err != nil {
		return 0, err
	}
	var rawJSON any
	if raw != nil {
		b, err := json.Marshal(raw)
		if err != nil {
			return 0, fmt.Errorf("encode raw payload: %w", err)
		}
		rawJSON = string(b)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO notes (id, schema_id, fields, raw, mtime) VALUES (?, ?, ?, ?, ?)",
		id, schema, string(fj), rawJSON, s.now().Unix()); err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}
	if err := insertTags(ctx, tx, id, tags); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *SQLiteStore) appendTags(ctx context.Context, tx querier, id int64, tags []string) error {
	res, err := tx.ExecContext(ctx, "UPDATE notes SET mtime = ? WHERE id = ?", s.now().Unix(), id)
	if err != nil {
		return fmt.Errorf("touch note %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("append tags to %d: %w", id, ErrNotFound)
	}
	return insertTags(ctx, tx, id, tags)
}

func insertTags(ctx context.Context, tx querier, id int64, tags []string) error {
	for _, t := range tags {
		if t == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO note_tags (note_id, tag) VALUES (?, ?)", id, t); err != nil {
			return fmt.Errorf("insert tag %q: %w", t, err)
		}
	}
	return nil
}

func noteFields(ctx context.Context, tx querier, id int64) (map[string]string, error) {
	var raw string
	err := tx.QueryRowContext(ctx, "SELECT fields FROM notes WHERE id = ?", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("note %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read fields of %d: %w", id, err)
	}
	fields := map[string]string{}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("parse fields of note %d: %w", id, err)
	}
	return fields, nil
}

func (s *SQLiteStore) writeFields(ctx context.Context, tx querier, id int64, fields map[string]string) error {
	fj, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "UPDATE notes SET fields = ?, mtime = ? WHERE id = ?", string(fj), s.now().Unix(), id); err != nil {
		return fmt.Errorf("update fields of %d: %w", id, err)
	}
	return nil
}
