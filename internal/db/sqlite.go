package db

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/jcdickinson/docview/internal/cas"
	"github.com/jcdickinson/docview/internal/docs"
	"github.com/jcdickinson/docview/internal/model"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// ErrEmptyCatalog is returned by LoadClasses when nothing has been imported.
var ErrEmptyCatalog = errors.New("no classes imported")

// DB is the class catalog: which classes were imported from where, and the
// content hash of each class dump in the blob store.
type DB struct {
	conn  *sql.DB
	blobs *cas.Store
}

func New(dbPath string, blobs *cas.Store) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	d := &DB{conn: conn, blobs: blobs}
	if err := d.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return d, nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS origins (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			version TEXT NOT NULL DEFAULT '',
			imported_at TIMESTAMP,
			last_used_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS classes (
			id INTEGER PRIMARY KEY,
			origin_id INTEGER NOT NULL REFERENCES origins(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			parent TEXT NOT NULL DEFAULT '',
			content_hash TEXT NOT NULL,
			UNIQUE(origin_id, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_classes_name ON classes (name)`,
		`CREATE INDEX IF NOT EXISTS idx_classes_parent ON classes (parent)`,
	}

	for _, q := range queries {
		if _, err := db.conn.Exec(q); err != nil {
			return fmt.Errorf("executing %q: %w", q, err)
		}
	}
	return nil
}

// --- Origin operations ---

// Origin is where a set of classes was imported from: a directory or a URL.
type Origin struct {
	ID         int
	Name       string
	Version    string
	ImportedAt *time.Time
	LastUsedAt time.Time
}

func (db *DB) UpsertOrigin(name, version string) (*Origin, error) {
	_, err := db.conn.Exec(
		`INSERT INTO origins (name, version) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET version = excluded.version, last_used_at = CURRENT_TIMESTAMP`,
		name, version,
	)
	if err != nil {
		return nil, fmt.Errorf("upserting origin: %w", err)
	}
	o, err := db.GetOrigin(name)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("origin %s vanished after upsert", name)
	}
	return o, nil
}

func (db *DB) GetOrigin(name string) (*Origin, error) {
	var o Origin
	err := db.conn.QueryRow(
		`SELECT id, name, version, imported_at, last_used_at FROM origins WHERE name = ?`, name,
	).Scan(&o.ID, &o.Name, &o.Version, &o.ImportedAt, &o.LastUsedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting origin: %w", err)
	}
	return &o, nil
}

func (db *DB) ListOrigins() ([]Origin, error) {
	rows, err := db.conn.Query(`SELECT id, name, version, imported_at, last_used_at FROM origins ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var origins []Origin
	for rows.Next() {
		var o Origin
		if err := rows.Scan(&o.ID, &o.Name, &o.Version, &o.ImportedAt, &o.LastUsedAt); err != nil {
			return nil, err
		}
		origins = append(origins, o)
	}
	return origins, rows.Err()
}

// RemoveOrigin drops an origin and its classes. Blobs stay in the store.
func (db *DB) RemoveOrigin(name string) (bool, error) {
	res, err := db.conn.Exec(`DELETE FROM origins WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("removing origin: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// --- Class operations ---

type Class struct {
	ID          int
	OriginID    int
	Name        string
	Parent      string
	ContentHash string
}

// ImportResult summarises one Import call.
type ImportResult struct {
	Origin   *Origin
	Imported int
	Failures []model.ClassFailure
}

// Import replaces the classes of an origin with raws. Class dumps that do not
// validate are skipped and reported; the rest are stored in the blob store and
// catalogued in one transaction. progress, if set, is called once per class.
func (db *DB) Import(ctx context.Context, origin, version string, raws []docs.RawClass, progress func()) (*ImportResult, error) {
	o, err := db.UpsertOrigin(origin, version)
	if err != nil {
		return nil, err
	}

	type row struct {
		name, parent, hash string
	}
	var rows []row
	result := &ImportResult{Origin: o}
	for _, raw := range raws {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := docs.ParseClass(raw.Data)
		if err != nil {
			result.Failures = append(result.Failures, model.ClassFailure{Name: raw.Name, Err: err})
		} else {
			hash, err := db.blobs.Put(compact(raw.Data))
			if err != nil {
				return nil, fmt.Errorf("storing class %s: %w", rec.Name, err)
			}
			rows = append(rows, row{rec.Name, rec.Inherits, hash})
		}
		if progress != nil {
			progress()
		}
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM classes WHERE origin_id = ?`, o.ID); err != nil {
		return nil, fmt.Errorf("clearing classes of %s: %w", origin, err)
	}
	for _, r := range rows {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO classes (origin_id, name, parent, content_hash) VALUES (?, ?, ?, ?)
			 ON CONFLICT(origin_id, name) DO UPDATE SET parent = excluded.parent, content_hash = excluded.content_hash`,
			o.ID, r.name, r.parent, r.hash,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting class %s: %w", r.name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE origins SET imported_at = CURRENT_TIMESTAMP WHERE id = ?`, o.ID); err != nil {
		return nil, fmt.Errorf("marking origin imported: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	result.Imported = len(rows)
	slog.Info("imported classes", "origin", origin, "classes", result.Imported, "failures", len(result.Failures))
	return result, nil
}

func (db *DB) ListClasses() ([]Class, error) {
	rows, err := db.conn.Query(`SELECT id, origin_id, name, parent, content_hash FROM classes ORDER BY name, origin_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []Class
	for rows.Next() {
		var c Class
		if err := rows.Scan(&c.ID, &c.OriginID, &c.Name, &c.Parent, &c.ContentHash); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (db *DB) CountClasses() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM classes`).Scan(&n)
	return n, err
}

// LoadClasses decodes every catalogued class from the blob store in parallel.
// A class whose blob is missing or corrupt is reported as a failure. An empty
// catalog is an error, as is a catalog that cannot be read.
func (db *DB) LoadClasses(ctx context.Context) ([]*model.ClassRecord, []model.ClassFailure, error) {
	classes, err := db.ListClasses()
	if err != nil {
		return nil, nil, fmt.Errorf("listing classes: %w", err)
	}
	if len(classes) == 0 {
		return nil, nil, ErrEmptyCatalog
	}

	records := make([]*model.ClassRecord, len(classes))
	var (
		mu       sync.Mutex
		failures []model.ClassFailure
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, c := range classes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := db.decode(c)
			if err != nil {
				mu.Lock()
				failures = append(failures, model.ClassFailure{Name: c.Name, Err: err})
				mu.Unlock()
				return nil
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	sort.Slice(failures, func(i, j int) bool { return failures[i].Name < failures[j].Name })

	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out, failures, nil
}

func (db *DB) decode(c Class) (*model.ClassRecord, error) {
	data, err := db.blobs.Get(c.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("reading blob %s: %w", c.ContentHash, err)
	}
	return docs.ParseClass(data)
}

// compact normalises whitespace so identical classes share a blob.
func compact(raw []byte) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
