// Package database persists attribute sets as encoded snapshots in SQLite.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dball/lazyattrs/internal/attribute"
	"github.com/dball/lazyattrs/internal/attrset"
	"github.com/dball/lazyattrs/internal/codec"
	"github.com/dball/lazyattrs/internal/sys"
	. "github.com/dball/lazyattrs/internal/types"
	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// NotFound is the error code for reads of ids with no stored set.
const NotFound = "database.notFound"

type Config struct {
	// Path is the sqlite file. Parent directories are created as needed.
	Path string
	// Format is the encoding of stored payloads.
	Format codec.Format
	// Registry resolves type idents when sets are read.
	Registry attribute.Resolver
	// Degree is the btree degree of the sets read, index.DefaultDegree if
	// below 2.
	Degree int
	Logger *slog.Logger
}

var defaultConfig Config = Config{
	Path: "lazyattrs.db",
}

// Database stores attribute sets by id. Writes store a portable snapshot, so
// every attribute of a written set must have a named type.
type Database struct {
	db       *sql.DB
	format   codec.Format
	registry attribute.Resolver
	degree   int
	logger   *slog.Logger

	lock sync.RWMutex
}

func Open(ctx context.Context, config Config) (db *Database, err error) {
	path := config.Path
	if path == "" {
		path = defaultConfig.Path
	}
	registry := config.Registry
	if registry == nil {
		registry = sys.Default()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if err = os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		err = fmt.Errorf("create dirs: %w", err)
		return
	}
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		err = fmt.Errorf("open sqlite: %w", err)
		return
	}
	conn.SetMaxOpenConns(1)
	if _, err = conn.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS attribute_sets (
		id TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = conn.Close()
		err = fmt.Errorf("create attribute_sets table: %w", err)
		return
	}
	db = &Database{
		db:       conn,
		format:   config.Format,
		registry: registry,
		degree:   config.Degree,
		logger:   logger.With("path", path),
	}
	return
}

// Write stores the set under the id, replacing any set already stored there.
// An empty id is allocated a new one.
func (db *Database) Write(ctx context.Context, id string, set *attrset.Set) (stored string, err error) {
	data, err := codec.Marshal(db.format, set)
	if err != nil {
		return
	}
	if id == "" {
		id = uuid.NewString()
	}
	db.lock.Lock()
	defer db.lock.Unlock()
	_, err = db.db.ExecContext(ctx,
		`INSERT INTO attribute_sets(id,format,payload) VALUES(?,?,?) ON CONFLICT(id) DO UPDATE SET format=excluded.format, payload=excluded.payload`,
		id, db.format.String(), data)
	if err != nil {
		err = fmt.Errorf("upsert %s: %w", id, err)
		db.logger.ErrorContext(ctx, "write failed", "id", id, "error", err)
		return
	}
	stored = id
	db.logger.DebugContext(ctx, "wrote attribute set", "id", id, "attributes", set.Len(), "bytes", len(data))
	return
}

// Read restores the set stored under the id. Payloads are decoded in the
// format they were written in.
func (db *Database) Read(ctx context.Context, id string) (set *attrset.Set, err error) {
	var name string
	var data []byte
	db.lock.RLock()
	err = db.db.QueryRowContext(ctx, `SELECT format, payload FROM attribute_sets WHERE id = ?`, id).Scan(&name, &data)
	db.lock.RUnlock()
	if errors.Is(err, sql.ErrNoRows) {
		err = NewError(NotFound, "id", id)
		return
	}
	if err != nil {
		err = fmt.Errorf("select %s: %w", id, err)
		return
	}
	format, err := codec.ParseFormat(name)
	if err != nil {
		return
	}
	set, err = codec.Unmarshal(format, data, db.registry, db.degree)
	if err != nil {
		db.logger.ErrorContext(ctx, "read failed", "id", id, "error", err)
	}
	return
}

// Delete removes the set stored under the id, returning true if there was one.
func (db *Database) Delete(ctx context.Context, id string) (deleted bool, err error) {
	db.lock.Lock()
	defer db.lock.Unlock()
	result, err := db.db.ExecContext(ctx, `DELETE FROM attribute_sets WHERE id = ?`, id)
	if err != nil {
		err = fmt.Errorf("delete %s: %w", id, err)
		return
	}
	n, err := result.RowsAffected()
	if err != nil {
		err = fmt.Errorf("delete %s: %w", id, err)
		return
	}
	deleted = n > 0
	return
}

// IDs returns the stored ids in lexical order.
func (db *Database) IDs(ctx context.Context) (ids []string, err error) {
	db.lock.RLock()
	defer db.lock.RUnlock()
	rows, err := db.db.QueryContext(ctx, `SELECT id FROM attribute_sets ORDER BY id`)
	if err != nil {
		err = fmt.Errorf("select ids: %w", err)
		return
	}
	defer func() { _ = rows.Close() }()
	ids = []string{}
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			err = fmt.Errorf("scan: %w", err)
			return
		}
		ids = append(ids, id)
	}
	err = rows.Err()
	return
}

func (db *Database) Close() error {
	return db.db.Close()
}
