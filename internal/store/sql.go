package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (namespace, key)
)`

// dialect holds the statements of one SQL flavour.
type dialect struct {
	get, set, remove string
}

var (
	postgresDialect = dialect{
		get: `SELECT value FROM kv WHERE namespace = $1 AND key = $2`,
		set: `INSERT INTO kv (namespace, key, value, updated_at) VALUES ($1, $2, $3, NOW())
			ON CONFLICT (namespace, key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
		remove: `DELETE FROM kv WHERE namespace = $1 AND key = $2`,
	}
	sqliteDialect = dialect{
		get: `SELECT value FROM kv WHERE namespace = ? AND key = ?`,
		set: `INSERT INTO kv (namespace, key, value, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT (namespace, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		remove: `DELETE FROM kv WHERE namespace = ? AND key = ?`,
	}
)

// DB is a KV over one SQL table.
type DB struct {
	Client *sql.DB
	q      dialect
}

// NewPostgres opens Postgres through pgx and creates the kv table.
func NewPostgres(ctx context.Context, connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return open(ctx, db, postgresDialect)
}

// NewSQLite opens (creating if needed) a SQLite file and the kv table.
func NewSQLite(ctx context.Context, path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return open(ctx, db, sqliteDialect)
}

func open(ctx context.Context, db *sql.DB, q dialect) (*DB, error) {
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if _, err := db.ExecContext(ctx, kvSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &DB{Client: db, q: q}, nil
}

func (d *DB) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	var v string
	err := d.Client.QueryRowContext(ctx, d.q.get, namespace, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (d *DB) Set(ctx context.Context, namespace, key, value string) error {
	_, err := d.Client.ExecContext(ctx, d.q.set, namespace, key, value)
	return err
}

func (d *DB) Remove(ctx context.Context, namespace, key string) error {
	_, err := d.Client.ExecContext(ctx, d.q.remove, namespace, key)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
