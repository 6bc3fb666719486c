// Package storage persists sticker packs in SQLite.
//
// Packs own their stickers: saving a pack replaces its sticker rows and
// deleting it cascades. A sticker that fails a content rule can be
// quarantined, which keeps the row but sets is_valid=0 and records the rule
// kind in last_error until the user repairs or deletes it.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

var (
	ErrPackNotFound    = errors.New("sticker pack not found")
	ErrStickerNotFound = errors.New("sticker not found")
)

// Store is a SQLite-backed pack repository
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies migrations
func Open(ctx context.Context, path string) (*Store, error) {
	slog.Info("database_init", "db_path", path)

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		slog.Error("database_open_failed", "db_path", path, "error", err)
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		slog.Error("database_migrate_failed", "db_path", path, "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("database_ready", "db_path", path)
	return &Store{db: db}, nil
}

func dsn(path string) string {
	if path == MemoryPath {
		return "file::memory:?_pragma=foreign_keys(1)"
	}
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, "migrations")
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// dbtx is the subset of database/sql shared by *sql.DB and *sql.Tx
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success and rolling back
// on error or panic.
func (s *Store) withTx(ctx context.Context, fn func(ctx context.Context, tx dbtx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	return fn(ctx, tx)
}

// expectOne maps a zero-row update to notFound
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
