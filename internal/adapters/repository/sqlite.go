package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

const defaultBusyTimeout = 5 * time.Second

// SQLiteLikeStore keeps the counter in a single-row SQLite table.
type SQLiteLikeStore struct {
	db          *sql.DB
	busyTimeout time.Duration
	initial     int64
	closed      atomic.Bool
}

// OpenSQLiteLikeStore opens (creating if needed) the database at path and
// runs migrations.
func OpenSQLiteLikeStore(ctx context.Context, path string, opts ...Option) (*SQLiteLikeStore, error) {
	const op = "likes.open"
	if path == "" {
		return nil, WrapKind(op, ErrOpen, errors.New("path is required"))
	}
	s := &SQLiteLikeStore{busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(s)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, WrapKind(op, ErrOpen, err)
	}
	// One writer keeps the increment transactions simple under SQLite locking.
	db.SetMaxOpenConns(1)
	s.db = db

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds()),
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, WrapKind(op, ErrOpen, err)
		}
	}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteLikeStore) migrate(ctx context.Context) error {
	const op = "likes.migrate"
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS likes (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			count INTEGER NOT NULL DEFAULT 0,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}
	for _, m := range migrations {
		if _, err := s.db.ExecContext(ctx, m); err != nil {
			return WrapKind(op, ErrMigrate, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO likes (id, count) VALUES (1, ?)`, s.initial); err != nil {
		return WrapKind(op, ErrMigrate, err)
	}
	return nil
}

func (s *SQLiteLikeStore) Increment(ctx context.Context) (int64, error) {
	const op = "likes.increment"
	if s.closed.Load() {
		return 0, Wrap(op, ErrClosed)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, Wrap(op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `UPDATE likes SET count = count + 1, updated_at = CURRENT_TIMESTAMP WHERE id = 1`); err != nil {
		return 0, Wrap(op, err)
	}
	var n int64
	if err := tx.QueryRowContext(ctx, `SELECT count FROM likes WHERE id = 1`).Scan(&n); err != nil {
		return 0, Wrap(op, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, Wrap(op, err)
	}
	return n, nil
}

func (s *SQLiteLikeStore) Count(ctx context.Context) (int64, error) {
	const op = "likes.count"
	if s.closed.Load() {
		return 0, Wrap(op, ErrClosed)
	}
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT count FROM likes WHERE id = 1`).Scan(&n); err != nil {
		return 0, Wrap(op, err)
	}
	return n, nil
}

// Close closes the database. Further calls fail with ErrClosed.
func (s *SQLiteLikeStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.db.Close()
}
