// Package sqlite implements store.Store on an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	msqlite "modernc.org/sqlite"

	"github.com/zettelapp/zettel-server/internal/auth"
	"github.com/zettelapp/zettel-server/internal/store"
)

//go:embed schema.sql
var schemaSQL string

func init() {
	// casefold(x) is the Unicode simple case fold of x. SQLite's own LOWER
	// only folds ASCII, which is useless for Cyrillic note titles.
	msqlite.MustRegisterDeterministicScalarFunction("casefold", 1,
		func(_ *msqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			switch v := args[0].(type) {
			case nil:
				return nil, nil
			case string:
				return cases.Fold().String(v), nil
			case []byte:
				return cases.Fold().String(string(v)), nil
			default:
				return v, nil
			}
		})
}

// Store provides SQLite-backed persistence for notes, tags and users.
//
// Every method runs in its own transaction. Use InTx to run several
// operations as one unit of work.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
	hasher store.PasswordHasher
}

var _ store.Store = (*Store)(nil)

// dsn enables the pragmas on every pooled connection and makes write
// transactions take the database write lock at BEGIN, so concurrent note
// creation for one user is serialized.
func dsn(path string) string {
	return "file:" + path +
		"?_pragma=foreign_keys(1)" +
		"&_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_txlock=immediate"
}

// Open creates a new SQLite store at the given path and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Store{
		db:     db,
		logger: logger,
		hasher: auth.NewArgon2Hasher(auth.DefaultArgon2Params),
	}, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetPasswordHasher replaces the password hasher used by AddUser and
// AuthenticateUser.
func (s *Store) SetPasswordHasher(h store.PasswordHasher) {
	s.hasher = h
}

// InTx runs fn in a single write transaction. The transaction commits only
// if fn returns nil; otherwise nothing fn did is persisted.
func (s *Store) InTx(ctx context.Context, fn func(nb store.Notebook) error) error {
	return s.update(ctx, func(tx *Tx) error { return fn(tx) })
}

// update runs fn in a write transaction.
func (s *Store) update(ctx context.Context, fn func(tx *Tx) error) error {
	return s.run(ctx, nil, fn)
}

// view runs fn in a read-only transaction. Read-only transactions do not
// take the write lock, so they never wait for writers.
func (s *Store) view(ctx context.Context, fn func(tx *Tx) error) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (s *Store) run(ctx context.Context, opts *sql.TxOptions, fn func(tx *Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return store.ErrTransaction.WithCause(fmt.Errorf("begin tx: %w", err))
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx, logger: s.logger, hasher: s.hasher}); err != nil {
		var serr *store.Error
		if errors.As(err, &serr) {
			return err
		}
		return store.ErrTransaction.WithCause(err)
	}

	if err := sqlTx.Commit(); err != nil {
		return store.ErrTransaction.WithCause(fmt.Errorf("commit: %w", err))
	}
	return nil
}

// updateResult is update for operations that return a value.
func updateResult[T any](ctx context.Context, s *Store, fn func(tx *Tx) (T, error)) (T, error) {
	var out T
	err := s.update(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

// viewResult is view for operations that return a value.
func viewResult[T any](ctx context.Context, s *Store, fn func(tx *Tx) (T, error)) (T, error) {
	var out T
	err := s.view(ctx, func(tx *Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	return out, err
}

// lookup runs a read that may find nothing.
func lookup[T any](ctx context.Context, s *Store, fn func(tx *Tx) (T, bool, error)) (T, bool, error) {
	var (
		out   T
		found bool
	)
	err := s.view(ctx, func(tx *Tx) error {
		var err error
		out, found, err = fn(tx)
		return err
	})
	return out, found, err
}

// Tx is a unit of work: every method runs on the same transaction, which
// the Store that created it commits or rolls back.
type Tx struct {
	tx     *sql.Tx
	logger *slog.Logger
	hasher store.PasswordHasher
}

var _ store.Notebook = (*Tx)(nil)

// InTx runs fn on the current transaction.
func (t *Tx) InTx(_ context.Context, fn func(nb store.Notebook) error) error {
	return fn(t)
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseNullableTime parses an optional time string.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
