// Package store opens the client database, applies migrations, and hands out
// repositories to the rest of the client.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/moodlog-app/moodlog/internal/client/migrations"
	"github.com/moodlog-app/moodlog/internal/client/repositories/attachments"
	"github.com/moodlog-app/moodlog/internal/client/repositories/entries"
	"github.com/moodlog-app/moodlog/internal/dbx"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

// Store bundles the open database with its repositories.
type Store struct {
	db          *sql.DB
	Entries     entries.Repository
	Attachments attachments.Repository
}

// Open opens (or creates) the SQLite database at dsn and brings its schema
// up to date.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Store{
		db:          db,
		Entries:     entries.NewSQLiteRepository(db),
		Attachments: attachments.NewSQLiteRepository(db),
	}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// DB exposes the raw handle for transaction scoping via dbx.WithTx.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn against repositories bound to a single transaction, so a
// multi-row capture either lands completely or not at all.
func (s *Store) WithTx(ctx context.Context, fn func(e entries.Repository, a attachments.Repository) error) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(entries.NewSQLiteRepository(tx), attachments.NewSQLiteRepository(tx))
	})
}

func (s *Store) Close() error {
	return s.db.Close()
}
