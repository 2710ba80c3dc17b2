// Package postgres implements the notify and arns stores on PostgreSQL
// through pgx. Schema lives in the embedded goose migrations.
package postgres

import (
	"context"
	"embed"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Migrations holds the schema. Pass it to pg.Migrate with MigrationsPath
// set to "migrations".
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations.
const MigrationsDir = "migrations"

// DB is the subset of *pgxpool.Pool the store uses. A pgx.Tx satisfies it
// as well.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Storage implements notify.Store and arns.Store.
type Storage struct {
	db DB
}

func New(db DB) *Storage {
	return &Storage{db: db}
}
