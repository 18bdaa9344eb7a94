// Package db defines the contract of the PostgreSQL mirror database.
package db

import (
	"context"

	"github.com/gnames/hktransit/pkg/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Operator manages a connection pool to the mirror database. The mirror
// is a read-only copy of the truth database for ad-hoc analysis with
// PostgreSQL tools.
type Operator interface {
	// Connect establishes a connection pool to the database.
	Connect(context.Context, *config.DatabaseConfig) error

	// Close closes the database connection pool.
	Close() error

	// Pool returns the underlying pgxpool.Pool. The mirror uses it for
	// transactions and CopyFrom.
	Pool() *pgxpool.Pool

	// TableExists checks if a table exists in the public schema.
	TableExists(ctx context.Context, tableName string) (bool, error)

	// HasTables checks if the database has any tables in the public schema.
	HasTables(ctx context.Context) (bool, error)

	// DropTables drops given tables if they exist.
	DropTables(ctx context.Context, tables ...string) error

	// DropAllTables drops all tables in the public schema.
	DropAllTables(ctx context.Context) error
}
