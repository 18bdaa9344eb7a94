// Package iotesting provides shared utilities for integration tests.
package iotesting

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gnames/hktransit/internal/iodb"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/jackc/pgx/v5"
)

// TestDatabaseName is the mirror database used by integration tests, so
// tests never touch a real mirror.
const TestDatabaseName = "hktransit_test"

// MirrorConfig returns mirror settings for integration tests. Defaults
// can be changed with HKTRANSIT_MIRROR_* environment variables, the
// database name is always TestDatabaseName.
//
// The test is skipped in short mode or when PostgreSQL is not reachable.
func MirrorConfig(t *testing.T) *config.DatabaseConfig {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	cfg := config.New().Mirror
	if v := os.Getenv("HKTRANSIT_MIRROR_HOST"); v != "" {
		cfg.Host = v
	}
	if v := os.Getenv("HKTRANSIT_MIRROR_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
		}
	}
	if v := os.Getenv("HKTRANSIT_MIRROR_USER"); v != "" {
		cfg.User = v
	}
	if v := os.Getenv("HKTRANSIT_MIRROR_PASSWORD"); v != "" {
		cfg.Password = v
	}
	cfg.Database = TestDatabaseName

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	connCfg, err := pgx.ParseConfig(iodb.DSN(&cfg))
	if err != nil {
		t.Skipf("Skipping integration test: %v", err)
	}
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		t.Skipf("Skipping integration test, PostgreSQL is not reachable: %v", err)
	}
	conn.Close(ctx)
	return &cfg
}
