// Package iomirror copies the committed truth database into PostgreSQL,
// so it can be explored with the usual PostgreSQL tooling. The mirror is
// rebuilt from scratch on every run.
package iomirror

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/iocommit"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/db"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/jackc/pgx/v5"
)

// Mirror copies transport.sqlite into a PostgreSQL database.
type Mirror struct {
	// Clean drops every table of the public schema before copying. It
	// removes tables left by an earlier run with a wider headway mode.
	Clean bool

	cfg *config.Config
	op  db.Operator
}

// New creates a Mirror. The operator has to be connected.
func New(cfg *config.Config, op db.Operator) *Mirror {
	return &Mirror{cfg: cfg, op: op}
}

// Run recreates every table of the truth database in the mirror and
// returns the number of copied rows per table.
func (m *Mirror) Run(ctx context.Context) (map[string]int, error) {
	start := time.Now()
	path := filepath.Join(m.cfg.OutputDir, config.TruthDBFile)
	g, meta, err := iocommit.Load(ctx, path)
	if err != nil {
		return nil, err
	}

	mode := config.HeadwayMode(meta.HeadwayMode)
	tables := schema.FilterTables(schema.CanonicalTables(), mode)
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.TableName()
	}
	if m.Clean {
		if err = m.clean(ctx); err != nil {
			return nil, err
		}
	}

	exists, err := m.op.TableExists(ctx, "meta")
	if err != nil {
		return nil, err
	}
	if exists {
		gn.Info("Replacing previous mirror in <em>%s</em>", m.cfg.Mirror.Database)
	}
	if err = m.op.DropTables(ctx, names...); err != nil {
		return nil, err
	}

	res := make(map[string]int, len(tables))
	var total int
	for _, t := range tables {
		rows := g.Rows(t.TableName())
		if t.TableName() == "meta" {
			rows = []any{*meta}
		}
		n, err := m.copyTable(ctx, t, rows)
		if err != nil {
			return nil, err
		}
		res[t.TableName()] = n
		total += n
	}

	gn.Info("Mirrored <em>%s</em> rows of <em>%d</em> tables to %s/%s",
		humanize.Comma(int64(total)), len(tables),
		m.cfg.Mirror.Host, m.cfg.Mirror.Database,
	)
	slog.Info("Mirror complete",
		"database", m.cfg.Mirror.Database,
		"rows", total,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return res, nil
}

func (m *Mirror) copyTable(
	ctx context.Context,
	t schema.DDLGenerator,
	rows []any,
) (int, error) {
	name := t.TableName()
	pool := m.op.Pool()
	if _, err := pool.Exec(ctx, CreateTableSQL(t)); err != nil {
		return 0, CopyError(name, err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	batchSize := m.cfg.Mirror.BatchSize
	if batchSize <= 0 {
		batchSize = 50_000
	}
	columns := schema.Columns(t)

	bar := pb.Full.Start(len(rows))
	bar.Set("prefix", fmt.Sprintf("%-20s", name))
	bar.Set(pb.CleanOnFinish, true)
	defer bar.Finish()

	var total int
	for i := 0; i < len(rows); i += batchSize {
		end := min(i+batchSize, len(rows))
		batch := make([][]any, 0, end-i)
		for _, row := range rows[i:end] {
			batch = append(batch, Values(row))
		}

		copyCount, err := pool.CopyFrom(
			ctx,
			pgx.Identifier{name},
			columns,
			pgx.CopyFromRows(batch),
		)
		if err != nil {
			return 0, CopyError(name, err)
		}
		total += int(copyCount)
		bar.Add(len(batch))
	}
	slog.Debug("Mirrored table", "table", name, "rows", total)
	return total, nil
}

func (m *Mirror) clean(ctx context.Context) error {
	has, err := m.op.HasTables(ctx)
	if err != nil || !has {
		return err
	}
	gn.Info("Dropping all tables of <em>%s</em>", m.cfg.Mirror.Database)
	return m.op.DropAllTables(ctx)
}

// CreateTableSQL translates a model into a PostgreSQL CREATE TABLE
// statement. Only column types are kept, the mirror does not enforce
// constraints of the truth database.
func CreateTableSQL(t schema.DDLGenerator) string {
	cols := schema.Columns(t)
	vals := schema.Values(t)
	defs := make([]string, len(cols))
	for i := range cols {
		defs[i] = fmt.Sprintf("%s %s",
			pgx.Identifier{cols[i]}.Sanitize(), pgType(vals[i]))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)",
		pgx.Identifier{t.TableName()}.Sanitize(), strings.Join(defs, ",\n  "))
}

func pgType(v any) string {
	switch v.(type) {
	case bool:
		return "BOOLEAN"
	case int, int64, sql.NullInt64:
		return "BIGINT"
	case float64, sql.NullFloat64:
		return "DOUBLE PRECISION"
	default:
		return "TEXT"
	}
}

// Values converts a model row into values accepted by CopyFrom. Null
// wrappers become nil.
func Values(row any) []any {
	res := schema.Values(row)
	for i, v := range res {
		switch n := v.(type) {
		case sql.NullString:
			res[i] = nullable(n.String, n.Valid)
		case sql.NullInt64:
			res[i] = nullable(n.Int64, n.Valid)
		case sql.NullFloat64:
			res[i] = nullable(n.Float64, n.Valid)
		case int:
			res[i] = int64(n)
		}
	}
	return res
}

func nullable[T any](v T, valid bool) any {
	if !valid {
		return nil
	}
	return v
}
