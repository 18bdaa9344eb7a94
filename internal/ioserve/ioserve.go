// Package ioserve implements the Compiler interface. It projects the
// committed truth database into the serving database app.sqlite and
// provides the fixed query surface over it.
package ioserve

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/iocommit"
	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/internal/ioschema"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/lifecycle"
	"github.com/gnames/hktransit/pkg/schema"
)

// tables that must never reach the serving database.
var forbidden = []string{"fare_rules", "fare_amounts"}

type compiler struct {
	cfg *config.Config
}

// New creates a Compiler.
func New(cfg *config.Config) lifecycle.Compiler {
	return &compiler{cfg: cfg}
}

// Serve reads transport.sqlite, writes its projection to a temporary
// database, optimizes and verifies it, and renames it over app.sqlite.
func (c *compiler) Serve(ctx context.Context) (string, error) {
	start := time.Now()
	src := filepath.Join(c.cfg.OutputDir, config.TruthDBFile)
	dst := filepath.Join(c.cfg.OutputDir, config.AppDBFile)

	if err := iofs.EnsureDir(c.cfg.OutputDir); err != nil {
		return "", err
	}

	g, meta, err := iocommit.Load(ctx, src)
	if err != nil {
		return "", BuildError("load", err)
	}

	// The truth database decides which headway tables exist.
	mode := config.HeadwayMode(meta.HeadwayMode)
	if mode == "" {
		mode = c.cfg.HeadwayMode
	}
	if meta.BundleVersion == "" {
		meta.BundleVersion = c.cfg.Serve.BundleVersion
	}

	prev, err := previousOperators(ctx, dst)
	if err != nil {
		return "", BuildError("operators", err)
	}

	proj, err := Project(g, meta, mode, prev)
	if err != nil {
		return "", BuildError("project", err)
	}
	tables := schema.FilterTables(schema.ServingTables(), mode)

	w, err := ioschema.Create(dst)
	if err != nil {
		return "", err
	}
	steps := []func() error{
		func() error { return w.CreateTables(ctx, tables) },
		func() error { return w.InsertAll(ctx, tables, proj.Rows) },
		func() error { return w.CreateIndexes(ctx, tables) },
		func() error { return w.Exec(ctx, "ANALYZE", "PRAGMA optimize", "VACUUM") },
		func() error { return verify(ctx, w, tables, proj) },
	}
	for _, step := range steps {
		if err = step(); err != nil {
			w.Abort()
			return "", err
		}
	}
	if err = w.Finish(ctx); err != nil {
		return "", err
	}

	gn.Info("Serving database has <em>%s</em> search documents and <em>%s</em> fare segments",
		humanize.Comma(int64(len(proj.SearchDocs))),
		humanize.Comma(int64(len(proj.FareSegments))),
	)
	slog.Info("Serve complete",
		"path", dst,
		"build_id", proj.Meta.BuildID,
		"headway_mode", mode,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return dst, nil
}

// previousOperators reads operator ids published by the current serving
// database. It returns nil when there is no database yet.
func previousOperators(ctx context.Context, path string) (map[string]int, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	db, err := ioschema.Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var codes string
	q := "SELECT enum_codes FROM meta WHERE meta_id = 1"
	err = db.QueryRowContext(ctx, q).Scan(&codes)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, ioschema.ReadError("meta", err)
	}
	if codes != "" {
		var enums map[string]map[string]int
		enc := gnfmt.GNjson{}
		if err = enc.Decode([]byte(codes), &enums); err != nil {
			return nil, err
		}
		if res, ok := enums[OperatorEnum]; ok {
			return res, nil
		}
	}

	// databases without the operator enum still carry their operators
	oo, err := ioschema.Read[schema.AppOperator](ctx, db)
	if err != nil {
		return nil, err
	}
	res := make(map[string]int, len(oo))
	for _, o := range oo {
		res[o.OperatorCode] = int(o.OperatorID)
	}
	return res, nil
}

// verify compares row counts with the projection, runs integrity checks
// and makes sure raw fare tables were not copied.
func verify(
	ctx context.Context,
	w *ioschema.Writer,
	tables []schema.DDLGenerator,
	proj *Projection,
) error {
	var problems []string
	for _, t := range tables {
		name := t.TableName()
		// contentless FTS5 tables do not support count(*) of content
		if name == "search_fts" {
			continue
		}
		n, err := ioschema.Count(ctx, w.DB(), name)
		if err != nil {
			return err
		}
		if exp := len(proj.Rows(name)); n != exp {
			problems = append(problems, name+" has "+humanize.Comma(int64(n))+
				" rows, expected "+humanize.Comma(int64(exp)))
		}
	}

	pp, err := ioschema.Check(ctx, w.DB())
	if err != nil {
		return err
	}
	problems = append(problems, pp...)

	tt, err := ioschema.Tables(ctx, w.DB())
	if err != nil {
		return err
	}
	for _, name := range forbidden {
		if _, ok := tt[name]; ok {
			problems = append(problems, "serving database contains "+name)
		}
	}

	if len(problems) > 0 {
		return VerifyError(problems)
	}
	return nil
}
