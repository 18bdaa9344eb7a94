// Package iocommit implements the Assembler interface. It writes the
// canonical graph into the truth database transport.sqlite and reads it
// back for the serving stage.
package iocommit

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/internal/ioschema"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/lifecycle"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/google/uuid"
)

type assembler struct {
	cfg *config.Config
}

// New creates an Assembler.
func New(cfg *config.Config) lifecycle.Assembler {
	return &assembler{cfg: cfg}
}

// Commit writes the graph into a temporary database, verifies it and
// renames it over transport.sqlite. Tables dropped by the headway mode
// are not created.
func (a *assembler) Commit(
	ctx context.Context,
	snap *graph.Snapshot,
	rep *findings.Report,
) (string, error) {
	if rep != nil && rep.HasFatal() {
		return "", BlockedError(rep.Fatal)
	}
	start := time.Now()
	g := snap.Graph

	if err := iofs.EnsureDir(a.cfg.OutputDir); err != nil {
		return "", err
	}
	dst := filepath.Join(a.cfg.OutputDir, config.TruthDBFile)
	tables := schema.FilterTables(schema.CanonicalTables(), a.cfg.HeadwayMode)

	meta, err := a.meta(g, rep)
	if err != nil {
		return "", err
	}
	rows := func(table string) []any {
		if table == "meta" {
			return []any{meta}
		}
		return g.Rows(table)
	}

	w, err := ioschema.Create(dst)
	if err != nil {
		return "", err
	}
	steps := []func() error{
		func() error { return w.CreateTables(ctx, tables) },
		func() error { return w.InsertAll(ctx, tables, rows) },
		func() error { return w.CreateIndexes(ctx, tables) },
		func() error { return verify(ctx, w, tables, rows) },
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

	gn.Info("Committed <em>%s</em> routes and <em>%s</em> places to %s",
		humanize.Comma(int64(len(g.Routes))),
		humanize.Comma(int64(len(g.Places))),
		dst,
	)
	slog.Info("Commit complete",
		"path", dst,
		"build_id", meta.BuildID,
		"headway_mode", a.cfg.HeadwayMode,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return dst, nil
}

func (a *assembler) meta(g *graph.Graph, rep *findings.Report) (schema.Meta, error) {
	notes := []findings.Finding{}
	if rep != nil {
		if nn := rep.Notes(a.cfg.Validate.SampleLimit); nn != nil {
			notes = nn
		}
	}
	enc := gnfmt.GNjson{}
	data, err := enc.Encode(notes)
	if err != nil {
		return schema.Meta{}, fmt.Errorf("cannot encode notes: %w", err)
	}
	return schema.Meta{
		MetaID:        1,
		SchemaVersion: config.SchemaVersion,
		BundleVersion: a.cfg.Serve.BundleVersion,
		BuildID:       g.BuildID(),
		RunID:         uuid.NewString(),
		GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
		HeadwayMode:   string(a.cfg.HeadwayMode),
		Notes:         string(data),
	}, nil
}

// verify compares row counts with the graph, runs integrity and foreign
// key checks and checks contiguity of pattern stop sequences.
func verify(
	ctx context.Context,
	w *ioschema.Writer,
	tables []schema.DDLGenerator,
	rows func(string) []any,
) error {
	var problems []string
	for _, t := range tables {
		name := t.TableName()
		n, err := ioschema.Count(ctx, w.DB(), name)
		if err != nil {
			return err
		}
		if exp := len(rows(name)); n != exp {
			problems = append(problems,
				fmt.Sprintf("%s has %d rows, expected %d", name, n, exp))
		}
	}

	pp, err := ioschema.Check(ctx, w.DB())
	if err != nil {
		return err
	}
	problems = append(problems, pp...)

	q := `
SELECT p.pattern_key
  FROM route_patterns p
    JOIN pattern_stops s ON s.pattern_id = p.pattern_id
  WHERE p.sequence_incomplete = 0
  GROUP BY p.pattern_id
  HAVING min(s.seq) <> 1 OR max(s.seq) <> count(*)`
	rr, err := w.DB().QueryContext(ctx, q)
	if err != nil {
		return ioschema.ReadError("pattern_stops", err)
	}
	defer rr.Close()
	for rr.Next() {
		var key string
		if err = rr.Scan(&key); err != nil {
			return ioschema.ReadError("pattern_stops", err)
		}
		problems = append(problems, "pattern stops are not contiguous: "+key)
	}
	if err = rr.Err(); err != nil {
		return ioschema.ReadError("pattern_stops", err)
	}

	if len(problems) > 0 {
		return VerifyError(problems)
	}
	return nil
}
