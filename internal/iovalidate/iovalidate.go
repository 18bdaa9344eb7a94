// Package iovalidate implements the Validator interface. It runs the
// schema, uniqueness, referential and cross-consistency checks over a
// frozen canonical graph and writes validation.json.
package iovalidate

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/lifecycle"
	"golang.org/x/sync/errgroup"
)

// errFailFast stops remaining checks after a fatal finding.
var errFailFast = errors.New("fatal finding with fail_fast")

type validator struct {
	cfg *config.Config
}

// New creates a Validator.
func New(cfg *config.Config) lifecycle.Validator {
	return &validator{cfg: cfg}
}

// checkFunc runs checks of one class. It should return early when ctx is
// cancelled.
type checkFunc func(ctx context.Context, c *checker)

// Validate runs the four check classes in parallel, adds advisories of
// Normalize and saves the ordered report. When the report has fatal
// findings the returned error is a BlockingError.
func (v *validator) Validate(
	ctx context.Context,
	snap *graph.Snapshot,
) (*findings.Report, error) {
	if snap == nil || snap.Graph == nil {
		return nil, SnapshotError()
	}
	start := time.Now()
	slog.Info("Starting validation")

	// tables dropped by the headway mode never reach the artifacts
	g := snap.Graph.WithHeadwayMode(v.cfg.HeadwayMode)
	d := newData(g, v.cfg.Validate)
	classes := []struct {
		class findings.Class
		check checkFunc
	}{
		{findings.Schema, d.schema},
		{findings.Uniqueness, d.uniqueness},
		{findings.Referential, d.referential},
		{findings.CrossConsistency, d.crossConsistency},
	}

	var mu sync.Mutex
	var all []findings.Finding

	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(max(v.cfg.JobsNumber, 1))
	for _, cl := range classes {
		eg.Go(func() error {
			c := &checker{class: cl.class}
			cl.check(gctx, c)

			mu.Lock()
			all = append(all, c.ff...)
			mu.Unlock()

			slog.Debug("Check class done",
				"class", cl.class, "findings", len(c.ff))
			if v.cfg.Validate.FailFast && c.hasFatal() {
				return errFailFast
			}
			return gctx.Err()
		})
	}
	err := eg.Wait()
	if err != nil && !errors.Is(err, errFailFast) {
		return nil, err
	}

	if n := len(snap.Unresolved); n > 0 {
		c := &checker{class: findings.CrossConsistency}
		c.warn(CodeUnresolved, "unresolved", "", "count", "0", humanize.Comma(int64(n)))
		all = append(all, c.ff...)
	}
	all = append(all, snap.Advisories...)

	rep := findings.NewReport(all)
	if err = v.save(rep); err != nil {
		return nil, err
	}

	slog.Info("Validation complete",
		"fatal", rep.Fatal,
		"warnings", rep.Warnings,
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	if rep.HasFatal() {
		return rep, NewBlockingError(rep, v.cfg.Validate.SampleLimit)
	}
	gn.Info("Validation passed with <em>%s</em> warnings",
		humanize.Comma(int64(rep.Warnings)))
	return rep, nil
}

func (v *validator) save(rep *findings.Report) error {
	dir := v.cfg.StageDir()
	if err := iofs.EnsureDir(dir); err != nil {
		return err
	}
	path := filepath.Join(dir, config.ValidationFile)
	if err := iofs.WriteJSON(path, rep); err != nil {
		return ReportError(path, err)
	}
	return nil
}

// Load reads the report written by the last Validate.
func Load(cfg *config.Config) (*findings.Report, error) {
	path := filepath.Join(cfg.StageDir(), config.ValidationFile)
	var res findings.Report
	if err := iofs.ReadJSON(path, &res); err != nil {
		return nil, ReportError(path, err)
	}
	return &res, nil
}
