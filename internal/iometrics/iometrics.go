// Package iometrics exports pipeline statistics in the Prometheus text
// format. Every run rewrites output_dir/metrics.prom with what is known
// about the current artifacts and the stages that ran.
package iometrics

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/internal/ioschema"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hktransit"

// Metrics keeps gauges of one pipeline run in a dedicated registry.
type Metrics struct {
	reg *prometheus.Registry

	rows       *prometheus.GaugeVec
	artifacts  *prometheus.GaugeVec
	findings   *prometheus.GaugeVec
	unresolved prometheus.Gauge
	headways   *prometheus.GaugeVec
	duration   *prometheus.GaugeVec
}

// New creates a Metrics instance with all collectors registered.
func New() *Metrics {
	res := Metrics{
		reg: prometheus.NewRegistry(),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "table_rows",
			Help: "Rows per table of a database artifact.",
		}, []string{"db", "table"}),
		artifacts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "artifact_bytes",
			Help: "Size of a database artifact in bytes.",
		}, []string{"db"}),
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "findings",
			Help: "Validation findings by class and severity.",
		}, []string{"class", "severity"}),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "unresolved_rows",
			Help: "Staged rows that did not resolve to canonical entities.",
		}),
		headways: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "headway_correlation",
			Help: "Outcomes of correlating upstream frequencies to patterns.",
		}, []string{"outcome"}),
		duration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help: "Wall time of a pipeline stage.",
		}, []string{"stage"}),
	}
	res.reg.MustRegister(
		res.rows, res.artifacts, res.findings,
		res.unresolved, res.headways, res.duration,
	)
	return &res
}

// Registry gives access to the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.duration.WithLabelValues(stage).Set(d.Seconds())
}

// ObserveReport records findings counts of a validation report.
func (m *Metrics) ObserveReport(rep *findings.Report) {
	if rep == nil {
		return
	}
	m.findings.Reset()
	for _, cl := range findings.Classes() {
		for _, sev := range []findings.Severity{findings.Fatal, findings.Warning} {
			m.findings.WithLabelValues(string(cl), string(sev)).Set(0)
		}
	}
	for _, f := range rep.Findings {
		m.findings.WithLabelValues(string(f.Class), string(f.Severity)).Inc()
	}
}

// ObserveUnresolved records the size of the unresolved side channel.
func (m *Metrics) ObserveUnresolved(uu []graph.Unresolved) {
	m.unresolved.Set(float64(len(uu)))
}

// ObserveHeadways records headway correlation outcomes.
func (m *Metrics) ObserveHeadways(hs graph.HeadwayStats) {
	m.headways.WithLabelValues("inserted").Set(float64(hs.Inserted))
	m.headways.WithLabelValues("missing_route").Set(float64(hs.MissingRoute))
	m.headways.WithLabelValues("ambiguous_route").Set(float64(hs.AmbiguousRoute))
	m.headways.WithLabelValues("missing_route_seq").Set(float64(hs.MissingRouteSeq))
	m.headways.WithLabelValues("missing_pattern").Set(float64(hs.MissingPattern))
}

// CollectDB records row counts of every table and the file size of a
// database artifact. A missing artifact is skipped.
func (m *Metrics) CollectDB(ctx context.Context, name, path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	m.artifacts.WithLabelValues(name).Set(float64(info.Size()))

	db, err := ioschema.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := ioschema.Tables(ctx, db)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tables))
	for t := range tables {
		// search_fts and its FTS5 shadow tables
		if strings.HasPrefix(t, "search_fts") {
			continue
		}
		names = append(names, t)
	}
	slices.Sort(names)

	for _, t := range names {
		n, err := ioschema.Count(ctx, db, t)
		if err != nil {
			return err
		}
		m.rows.WithLabelValues(name, t).Set(float64(n))
	}
	return nil
}

// Collect gathers everything the workspace knows about the last run:
// both artifacts, the validation report, unresolved rows and headway
// correlation statistics. Missing files are skipped.
func (m *Metrics) Collect(ctx context.Context, cfg *config.Config) error {
	dbs := []struct{ name, file string }{
		{"transport", config.TruthDBFile},
		{"app", config.AppDBFile},
	}
	for _, v := range dbs {
		err := m.CollectDB(ctx, v.name, filepath.Join(cfg.OutputDir, v.file))
		if err != nil {
			return err
		}
	}

	dir := cfg.StageDir()
	var rep findings.Report
	if ok, err := readJSON(filepath.Join(dir, config.ValidationFile), &rep); err != nil {
		return err
	} else if ok {
		m.ObserveReport(&rep)
	}

	var uu []graph.Unresolved
	if ok, err := readJSON(filepath.Join(dir, config.UnresolvedFile), &uu); err != nil {
		return err
	} else if ok {
		m.ObserveUnresolved(uu)
	}

	var hs graph.HeadwayStats
	if ok, err := readJSON(filepath.Join(dir, config.HeadwayStatsFile), &hs); err != nil {
		return err
	} else if ok {
		m.ObserveHeadways(hs)
	}
	return nil
}

func readJSON(path string, v any) (bool, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := iofs.ReadJSON(path, v); err != nil {
		return false, err
	}
	return true, nil
}

// Write saves metrics to output_dir/metrics.prom.
func (m *Metrics) Write(dir string) (string, error) {
	if err := iofs.EnsureDir(dir); err != nil {
		return "", err
	}
	path := filepath.Join(dir, config.MetricsFile)
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return "", WriteError(path, err)
	}
	slog.Info("Metrics written", "path", path)
	return path, nil
}
