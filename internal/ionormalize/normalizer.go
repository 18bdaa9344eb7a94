// Package ionormalize implements the Normalizer interface. It resolves
// staged records into the canonical entity graph, allocates stable keys
// through the key registry, merges attributes from several sources by
// precedence and routes records it cannot map to the unresolved list.
package ionormalize

import (
	"cmp"
	"context"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/lifecycle"
	"github.com/gnames/hktransit/pkg/precedence"
	"github.com/gnames/hktransit/pkg/staged"
	"golang.org/x/sync/errgroup"
)

// Reasons of unresolved records.
const (
	ReasonInvalid        = "invalid_record"
	ReasonUnknownEnum    = "unknown_enum"
	ReasonBadCoordinates = "invalid_coordinates"
	ReasonMissingRoute   = "missing_route"
	ReasonMissingPlace   = "missing_place"
	ReasonMissingParent  = "missing_parent"
	ReasonParentCycle    = "parent_cycle"
	ReasonMissingTrip    = "missing_trip"
	ReasonBadTime        = "invalid_time"
	ReasonBadDate        = "invalid_date"
)

type normalizer struct {
	cfg  *config.Config
	reg  lifecycle.Registry
	prec *precedence.Table
}

// New creates a Normalizer. A nil precedence table ranks sources
// lexically.
func New(
	cfg *config.Config,
	reg lifecycle.Registry,
	prec *precedence.Table,
) lifecycle.Normalizer {
	if prec == nil {
		prec = &precedence.Table{}
	}
	return &normalizer{cfg: cfg, reg: reg, prec: prec}
}

// run keeps the state of one normalization.
type run struct {
	ds   *staged.Dataset
	reg  lifecycle.Registry
	prec *precedence.Table
	g    *graph.Graph

	mu         sync.Mutex
	unresolved []graph.Unresolved
	advisories []findings.Finding

	// operators holds stable ids of operators.
	operators map[string]struct{}
	// places maps place keys to place ids.
	places map[string]int64
	// routes maps route keys to positions in g.Routes.
	routes map[string]int
	// specialType keeps SPECIAL_TYPE of routes by route key.
	specialType map[string]int64
	// patterns maps route id and route_seq to positions in g.Patterns.
	patterns map[routeSeq][]int
	// patternStops counts stops per pattern id.
	patternStops map[int64]int

	stats graph.HeadwayStats
}

type routeSeq struct {
	routeID int64
	seq     int
}

func newRun(
	ds *staged.Dataset,
	reg lifecycle.Registry,
	prec *precedence.Table,
) *run {
	return &run{
		ds:           ds,
		reg:          reg,
		prec:         prec,
		g:            graph.New(),
		operators:    make(map[string]struct{}),
		places:       make(map[string]int64),
		routes:       make(map[string]int),
		specialType:  make(map[string]int64),
		patterns:     make(map[routeSeq][]int),
		patternStops: make(map[int64]int),
	}
}

func (r *run) unresolve(o staged.Origin, table staged.Table, reason, field, value string) {
	u := graph.Unresolved{
		Source: o.Source,
		Table:  string(table),
		Mode:   o.Mode,
		Row:    o.Line,
		Reason: reason,
		Field:  field,
		Value:  value,
	}
	r.mu.Lock()
	r.unresolved = append(r.unresolved, u)
	r.mu.Unlock()
}

func (r *run) advise(f findings.Finding) {
	r.mu.Lock()
	r.advisories = append(r.advisories, f)
	r.mu.Unlock()
}

// allocate binds keys of one kind in the registry.
func (r *run) allocate(kind keys.Kind, kk []keys.Key) error {
	fresh, err := r.reg.AllocateAll(kk)
	if err != nil {
		return err
	}
	slog.Info("Allocated stable keys",
		"kind", kind, "total", len(kk), "fresh", fresh)
	return nil
}

// Normalize resolves the staged dataset into a canonical graph snapshot
// and writes the snapshot, the unresolved records and the headway
// correlation stats to the work directory.
func (n *normalizer) Normalize(
	ctx context.Context,
	ds *staged.Dataset,
) (*graph.Snapshot, error) {
	start := time.Now()
	slog.Info("Starting normalization")

	if len(ds.Routes) == 0 && len(ds.Places) == 0 {
		return nil, EmptyInputError()
	}

	r := newRun(ds, n.reg, n.prec)
	r.invalid()

	// Operators, places, calendars and upstream headway tables do not
	// depend on each other.
	var eg errgroup.Group
	eg.SetLimit(max(n.cfg.JobsNumber, 1))
	eg.Go(r.resolveOperators)
	eg.Go(r.resolvePlaces)
	eg.Go(r.resolveCalendars)
	eg.Go(r.resolveHeadways)
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	steps := []func() error{
		r.resolveRoutes,
		r.resolvePatterns,
		r.resolveFares,
		r.correlateHeadways,
	}
	for _, step := range steps {
		select {
		case <-ctx.Done():
			return nil, CancelledError(ctx.Err())
		default:
		}
		if err := step(); err != nil {
			return nil, err
		}
	}

	snap := r.snapshot()
	if err := n.save(snap); err != nil {
		return nil, err
	}

	counts := snap.Graph.Counts()
	gn.Info(
		"Normalized <em>%s</em> places, <em>%s</em> routes, <em>%s</em> patterns",
		humanize.Comma(int64(counts["places"])),
		humanize.Comma(int64(counts["routes"])),
		humanize.Comma(int64(counts["route_patterns"])),
	)
	if l := len(snap.Unresolved); l > 0 {
		gn.Warn("%s staged records are unresolved", humanize.Comma(int64(l)))
	}
	slog.Info("Normalization complete",
		"unresolved", len(snap.Unresolved),
		"advisories", len(snap.Advisories),
		"duration", gnfmt.TimeString(time.Since(start).Seconds()),
	)
	return snap, nil
}

// invalid routes records rejected by the staged reader.
func (r *run) invalid() {
	for _, v := range r.ds.Invalid {
		r.unresolve(v.Origin, v.Table, ReasonInvalid, v.Field, v.Value)
	}
}

func (r *run) snapshot() *graph.Snapshot {
	r.g.Sort()
	findings.Sort(r.advisories)
	slices.SortFunc(r.unresolved, compareUnresolved)
	return &graph.Snapshot{
		Graph:        r.g,
		Advisories:   r.advisories,
		HeadwayStats: r.stats,
		Unresolved:   r.unresolved,
	}
}

func compareUnresolved(a, b graph.Unresolved) int {
	return cmp.Or(
		cmp.Compare(a.Source, b.Source),
		cmp.Compare(a.Table, b.Table),
		cmp.Compare(a.Mode, b.Mode),
		cmp.Compare(a.Row, b.Row),
		cmp.Compare(a.Reason, b.Reason),
		cmp.Compare(a.Field, b.Field),
	)
}

func (n *normalizer) save(snap *graph.Snapshot) error {
	dir := n.cfg.StageDir()
	if err := iofs.EnsureDir(dir); err != nil {
		return err
	}

	path := filepath.Join(dir, config.SnapshotFile)
	data, err := snap.Encode()
	if err != nil {
		return SnapshotError(path, err)
	}
	if err = iofs.WriteFile(path, data); err != nil {
		return err
	}

	unresolved := snap.Unresolved
	if unresolved == nil {
		unresolved = []graph.Unresolved{}
	}
	err = iofs.WriteJSON(filepath.Join(dir, config.UnresolvedFile), unresolved)
	if err != nil {
		return err
	}

	return iofs.WriteJSON(
		filepath.Join(dir, config.HeadwayStatsFile), snap.HeadwayStats,
	)
}

// Load reads the snapshot written by the last Normalize.
func Load(cfg *config.Config) (*graph.Snapshot, error) {
	path := filepath.Join(cfg.StageDir(), config.SnapshotFile)
	data, err := iofs.ReadFile(path)
	if err != nil {
		return nil, SnapshotError(path, err)
	}
	res, err := graph.DecodeSnapshot(data)
	if err != nil {
		return nil, SnapshotError(path, err)
	}
	return res, nil
}

// surrogate assigns 1-based ids in stable key order.
func surrogate(kk []string) map[string]int64 {
	sorted := slices.Clone(kk)
	slices.Sort(sorted)
	res := make(map[string]int64, len(sorted))
	for i, k := range sorted {
		res[k] = int64(i + 1)
	}
	return res
}
