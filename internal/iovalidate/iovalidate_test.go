package iovalidate_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/gnames/hktransit/internal/iovalidate"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const opID = "td:operator:KMB"

func id(i int64) sql.NullInt64 {
	return sql.NullInt64{Int64: i, Valid: true}
}

// validGraph has one route with one three-stop pattern, a fare and a
// headway band.
func validGraph() *graph.Graph {
	place := func(i int64, key string) schema.Place {
		return schema.Place{
			PlaceID: i, PlaceKey: key, PlaceType: "stop", PrimaryMode: "bus",
			IsActive: true,
		}
	}
	return &graph.Graph{
		Operators: []schema.Operator{
			{OperatorID: opID, OperatorCode: "KMB", IsActive: true},
		},
		Places: []schema.Place{
			place(1, "td:bus:1001"), place(2, "td:bus:1002"), place(3, "td:bus:1003"),
		},
		Routes: []schema.Route{
			{RouteID: 1, RouteKey: "td:bus:1", UpstreamRouteID: "1", Mode: "bus",
				OperatorID: opID, IsActive: true},
		},
		Patterns: []schema.RoutePattern{
			{PatternID: 1, PatternKey: "td:bus:1:1:aaaa", RouteID: 1, RouteSeq: 1,
				DirectionID: 1, ServiceType: "regular", IsActive: true},
		},
		PatternStops: []schema.PatternStop{
			{PatternID: 1, Seq: 1, PlaceID: 1},
			{PatternID: 1, Seq: 2, PlaceID: 2},
			{PatternID: 1, Seq: 3, PlaceID: 3},
		},
		FareProducts: []schema.FareProduct{
			{FareProductID: 1, ProductKey: "hk:fare_product:bus:default", Mode: "bus",
				Currency: "HKD", IsActive: true},
		},
		FareRules: []schema.FareRule{
			{FareRuleID: 1, RuleKey: "td:fare_rule:bus:1", OperatorID: opID, Mode: "bus",
				RouteID: id(1), PatternID: id(1), RouteSeq: id(1),
				OriginSeq: id(1), DestinationSeq: id(3), FareType: "section",
				Currency: "HKD", IsActive: true},
		},
		FareAmounts: []schema.FareAmount{
			{FareRuleID: 1, FareProductID: 1, AmountCents: 450, IsDefault: true},
		},
		Calendars: []schema.ServiceCalendar{
			{ServiceID: "WD", DaysMask: 31, StartDate: "20250101", EndDate: "20251231"},
		},
		Trips: []schema.HeadwayTrip{
			{TripID: "1_1_WD_0600", UpstreamRouteID: "1", RouteSeq: 1, ServiceID: "WD"},
		},
		Frequencies: []schema.HeadwayFrequency{
			{UpstreamRouteID: "1", RouteSeq: 1, ServiceID: "WD", StartTime: "06:00:00",
				EndTime: "09:00:00", HeadwaySecs: 600, SampleTripID: "1_1_WD_0600"},
		},
		PatternHeadways: []schema.PatternHeadway{
			{PatternID: 1, ServiceID: "WD", StartTime: "06:00:00",
				EndTime: "09:00:00", HeadwaySecs: 600},
		},
		RouteMappings: []schema.RouteMapping{
			{Source: "td_routes_fares", Mode: "bus", UpstreamID: "1", StableKey: "td:bus:1"},
		},
	}
}

func testConfig(t *testing.T, opts ...config.Option) *config.Config {
	cfg := config.New()
	opts = append(opts, config.OptWorkDir(t.TempDir()), config.OptJobsNumber(2))
	cfg.Update(opts)
	return cfg
}

func hasCode(rep *findings.Report, code string, sev findings.Severity) bool {
	for _, f := range rep.Findings {
		if f.Code == code && f.Severity == sev {
			return true
		}
	}
	return false
}

func TestValidateClean(t *testing.T) {
	assert := assert.New(t)
	cfg := testConfig(t)
	v := iovalidate.New(cfg)

	rep, err := v.Validate(context.Background(), &graph.Snapshot{Graph: validGraph()})
	require.NoError(t, err)
	assert.Equal(0, rep.Fatal)
	assert.Equal(0, rep.Warnings)

	saved, err := iovalidate.Load(cfg)
	require.NoError(t, err)
	assert.Equal(rep.Fatal, saved.Fatal)
	assert.Empty(saved.Findings)
}

func TestValidateFindings(t *testing.T) {
	tests := []struct {
		msg    string
		mutate func(g *graph.Graph)
		code   string
		sev    findings.Severity
	}{
		{"dangling operator", func(g *graph.Graph) {
			g.Routes[0].OperatorID = "td:operator:NONE"
		}, iovalidate.CodeFKMissing, findings.Fatal},
		{"unknown mode", func(g *graph.Graph) {
			g.Places[0].PrimaryMode = "hovercraft"
		}, iovalidate.CodeEnum, findings.Fatal},
		{"negative amount", func(g *graph.Graph) {
			g.FareAmounts[0].AmountCents = -1
		}, iovalidate.CodeRange, findings.Fatal},
		{"repeated place", func(g *graph.Graph) {
			g.PatternStops[2].PlaceID = 1
		}, iovalidate.CodeUnique, findings.Fatal},
		{"multiple defaults", func(g *graph.Graph) {
			g.FareProducts = append(g.FareProducts, schema.FareProduct{
				FareProductID: 2, ProductKey: "hk:fare_product:bus:concession",
				Mode: "bus", Currency: "HKD",
			})
			g.FareAmounts = append(g.FareAmounts, schema.FareAmount{
				FareRuleID: 1, FareProductID: 2, AmountCents: 230, IsDefault: true,
			})
		}, iovalidate.CodeMultipleDefault, findings.Fatal},
		{"parent cycle", func(g *graph.Graph) {
			g.Places[0].ParentPlaceID = id(2)
			g.Places[1].ParentPlaceID = id(1)
		}, iovalidate.CodeParentCycle, findings.Fatal},
		{"sequence gap", func(g *graph.Graph) {
			g.PatternStops[2].Seq = 4
		}, iovalidate.CodeSeqGaps, findings.Fatal},
		{"sequence base", func(g *graph.Graph) {
			for i := range g.PatternStops {
				g.PatternStops[i].Seq++
			}
		}, iovalidate.CodeSeqBase, findings.Fatal},
		{"headway overlap", func(g *graph.Graph) {
			g.PatternHeadways = append(g.PatternHeadways, schema.PatternHeadway{
				PatternID: 1, ServiceID: "WD", StartTime: "08:00:00",
				EndTime: "10:00:00", HeadwaySecs: 900,
			})
		}, iovalidate.CodeHeadwayOverlap, findings.Fatal},
		{"headway window", func(g *graph.Graph) {
			g.PatternHeadways[0].EndTime = "05:00:00"
		}, iovalidate.CodeHeadwayWindow, findings.Fatal},
		{"frequency window", func(g *graph.Graph) {
			g.Frequencies[0].StartTime = "23:00:00"
			g.Frequencies[0].EndTime = "01:00:00"
		}, iovalidate.CodeRange, findings.Fatal},
		{"calendar dates", func(g *graph.Graph) {
			g.Calendars[0].EndDate = "20241231"
		}, iovalidate.CodeRange, findings.Fatal},
		{"short pattern", func(g *graph.Graph) {
			g.PatternStops = g.PatternStops[:1]
		}, iovalidate.CodeTooShort, findings.Warning},
		{"fare window", func(g *graph.Graph) {
			g.FareRules[0].DestinationSeq = id(7)
		}, iovalidate.CodeFareWindow, findings.Warning},
		{"circular endpoints", func(g *graph.Graph) {
			g.Patterns[0].IsCircular = true
		}, iovalidate.CodeCircularEnds, findings.Warning},
		{"route without fares", func(g *graph.Graph) {
			g.Routes = append(g.Routes, schema.Route{
				RouteID: 2, RouteKey: "td:bus:2", UpstreamRouteID: "2",
				Mode: "bus", OperatorID: opID,
			})
		}, iovalidate.CodeMissingFares, findings.Warning},
	}

	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			g := validGraph()
			v.mutate(g)
			val := iovalidate.New(testConfig(t))
			rep, err := val.Validate(context.Background(), &graph.Snapshot{Graph: g})
			require.NotNil(t, rep)
			assert.True(t, hasCode(rep, v.code, v.sev), v.msg)

			if v.sev == findings.Fatal {
				var be iovalidate.BlockingError
				require.Error(t, err)
				assert.True(t, errors.As(err, &be))
				assert.Equal(t, rep.Fatal, be.Report.Fatal)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidateNestedBands(t *testing.T) {
	g := validGraph()
	g.PatternHeadways = []schema.PatternHeadway{
		{PatternID: 1, ServiceID: "WD", StartTime: "06:00:00", EndTime: "12:00:00", HeadwaySecs: 600},
		{PatternID: 1, ServiceID: "WD", StartTime: "07:00:00", EndTime: "08:00:00", HeadwaySecs: 300},
		{PatternID: 1, ServiceID: "WD", StartTime: "09:00:00", EndTime: "10:00:00", HeadwaySecs: 300},
		{PatternID: 1, ServiceID: "SAT", StartTime: "07:00:00", EndTime: "08:00:00", HeadwaySecs: 300},
	}

	rep, err := iovalidate.New(testConfig(t)).Validate(context.Background(),
		&graph.Snapshot{Graph: g})
	require.Error(t, err)

	var starts []string
	for _, f := range rep.Findings {
		if f.Code == iovalidate.CodeHeadwayOverlap {
			assert.Equal(t, ">= 12:00:00", f.Expected)
			starts = append(starts, f.Actual)
		}
	}
	assert.Equal(t, []string{"07:00:00", "09:00:00"}, starts)
}

func TestValidateHeadwayMode(t *testing.T) {
	broken := func() *graph.Graph {
		g := validGraph()
		g.PatternHeadways[0].EndTime = "05:00:00"
		g.Frequencies[0].EndTime = "05:00:00"
		g.Calendars[0].EndDate = "20241231"
		return g
	}

	tests := []struct {
		mode  string
		fatal bool
	}{
		{"full", true},
		{"partial", true},
		{"none", false},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			cfg := testConfig(t, config.OptHeadwayMode(tt.mode))
			rep, err := iovalidate.New(cfg).Validate(context.Background(),
				&graph.Snapshot{Graph: broken()})
			require.NotNil(t, rep)
			assert.Equal(t, tt.fatal, rep.HasFatal())
			assert.Equal(t, tt.fatal, err != nil)
		})
	}

	// partial mode drops calendars and frequencies, only the band is reported
	cfg := testConfig(t, config.OptHeadwayMode("partial"))
	rep, _ := iovalidate.New(cfg).Validate(context.Background(),
		&graph.Snapshot{Graph: broken()})
	require.Equal(t, 1, rep.Fatal)
	assert.Equal(t, iovalidate.CodeHeadwayWindow, rep.Findings[0].Code)
}

func TestValidateOrder(t *testing.T) {
	assert := assert.New(t)
	g := validGraph()
	g.Patterns[0].IsCircular = true
	snap := &graph.Snapshot{
		Graph: g,
		Advisories: []findings.Finding{{
			Class: findings.Merge, Severity: findings.Warning,
			Code: "ATTRIBUTE_DISAGREEMENT", Entity: "places", Key: "td:bus:1001",
			Field: "name_en",
		}},
		Unresolved: []graph.Unresolved{{Source: "td_routes_fares", Reason: "missing_route"}},
	}

	rep, err := iovalidate.New(testConfig(t)).Validate(context.Background(), snap)
	require.NoError(t, err)
	require.Len(t, rep.Findings, 3)
	assert.Equal(findings.CrossConsistency, rep.Findings[0].Class)
	assert.Equal(iovalidate.CodeUnresolved, rep.Findings[0].Code)
	assert.Equal(iovalidate.CodeCircularEnds, rep.Findings[1].Code)
	assert.Equal(findings.Merge, rep.Findings[2].Class)
	assert.Equal(3, rep.Warnings)
}

func TestValidateFailFast(t *testing.T) {
	g := validGraph()
	g.Routes[0].OperatorID = "td:operator:NONE"
	g.Places[0].PrimaryMode = "hovercraft"

	cfg := testConfig(t, config.OptFailFast(true))
	rep, err := iovalidate.New(cfg).Validate(context.Background(), &graph.Snapshot{Graph: g})
	require.Error(t, err)
	assert.True(t, rep.HasFatal())
}

func TestValidateEmpty(t *testing.T) {
	_, err := iovalidate.New(testConfig(t)).Validate(context.Background(), nil)
	assert.Error(t, err)
}
