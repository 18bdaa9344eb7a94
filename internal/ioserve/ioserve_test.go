package ioserve_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/iocommit"
	"github.com/gnames/hktransit/internal/ioschema"
	"github.com/gnames/hktransit/internal/ioserve"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/fares"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	kmb = "td:operator:KMB"
	ctb = "td:operator:CTB"
)

func id(i int64) sql.NullInt64 {
	return sql.NullInt64{Int64: i, Valid: true}
}

func text(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func coord(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: true}
}

func route(rid int64, op, name string) schema.Route {
	return schema.Route{
		RouteID: rid, RouteKey: "td:bus:" + name, UpstreamRouteID: name,
		Mode: "bus", OperatorID: op, RouteShortName: text(name),
		OriginTextEn: text("Tseung Kwan O"), DestinationTextEn: text("Mong Kok"),
		OriginTextTc: text("將軍澳"), DestinationTextTc: text("旺角"),
		IsActive: true,
	}
}

func rule(rid, o, d int64) schema.FareRule {
	return schema.FareRule{
		FareRuleID: rid, RuleKey: "td:fare_rule:bus:" + string(rune('a'+rid)),
		OperatorID: kmb, Mode: "bus", RouteID: id(1), PatternID: id(1),
		RouteSeq: id(1), OriginSeq: id(o), DestinationSeq: id(d),
		FareType: "section", Currency: "HKD", IsActive: true,
	}
}

func testGraph() *graph.Graph {
	g := &graph.Graph{
		Operators: []schema.Operator{
			{OperatorID: kmb, OperatorCode: "KMB", NameEn: text("KMB"), IsActive: true},
			{OperatorID: ctb, OperatorCode: "CTB", NameEn: text("Citybus"), IsActive: true},
		},
		Places: []schema.Place{
			{PlaceID: 1, PlaceKey: "td:bus:1001", PlaceType: "stop", PrimaryMode: "bus",
				NameEn: text("Tseung Kwan O"), NameTc: text("將軍澳"), NameSc: text("将军澳"),
				Lat: coord(22.3106), Lon: coord(114.181), IsActive: true},
			{PlaceID: 2, PlaceKey: "td:bus:1002", PlaceType: "stop", PrimaryMode: "bus",
				NameEn: text("Hang Hau"), NameTc: text("坑口"), IsActive: true},
			{PlaceID: 3, PlaceKey: "td:bus:1003", PlaceType: "stop", PrimaryMode: "bus",
				NameEn: text("Mong Kok"), NameTc: text("旺角"), IsActive: true},
		},
		Routes: []schema.Route{
			route(1, kmb, "9"),
			route(2, kmb, "9A"),
			route(3, ctb, "99"),
			route(4, kmb, "19"),
		},
		Patterns: []schema.RoutePattern{
			{PatternID: 1, PatternKey: "td:bus:9:1:aaaa", RouteID: 1, RouteSeq: 1,
				DirectionID: 1, ServiceType: "regular", IsActive: true},
		},
		PatternStops: []schema.PatternStop{
			{PatternID: 1, Seq: 1, PlaceID: 1},
			{PatternID: 1, Seq: 2, PlaceID: 2},
			{PatternID: 1, Seq: 3, PlaceID: 3},
		},
		FareProducts: []schema.FareProduct{
			{FareProductID: 1, ProductKey: "hk:fare_product:bus:default", Mode: "bus",
				NameEn: text("Adult"), Currency: "HKD", IsActive: true},
		},
		FareRules: []schema.FareRule{
			rule(1, 1, 2),
			rule(2, 1, 3),
			rule(3, 2, 3),
		},
		FareAmounts: []schema.FareAmount{
			{FareRuleID: 1, FareProductID: 1, AmountCents: 500, IsDefault: true},
			{FareRuleID: 2, FareProductID: 1, AmountCents: 500, IsDefault: true},
			{FareRuleID: 3, FareProductID: 1, AmountCents: 400, IsDefault: true},
		},
		Calendars: []schema.ServiceCalendar{
			{ServiceID: "WD", DaysMask: 31, StartDate: "20250101", EndDate: "20251231"},
		},
		PatternHeadways: []schema.PatternHeadway{
			{PatternID: 1, ServiceID: "WD", StartTime: "06:00:00", EndTime: "09:00:00",
				HeadwaySecs: 600},
		},
	}
	g.Sort()
	return g
}

func testConfig(t *testing.T, mode string) *config.Config {
	cfg := config.New()
	cfg.Update([]config.Option{
		config.OptOutputDir(t.TempDir()),
		config.OptWorkDir(t.TempDir()),
		config.OptHeadwayMode(mode),
		config.OptBundleVersion("2025.01.01"),
	})
	return cfg
}

// build commits the fixture and compiles the serving database.
func build(t *testing.T, mode string) (*config.Config, *sql.DB) {
	ctx := context.Background()
	cfg := testConfig(t, mode)
	_, err := iocommit.New(cfg).Commit(ctx, &graph.Snapshot{Graph: testGraph()}, nil)
	require.NoError(t, err)

	path, err := ioserve.New(cfg).Serve(ctx)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, config.AppDBFile), path)

	db, err := ioschema.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return cfg, db
}

func TestProject(t *testing.T) {
	assert := assert.New(t)
	g := testGraph()
	meta := &schema.Meta{BundleVersion: "2025.01.01", BuildID: g.BuildID()}
	proj, err := ioserve.Project(g, meta, config.HeadwayFull, nil)
	require.NoError(t, err)

	// operators are numbered by sorted operator_id
	assert.Equal(int64(1), proj.Operators[0].OperatorID)
	assert.Equal("CTB", proj.Operators[0].OperatorCode)
	assert.Equal("KMB", proj.Operators[1].OperatorCode)
	for _, r := range proj.Routes {
		if r.RouteShortName == "99" {
			assert.Equal(int64(1), r.OperatorID)
		} else {
			assert.Equal(int64(2), r.OperatorID)
		}
		assert.Equal(schema.Modes.Code("bus"), r.ModeID)
	}

	assert.Equal(int64(223106000), proj.Places[0].LatE7.Int64)
	assert.Equal(int64(1141810000), proj.Places[0].LonE7.Int64)
	assert.False(proj.Places[1].LatE7.Valid)

	assert.Equal(schema.ServiceTypes.Code("regular"), proj.Patterns[0].ServiceTypeID)
	assert.Contains(proj.Meta.EnumCodes, `"bus":1`)
	assert.Len(proj.PatternHeadways, 1)

	assert.Equal("將 軍 澳", proj.SearchFTS[0].Tc)
	assert.Equal("将 军 澳", proj.SearchFTS[0].Sc)
	assert.Equal("Tseung Kwan O", proj.SearchFTS[0].En)
	assert.Equal("p", proj.SearchDocs[0].Kind)
	assert.Equal(proj.SearchDocs[0].DocID, proj.SearchFTS[0].RowID)

	proj, err = ioserve.Project(g, meta, config.HeadwayNone, nil)
	require.NoError(t, err)
	assert.Empty(proj.PatternHeadways)
}

func TestProjectOperatorIDs(t *testing.T) {
	assert := assert.New(t)
	meta := &schema.Meta{}
	nwfb := "td:operator:NWFB"

	g := testGraph()
	g.Operators = []schema.Operator{
		{OperatorID: kmb, OperatorCode: "KMB", IsActive: true},
		{OperatorID: nwfb, OperatorCode: "NWFB", IsActive: true},
	}
	g.Routes = nil
	first, err := ioserve.Project(g, meta, config.HeadwayFull, nil)
	require.NoError(t, err)
	assert.Equal([]int64{1, 2}, projectedIDs(first))

	var enums map[string]map[string]int
	require.NoError(t, gnfmt.GNjson{}.Decode([]byte(first.Meta.EnumCodes), &enums))
	prev := enums[ioserve.OperatorEnum]
	assert.Equal(map[string]int{"KMB": 1, "NWFB": 2}, prev)

	// CTB sorts first but is appended after the known operators
	g.Operators = append(g.Operators,
		schema.Operator{OperatorID: ctb, OperatorCode: "CTB", IsActive: true})
	g.Sort()
	second, err := ioserve.Project(g, meta, config.HeadwayFull, prev)
	require.NoError(t, err)
	ids := make(map[string]int64)
	for _, o := range second.Operators {
		ids[o.OperatorCode] = o.OperatorID
	}
	assert.Equal(map[string]int64{"KMB": 1, "NWFB": 2, "CTB": 3}, ids)

	// retired operators keep their code reserved
	g.Operators = g.Operators[:1]
	require.NoError(t, gnfmt.GNjson{}.Decode([]byte(second.Meta.EnumCodes), &enums))
	third, err := ioserve.Project(g, meta, config.HeadwayFull, enums[ioserve.OperatorEnum])
	require.NoError(t, err)
	require.NoError(t, gnfmt.GNjson{}.Decode([]byte(third.Meta.EnumCodes), &enums))
	assert.Equal(map[string]int{"KMB": 1, "NWFB": 2, "CTB": 3}, enums[ioserve.OperatorEnum])
}

func projectedIDs(p *ioserve.Projection) []int64 {
	res := make([]int64, len(p.Operators))
	for i, o := range p.Operators {
		res[i] = o.OperatorID
	}
	return res
}

func TestServeKeepsOperatorIDs(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	cfg, db := build(t, "full")

	var ctbID int64
	err := db.QueryRowContext(ctx,
		"SELECT operator_id FROM operators WHERE operator_code = 'CTB'").Scan(&ctbID)
	require.NoError(t, err)
	assert.Equal(int64(1), ctbID)

	// AAA would take id 1 on a fresh build
	g := testGraph()
	g.Operators = append(g.Operators, schema.Operator{
		OperatorID: "td:operator:AAA", OperatorCode: "AAA", IsActive: true})
	g.Sort()
	_, err = iocommit.New(cfg).Commit(ctx, &graph.Snapshot{Graph: g}, nil)
	require.NoError(t, err)
	path, err := ioserve.New(cfg).Serve(ctx)
	require.NoError(t, err)

	db2, err := ioschema.Open(path)
	require.NoError(t, err)
	defer db2.Close()
	oo, err := ioschema.Read[schema.AppOperator](ctx, db2)
	require.NoError(t, err)
	ids := make(map[string]int64)
	for _, o := range oo {
		ids[o.OperatorCode] = o.OperatorID
	}
	assert.Equal(map[string]int64{"CTB": 1, "KMB": 2, "AAA": 3}, ids)
}

func TestProjectFares(t *testing.T) {
	assert := assert.New(t)
	g := testGraph()
	proj, err := ioserve.Project(g, &schema.Meta{}, config.HeadwayFull, nil)
	require.NoError(t, err)

	assert.Equal([]schema.FareSegment{
		{RouteID: 1, RouteSeq: 1, FareProductID: 1, OriginSeq: 1,
			DestFromSeq: 2, DestToSeq: 3, AmountCents: 500, IsDefault: true},
		{RouteID: 1, RouteSeq: 1, FareProductID: 1, OriginSeq: 2,
			DestFromSeq: 3, DestToSeq: 3, AmountCents: 400, IsDefault: true},
	}, proj.FareSegments)

	segs := make([]fares.Segment, len(proj.FareSegments))
	for i, v := range proj.FareSegments {
		segs[i] = fares.Segment{
			OriginSeq: v.OriginSeq, DestFromSeq: v.DestFromSeq, DestToSeq: v.DestToSeq,
			AmountCents: v.AmountCents, IsDefault: v.IsDefault,
		}
	}
	assert.Equal([]fares.Entry{
		{OriginSeq: 1, DestSeq: 2, AmountCents: 500, IsDefault: true},
		{OriginSeq: 1, DestSeq: 3, AmountCents: 500, IsDefault: true},
		{OriginSeq: 2, DestSeq: 3, AmountCents: 400, IsDefault: true},
	}, fares.Decompress(segs))
}

func TestServe(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	_, db := build(t, "full")

	tables, err := ioschema.Tables(ctx, db)
	require.NoError(t, err)
	for _, v := range []string{"meta", "routes", "fare_segments", "search_docs",
		"search_fts", "pattern_headways"} {
		assert.Contains(tables, v)
	}
	assert.NotContains(tables, "fare_rules")
	assert.NotContains(tables, "fare_amounts")

	n, err := ioschema.Count(ctx, db, "fare_segments")
	require.NoError(t, err)
	assert.Equal(2, n)

	var bundle, build string
	err = db.QueryRowContext(ctx,
		"SELECT bundle_version, build_id FROM meta").Scan(&bundle, &build)
	require.NoError(t, err)
	assert.Equal("2025.01.01", bundle)
	assert.Equal(testGraph().BuildID(), build)
}

func TestServeHeadwayNone(t *testing.T) {
	ctx := context.Background()
	_, db := build(t, "none")
	tables, err := ioschema.Tables(ctx, db)
	require.NoError(t, err)
	assert.NotContains(t, tables, "pattern_headways")
	assert.Contains(t, tables, "routes")
}

func TestServeNoTruth(t *testing.T) {
	cfg := testConfig(t, "full")
	_, err := ioserve.New(cfg).Serve(context.Background())
	assert.Error(t, err)
	_, err = os.Stat(filepath.Join(cfg.OutputDir, config.AppDBFile))
	assert.True(t, os.IsNotExist(err))
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	_, db := build(t, "full")

	tests := []struct {
		msg, query string
		kind       string
		refID      int64
	}{
		{"cjk", "將軍澳", "p", 1},
		{"cjk prefix", "澳*", "p", 1},
		{"single char", "坑", "p", 2},
		{"simplified", "将军澳", "p", 1},
		{"english", "hang hau", "p", 2},
		{"code", "9A", "r", 2},
	}
	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			res, err := ioserve.Search(ctx, db, v.query)
			require.NoError(t, err)
			require.NotEmpty(t, res)
			var found bool
			for _, h := range res {
				if h.Kind == v.kind && h.RefID == v.refID {
					found = true
				}
			}
			assert.True(t, found)
		})
	}

	res, err := ioserve.Search(ctx, db, "9A")
	require.NoError(t, err)
	assert.Equal(t, "r", res[0].Kind)
	assert.Equal(t, int64(2), res[0].RefID)
	assert.True(t, res[0].OperatorID.Valid)

	res, err = ioserve.Search(ctx, db, "  ")
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestRoutePrefix(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	_, db := build(t, "full")

	names := func(hh []ioserve.RouteHit) []string {
		var res []string
		for _, h := range hh {
			res = append(res, h.RouteShortName)
		}
		return res
	}

	res, err := ioserve.RoutePrefix(ctx, db, "9", ioserve.Filter{})
	require.NoError(t, err)
	assert.Equal([]string{"9", "99", "9A"}, names(res))

	res, err = ioserve.RoutePrefix(ctx, db, "9", ioserve.Filter{OperatorID: 2})
	require.NoError(t, err)
	assert.Equal([]string{"9", "9A"}, names(res))

	res, err = ioserve.RoutePrefix(ctx, db, "9",
		ioserve.Filter{ModeID: schema.Modes.Code("ferry")})
	require.NoError(t, err)
	assert.Empty(res)

	res, err = ioserve.RoutePrefix(ctx, db, "1", ioserve.Filter{})
	require.NoError(t, err)
	assert.Equal([]string{"19"}, names(res))
}
