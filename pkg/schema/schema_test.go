package schema_test

import (
	"database/sql"
	"strings"
	"testing"

	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	return db
}

func createAll(t *testing.T, db *sql.DB, tables []schema.DDLGenerator) {
	t.Helper()
	for _, tbl := range tables {
		_, err := db.Exec(tbl.TableDDL())
		require.NoError(t, err, tbl.TableName())
		for _, idx := range tbl.IndexDDL() {
			_, err = db.Exec(idx)
			require.NoError(t, err, idx)
		}
	}
}

// TestPlaceTableDDL tests DDL generation for Place model
func TestPlaceTableDDL(t *testing.T) {
	p := schema.Place{}
	ddl := p.TableDDL()

	assert.Contains(t, ddl, "CREATE TABLE places")
	assert.Contains(t, ddl, "place_id INTEGER PRIMARY KEY")
	assert.Contains(t, ddl, "place_key TEXT NOT NULL UNIQUE")
	assert.Contains(t, ddl, "CHECK (place_type IN ('stop', 'station'")
	assert.Contains(t, ddl, "REFERENCES places(place_id)")
}

// TestPatternStopIndexDDL tests the conditional uniqueness index.
func TestPatternStopIndexDDL(t *testing.T) {
	ps := schema.PatternStop{}
	assert.Contains(t, ps.TableDDL(), "PRIMARY KEY (pattern_id, seq)")

	all := strings.Join(ps.IndexDDL(), "\n")
	assert.Contains(t, all, "WHERE allow_repeat = 0")
}

func TestSearchFTSDDL(t *testing.T) {
	ddl := schema.SearchFTS{}.TableDDL()
	assert.Contains(t, ddl, "fts5")
	assert.Contains(t, ddl, "content=''")
	assert.Contains(t, ddl, "unicode61 remove_diacritics")
}

func TestCreateCanonicalSchema(t *testing.T) {
	db := openMemory(t)
	createAll(t, db, schema.CanonicalTables())

	var n int
	err := db.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE type = 'table'",
	).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, len(schema.CanonicalTables()), n)
}

func TestCreateServingSchema(t *testing.T) {
	db := openMemory(t)
	createAll(t, db, schema.ServingTables())

	var n int
	err := db.QueryRow(
		"SELECT count(*) FROM sqlite_master WHERE name = 'search_fts'",
	).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestInsertAndScan(t *testing.T) {
	db := openMemory(t)
	createAll(t, db, schema.CanonicalTables())

	op := schema.Operator{
		OperatorID:   "td:operator:KMB",
		OperatorCode: "KMB",
		NameEn:       sql.NullString{String: "Kowloon Motor Bus", Valid: true},
		IsActive:     true,
	}
	_, err := db.Exec(schema.InsertSQL(op), schema.Values(op)...)
	require.NoError(t, err)

	var got schema.Operator
	err = db.QueryRow(schema.SelectSQL(got)).Scan(schema.Pointers(&got)...)
	require.NoError(t, err)
	assert.Equal(t, op, got)
}

func TestPatternStopUniqueness(t *testing.T) {
	db := openMemory(t)
	createAll(t, db, schema.CanonicalTables())

	stmts := []string{
		"INSERT INTO operators (operator_id, operator_code) VALUES ('td:operator:KMB', 'KMB')",
		"INSERT INTO places (place_id, place_key, place_type, primary_mode) VALUES (1, 'td:bus:1', 'stop', 'bus')",
		"INSERT INTO places (place_id, place_key, place_type, primary_mode) VALUES (2, 'td:bus:2', 'stop', 'bus')",
		"INSERT INTO routes (route_id, route_key, upstream_route_id, mode, operator_id) VALUES (1, 'td:bus:1', '1', 'bus', 'td:operator:KMB')",
		"INSERT INTO route_patterns (pattern_id, pattern_key, route_id, route_seq, direction_id, service_type) VALUES (1, 'p1', 1, 1, 1, 'regular')",
		"INSERT INTO route_patterns (pattern_id, pattern_key, route_id, route_seq, direction_id, service_type) VALUES (2, 'p2', 1, 2, 2, 'regular')",
		"INSERT INTO pattern_stops VALUES (1, 1, 1, 0)",
		"INSERT INTO pattern_stops VALUES (1, 2, 2, 0)",
		"INSERT INTO pattern_stops VALUES (2, 1, 1, 1)",
		"INSERT INTO pattern_stops VALUES (2, 2, 2, 1)",
	}
	for _, s := range stmts {
		_, err := db.Exec(s)
		require.NoError(t, err, s)
	}

	t.Run("repeat is rejected when not allowed", func(t *testing.T) {
		_, err := db.Exec("INSERT INTO pattern_stops VALUES (1, 3, 1, 0)")
		assert.Error(t, err)
	})

	t.Run("repeat is accepted on loop patterns", func(t *testing.T) {
		_, err := db.Exec("INSERT INTO pattern_stops VALUES (2, 3, 1, 1)")
		assert.NoError(t, err)
	})

	t.Run("route delete cascades to patterns", func(t *testing.T) {
		_, err := db.Exec("DELETE FROM routes WHERE route_id = 1")
		require.NoError(t, err)
		var n int
		err = db.QueryRow("SELECT count(*) FROM pattern_stops").Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
		err = db.QueryRow("SELECT count(*) FROM places").Scan(&n)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}

func TestEnumCodes(t *testing.T) {
	tests := []struct {
		msg  string
		enum schema.Enum
		val  string
		code int
	}{
		{"bus", schema.Modes, "bus", 1},
		{"peak tram", schema.Modes, "peak_tram", 8},
		{"unknown mode", schema.Modes, "hovercraft", 0},
		{"pier", schema.PlaceTypes, "pier", 5},
		{"night", schema.ServiceTypes, "night", 2},
		{"unknown service", schema.ServiceTypes, "unknown", 0},
	}

	for _, v := range tests {
		assert.Equal(t, v.code, v.enum.Code(v.val), v.msg)
	}

	codes := schema.EnumCodes()
	assert.Equal(t, 2, codes["direction_id"]["inbound"])
	assert.Equal(t, 6, codes["mode"]["ferry"])
}

func TestKeepTable(t *testing.T) {
	tests := []struct {
		mode  config.HeadwayMode
		table string
		keep  bool
	}{
		{config.HeadwayFull, "headway_trips", true},
		{config.HeadwayPartial, "headway_trips", false},
		{config.HeadwayPartial, "pattern_headways", true},
		{config.HeadwayPartial, "service_exceptions", true},
		{config.HeadwayPartial, "service_calendars", false},
		{config.HeadwayNone, "pattern_headways", false},
		{config.HeadwayNone, "routes", true},
	}

	for _, v := range tests {
		assert.Equal(t, v.keep, schema.KeepTable(v.mode, v.table),
			"%s/%s", v.mode, v.table)
	}

	tables := schema.FilterTables(schema.CanonicalTables(), config.HeadwayNone)
	for _, tbl := range tables {
		assert.False(t, schema.IsHeadwayTable(tbl.TableName()))
	}
}
