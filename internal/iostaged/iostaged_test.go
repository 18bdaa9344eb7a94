package iostaged_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/internal/iostaged"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/errcode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifest = `batches:
  - source: td_routes_fares
    table: operator
    path: COMPANY_CODE.csv
  - source: td_routes_fares
    table: place
    mode: bus
    path: bus/STOP_BUS.csv
  - source: td_routes_fares
    table: route_stop
    mode: bus
    path: bus/RSTOP_BUS.csv
`

const operators = "\ufeffCOMPANY_CODE,COMPANY_NAMEE,COMPANY_NAMEC\n" +
	"KMB,Kowloon Motor Bus, 九巴 \n" +
	",Nameless,\n"

const stops = `STOP_ID,STOP_NAMEE,STOP_NAMEC,X,Y
1001,Star Ferry,天星碼頭,835500,818900
1002,Central,中環,,
1003,Broken,壞,abc,818900
`

const routeStops = `ROUTE_ID,ROUTE_SEQ,STOP_SEQ,STOP_ID
12,1,1,1001
12,1,two,1002
`

func writeStaged(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func reader(dir string) *config.Config {
	cfg := config.New()
	cfg.Update([]config.Option{config.OptStagedDir(dir), config.OptJobsNumber(2)})
	return cfg
}

func TestRead(t *testing.T) {
	assert := assert.New(t)
	dir := writeStaged(t, map[string]string{
		"manifest.yaml":    manifest,
		"COMPANY_CODE.csv": operators,
		"bus/STOP_BUS.csv": stops,
		"bus/RSTOP_BUS.csv": routeStops,
	})
	r := iostaged.New(reader(dir))

	m, err := r.Manifest()
	require.NoError(t, err)
	assert.Len(m.Batches, 3)

	ds, err := r.Read(m)
	require.NoError(t, err)

	require.Len(t, ds.Operators, 1)
	op := ds.Operators[0]
	assert.Equal("KMB", op.CompanyCode)
	assert.Equal("九巴", op.NameTc)
	assert.Equal("td_routes_fares", op.Source)
	assert.Equal(1, op.Line)

	require.Len(t, ds.Places, 2)
	assert.Equal("bus", ds.Places[0].Mode)
	assert.Equal("835500", ds.Places[0].X)
	assert.Equal("", ds.Places[1].X)

	assert.Len(ds.RouteStops, 1)

	require.Len(t, ds.Invalid, 3)
	inv := ds.Invalid[0]
	assert.Equal("COMPANY_CODE", inv.Field)
	assert.Equal("required", inv.Tag)
	assert.Equal(2, inv.Line)

	inv = ds.Invalid[1]
	assert.Equal("X", inv.Field)
	assert.Equal("abc", inv.Value)
	assert.Equal(3, inv.Line)

	inv = ds.Invalid[2]
	assert.Equal("STOP_SEQ", inv.Field)
	assert.Equal("number", inv.Tag)
}

func TestManifestErrors(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg, manifest string
	}{
		{"bad yaml", "batches: [\n"},
		{"no mode", "batches:\n  - {source: td, table: place, path: a.csv}\n"},
		{"no source", "batches:\n  - {table: trip, path: a.csv}\n"},
		{"bad table", "batches:\n  - {source: td, table: stop, mode: bus, path: a.csv}\n"},
	}
	for _, v := range tests {
		dir := writeStaged(t, map[string]string{"manifest.yaml": v.manifest})
		_, err := iostaged.New(reader(dir)).Manifest()
		require.Error(t, err, v.msg)
		gnErr, ok := err.(*gn.Error)
		require.True(t, ok, v.msg)
		assert.Equal(errcode.StagedManifestError, gnErr.Code, v.msg)
	}
}

func TestMissingColumns(t *testing.T) {
	dir := writeStaged(t, map[string]string{
		"manifest.yaml": "batches:\n  - {source: td, table: trip, path: t.csv}\n",
		"t.csv":         "route_id,trip_id\n1,1_1_WD_0600\n",
	})
	r := iostaged.New(reader(dir))
	m, err := r.Manifest()
	require.NoError(t, err)
	_, err = r.Read(m)
	require.Error(t, err)
	gnErr, ok := err.(*gn.Error)
	require.True(t, ok)
	assert.Equal(t, errcode.StagedTableError, gnErr.Code)
}
