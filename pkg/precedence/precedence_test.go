package precedence_test

import (
	"testing"

	"github.com/gnames/hktransit/pkg/precedence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const table = `
default: [td_routes_fares, td_pt_headway]
entities:
  places: [mtr_lines, td_routes_fares]
fields:
  places.name_en: [td_routes_fares, mtr_lines]
`

func load(t *testing.T) *precedence.Table {
	var res precedence.Table
	err := yaml.Unmarshal([]byte(table), &res)
	require.Nil(t, err)
	require.Nil(t, res.Validate())
	return &res
}

func TestRanking(t *testing.T) {
	assert := assert.New(t)
	tbl := load(t)
	assert.Equal([]string{"td_routes_fares", "mtr_lines"},
		tbl.Ranking("places", "name_en"))
	assert.Equal([]string{"mtr_lines", "td_routes_fares"},
		tbl.Ranking("places", "name_tc"))
	assert.Equal([]string{"td_routes_fares", "td_pt_headway"},
		tbl.Ranking("routes", "name_tc"))

	// unknown sources rank last, lexically
	assert.Negative(tbl.Compare("routes", "x", "td_pt_headway", "aaa"))
	assert.Negative(tbl.Compare("routes", "x", "aaa", "bbb"))
}

func TestReduce(t *testing.T) {
	assert := assert.New(t)
	tbl := load(t)
	vals := []precedence.Value[string]{
		{Source: "td_routes_fares", Val: "Admiralty Stn", Valid: true},
		{Source: "mtr_lines", Val: "Admiralty", Valid: true},
		{Source: "other", Valid: false},
	}

	res := precedence.Reduce(tbl, "places", "name_tc", vals)
	assert.Equal("Admiralty", res.Val)
	assert.Equal("mtr_lines", res.Source)
	assert.True(res.Disagree)
	assert.Equal("Admiralty Stn", res.Other)

	res = precedence.Reduce(tbl, "places", "name_en", vals)
	assert.Equal("Admiralty Stn", res.Val)
	assert.Equal("td_routes_fares", res.Source)

	// order of values does not matter
	rev := []precedence.Value[string]{vals[2], vals[1], vals[0]}
	assert.Equal(res, precedence.Reduce(tbl, "places", "name_en", rev))

	empty := precedence.Reduce(tbl, "places", "name_en", vals[2:])
	assert.False(empty.Valid)

	same := precedence.Reduce(tbl, "routes", "mode", []precedence.Value[string]{
		{Source: "a", Val: "bus", Valid: true},
		{Source: "b", Val: "bus", Valid: true},
	})
	assert.False(same.Disagree)
}

func TestValidate(t *testing.T) {
	tbl := precedence.Table{Default: []string{"a", "b", "a"}}
	assert.NotNil(t, tbl.Validate())
	tbl = precedence.Table{Fields: map[string][]string{"places.name_en": {""}}}
	assert.NotNil(t, tbl.Validate())
}
