package keys_test

import (
	"testing"

	"github.com/gnames/hktransit/pkg/keys"
	"github.com/stretchr/testify/assert"
)

func TestOperator(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg, code, stable string
	}{
		{"simple", "kmb", "td:operator:KMB"},
		{"spaces", " CTB ", "td:operator:CTB"},
		{"joint", "LWB+kmb", "td:operator:KMB+LWB"},
		{"joint reverse", "KMB+LWB", "td:operator:KMB+LWB"},
		{"joint dupes", "kmb+KMB", "td:operator:KMB"},
	}
	for _, v := range tests {
		k := keys.Operator(v.code)
		assert.Equal(v.stable, k.Stable, v.msg)
		assert.Equal(keys.KindOperator, k.Kind, v.msg)
	}
	assert.Equal(keys.Operator("LWB+KMB").Natural, keys.Operator("kmb+lwb").Natural)
}

func TestRouteID(t *testing.T) {
	assert := assert.New(t)
	tests := []struct {
		msg, id, res string
	}{
		{"digits", "0012", "12"},
		{"no zeros", "12", "12"},
		{"zero", "000", "0"},
		{"alnum", "012A", "012A"},
		{"empty", " ", ""},
	}
	for _, v := range tests {
		assert.Equal(v.res, keys.RouteID(v.id), v.msg)
	}
	assert.Equal("td:bus:12", keys.Route("bus", "0012").Stable)
}

func TestPattern(t *testing.T) {
	assert := assert.New(t)
	stops := []string{"td:bus:1", "td:bus:2", "td:bus:3"}
	k := keys.Pattern("td:bus:12", 1, stops)
	assert.Equal("td:bus:12:1:"+keys.StopsHash(stops), k.Stable)
	assert.Len(keys.StopsHash(stops), 16)

	// same stops, same key
	k2 := keys.Pattern("td:bus:12", 1, []string{"td:bus:1", "td:bus:2", "td:bus:3"})
	assert.Equal(k, k2)

	// order of stops is a part of identity
	rev := []string{"td:bus:3", "td:bus:2", "td:bus:1"}
	assert.NotEqual(k.Stable, keys.Pattern("td:bus:12", 1, rev).Stable)
}

func TestFareKeys(t *testing.T) {
	assert := assert.New(t)
	k := keys.FareRule("bus", "td:operator:KMB", "td:bus:12", 1, 2, 5)
	assert.Equal("td:fare_rule:bus:td:operator:KMB:td:bus:12:1:2:5:", k.Stable)
	assert.Equal("hk:fare_product:ferry:default", keys.FareProduct("ferry").Stable)
}

func TestLastSegment(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("KMB", keys.LastSegment("td:operator:KMB"))
	assert.Equal("KMB", keys.LastSegment("KMB"))
}
