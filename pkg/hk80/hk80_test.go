package hk80_test

import (
	"testing"

	"github.com/gnames/hktransit/pkg/hk80"
	"github.com/stretchr/testify/assert"
)

func TestToWGS84(t *testing.T) {
	assert := assert.New(t)

	lat, lon := hk80.ToWGS84(836694.05, 819069.80)
	assert.InDelta(22.3106, lat, 1e-4)
	assert.InDelta(114.1810, lon, 1e-4)

	// 1 km to north-east of the origin
	lat2, lon2 := hk80.ToWGS84(837694.05, 820069.80)
	assert.Greater(lat2, lat)
	assert.Greater(lon2, lon)
	assert.InDelta(0.00903, lat2-lat, 2e-4)
	assert.InDelta(0.00971, lon2-lon, 2e-4)
}

func TestValid(t *testing.T) {
	assert := assert.New(t)
	assert.True(hk80.Valid(836694.05, 819069.80))
	assert.False(hk80.Valid(0, 0))
	assert.False(hk80.Valid(114.18, 22.31))
}
