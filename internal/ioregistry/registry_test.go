package ioregistry_test

import (
	"path/filepath"
	"testing"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/internal/ioregistry"
	"github.com/gnames/hktransit/pkg/errcode"
	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/lifecycle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registries(t *testing.T) map[string]lifecycle.Registry {
	b, err := ioregistry.NewBolt(filepath.Join(t.TempDir(), "registry.bolt"))
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return map[string]lifecycle.Registry{
		"bolt":   b,
		"memory": ioregistry.NewMemory(),
	}
}

func TestAllocate(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			k := keys.Place("bus", "1234")

			_, ok, err := reg.Lookup(k)
			require.NoError(t, err)
			assert.False(ok)

			stable, fresh, err := reg.Allocate(k)
			require.NoError(t, err)
			assert.True(fresh)
			assert.Equal("td:bus:1234", stable)

			stable, fresh, err = reg.Allocate(k)
			require.NoError(t, err)
			assert.False(fresh)
			assert.Equal("td:bus:1234", stable)

			res, ok, err := reg.Lookup(k)
			require.NoError(t, err)
			assert.True(ok)
			assert.Equal(stable, res)

			// the same stable key in another kind is fine
			n, err := reg.AllocateAll([]keys.Key{
				keys.Route("bus", "1234"), keys.Route("bus", "1"),
			})
			require.NoError(t, err)
			assert.Equal(2, n)
		})
	}
}

func TestCollision(t *testing.T) {
	for name, reg := range registries(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			k := keys.Route("bus", "12")
			_, _, err := reg.Allocate(k)
			require.NoError(t, err)

			// another natural key claims the same stable key
			other := keys.Key{
				Kind: keys.KindRoute, Natural: "route|bus|12X", Stable: k.Stable,
			}
			_, _, err = reg.Allocate(other)
			require.Error(t, err)
			assert.True(ioregistry.IsCollision(err))
			gnErr, ok := err.(*gn.Error)
			require.True(t, ok)
			assert.Equal(errcode.RegistryCollisionError, gnErr.Code)

			// the natural key is bound to another stable key
			moved := keys.Key{
				Kind: keys.KindRoute, Natural: k.Natural, Stable: "td:bus:12-new",
			}
			_, _, err = reg.Allocate(moved)
			assert.True(ioregistry.IsCollision(err))
		})
	}
}

func TestBoltPersists(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "registry.bolt")

	reg, err := ioregistry.NewBolt(path)
	require.NoError(t, err)
	stops := []string{"td:bus:1", "td:bus:2"}
	k := keys.Pattern("td:bus:12", 1, stops)
	_, _, err = reg.Allocate(k)
	require.NoError(t, err)
	require.NoError(t, reg.Close())

	_, _, err = reg.Allocate(k)
	assert.Error(err)

	reg, err = ioregistry.NewBolt(path)
	require.NoError(t, err)
	defer reg.Close()
	res, ok, err := reg.Lookup(k)
	require.NoError(t, err)
	assert.True(ok)
	assert.Equal(k.Stable, res)

	_, fresh, err := reg.Allocate(k)
	require.NoError(t, err)
	assert.False(fresh)
}
