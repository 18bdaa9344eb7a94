package ioregistry

import (
	"errors"
	"sync"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/lifecycle"
)

type memRegistry struct {
	mu      sync.Mutex
	natural map[keys.Kind]map[string]string
	stable  map[keys.Kind]map[string]string
}

// NewMemory creates a registry that lives only during the process. It is
// used by dry runs and tests.
func NewMemory() lifecycle.Registry {
	res := memRegistry{
		natural: make(map[keys.Kind]map[string]string),
		stable:  make(map[keys.Kind]map[string]string),
	}
	for _, kind := range keys.Kinds() {
		res.natural[kind] = make(map[string]string)
		res.stable[kind] = make(map[string]string)
	}
	return &res
}

func (r *memRegistry) Lookup(k keys.Key) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.natural[k.Kind][k.Natural]
	return res, ok, nil
}

func (r *memRegistry) Allocate(k keys.Key) (string, bool, error) {
	fresh, err := r.AllocateAll([]keys.Key{k})
	if err != nil {
		return "", false, err
	}
	return k.Stable, fresh == 1, nil
}

func (r *memRegistry) AllocateAll(kk []keys.Key) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// validate first, a failed batch changes nothing
	pending := make(map[string]string)
	pendingNat := make(map[string]string)
	for _, k := range kk {
		if _, ok := r.natural[k.Kind]; !ok {
			r.natural[k.Kind] = make(map[string]string)
			r.stable[k.Kind] = make(map[string]string)
		}
		if v, ok := r.natural[k.Kind][k.Natural]; ok && v != k.Stable {
			return 0, CollisionError(k, v)
		}
		if v, ok := r.stable[k.Kind][k.Stable]; ok && v != k.Natural {
			return 0, CollisionError(k, v)
		}
		id := string(k.Kind) + "\x00" + k.Stable
		if v, ok := pending[id]; ok && v != k.Natural {
			return 0, CollisionError(k, v)
		}
		pending[id] = k.Natural
		nid := string(k.Kind) + "\x00" + k.Natural
		if v, ok := pendingNat[nid]; ok && v != k.Stable {
			return 0, CollisionError(k, v)
		}
		pendingNat[nid] = k.Stable
	}

	var fresh int
	for _, k := range kk {
		if _, ok := r.natural[k.Kind][k.Natural]; ok {
			continue
		}
		r.natural[k.Kind][k.Natural] = k.Stable
		r.stable[k.Kind][k.Stable] = k.Natural
		fresh++
	}
	return fresh, nil
}

func (r *memRegistry) Close() error {
	return nil
}

// IsCollision reports if the error is a registry key collision.
func IsCollision(err error) bool {
	return isCollision(err)
}

func isCollision(err error) bool {
	var gnErr *gn.Error
	return errors.As(err, &gnErr) && gnErr.Code == errcode.RegistryCollisionError
}
