// Package ioregistry keeps stable keys of canonical entities between
// pipeline runs.
package ioregistry

import (
	"errors"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/lifecycle"
)

var (
	naturalBucket = []byte("natural")
	stableBucket  = []byte("stable")
)

// boltRegistry stores natural->stable and stable->natural mappings in a
// bolt file. Every key kind has its own sub-bucket in both directions.
type boltRegistry struct {
	mu sync.Mutex
	db *bolt.DB
}

// NewBolt opens or creates a registry file.
func NewBolt(path string) (lifecycle.Registry, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, OpenError(path, err)
	}
	// one sync on Close is enough, a crashed run is rerun from scratch
	db.NoSync = true

	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{naturalBucket, stableBucket} {
			b, err := tx.CreateBucketIfNotExists(name)
			if err != nil {
				return err
			}
			for _, kind := range keys.Kinds() {
				if _, err = b.CreateBucketIfNotExists([]byte(kind)); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, OpenError(path, err)
	}
	return &boltRegistry{db: db}, nil
}

func (r *boltRegistry) Lookup(k keys.Key) (string, bool, error) {
	if r.db == nil {
		return "", false, ClosedError()
	}
	var res []byte
	err := r.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(naturalBucket).Bucket([]byte(k.Kind))
		if b == nil {
			return nil
		}
		if v := b.Get([]byte(k.Natural)); v != nil {
			res = append([]byte(nil), v...)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return string(res), res != nil, nil
}

func (r *boltRegistry) Allocate(k keys.Key) (string, bool, error) {
	fresh, err := r.allocate([]keys.Key{k})
	if err != nil {
		return "", false, err
	}
	return k.Stable, fresh == 1, nil
}

func (r *boltRegistry) AllocateAll(kk []keys.Key) (int, error) {
	return r.allocate(kk)
}

func (r *boltRegistry) allocate(kk []keys.Key) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return 0, ClosedError()
	}

	var fresh int
	err := r.db.Update(func(tx *bolt.Tx) error {
		for _, k := range kk {
			nb, err := tx.Bucket(naturalBucket).CreateBucketIfNotExists([]byte(k.Kind))
			if err != nil {
				return err
			}
			sb, err := tx.Bucket(stableBucket).CreateBucketIfNotExists([]byte(k.Kind))
			if err != nil {
				return err
			}

			nat, st := []byte(k.Natural), []byte(k.Stable)
			if v := nb.Get(nat); v != nil {
				if string(v) != k.Stable {
					return CollisionError(k, string(v))
				}
				continue
			}
			if v := sb.Get(st); v != nil && string(v) != k.Natural {
				return CollisionError(k, string(v))
			}

			if err = nb.Put(nat, st); err != nil {
				return err
			}
			if err = sb.Put(st, nat); err != nil {
				return err
			}
			fresh++
		}
		return nil
	})
	if err != nil {
		if isCollision(err) {
			return 0, err
		}
		return 0, WriteError(err)
	}
	return fresh, nil
}

func (r *boltRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db == nil {
		return nil
	}
	err := r.db.Sync()
	err = errors.Join(err, r.db.Close())
	r.db = nil
	return err
}
