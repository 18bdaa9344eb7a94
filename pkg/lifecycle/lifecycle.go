// Package lifecycle declares the stages of the build pipeline. Every stage
// reads the output of the previous one, so stages can run as separate
// commands or one after another in a single build.
package lifecycle

import (
	"context"

	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/gnames/hktransit/pkg/keys"
	"github.com/gnames/hktransit/pkg/staged"
)

// Registry remembers stable keys across pipeline runs. Allocation is the
// only shared mutable state of a run, implementations serialize it.
type Registry interface {
	// Lookup returns the stable key bound to a natural key, if any.
	Lookup(k keys.Key) (string, bool, error)

	// Allocate binds a natural key to its stable key. It returns true
	// when the natural key was not seen before. Binding a stable key to
	// a second natural key, or a natural key to a second stable key, is a
	// collision error.
	Allocate(k keys.Key) (string, bool, error)

	// AllocateAll allocates many keys in one transaction and returns
	// the number of fresh keys.
	AllocateAll(kk []keys.Key) (int, error)

	// Close flushes and releases the registry.
	Close() error
}

// Normalizer resolves staged records into the canonical graph.
type Normalizer interface {
	// Normalize builds the canonical graph snapshot from staged records.
	Normalize(ctx context.Context, ds *staged.Dataset) (*graph.Snapshot, error)
}

// Validator runs integrity checks over a frozen canonical graph.
type Validator interface {
	// Validate returns the ordered report. If the report has fatal
	// findings the error is a blocking validation error.
	Validate(ctx context.Context, snap *graph.Snapshot) (*findings.Report, error)
}

// Assembler writes the truth database.
type Assembler interface {
	// Commit writes the canonical graph and returns the artifact path.
	// Artifacts are replaced atomically, a failed Commit leaves the
	// previous one untouched.
	Commit(
		ctx context.Context,
		snap *graph.Snapshot,
		rep *findings.Report,
	) (string, error)
}

// Compiler derives the serving database from the truth database.
type Compiler interface {
	// Serve builds the serving database and returns its path.
	Serve(ctx context.Context) (string, error)
}
