package ioregistry

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
	"github.com/gnames/hktransit/pkg/keys"
)

func OpenError(path string, err error) error {
	msg := `Cannot open key registry <em>%s</em>

<em>Possible causes:</em>
  - Another hktransit process holds the registry
  - The file is not a registry`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryOpenError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot open registry %s: %w", fn, path, err),
	}
}

// CollisionError reports a natural key that competes for a stable key
// with another natural key, or a natural key bound to another stable key.
func CollisionError(k keys.Key, other string) error {
	msg := `Key collision for <em>%s</em>

  natural key: %s
  stable key:  %s
  bound to:    %s`
	vars := []any{k.Kind, k.Natural, k.Stable, other}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryCollisionError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: %s key collision: %s vs %s",
			fn, k.Kind, k.Natural, other),
	}
}

func WriteError(err error) error {
	msg := "Cannot write to key registry"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryWriteError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: registry write failed: %w", fn, err),
	}
}

func ClosedError() error {
	msg := "Key registry is closed"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.RegistryClosedError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: registry is closed", fn),
	}
}
