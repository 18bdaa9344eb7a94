package ionormalize

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
)

// SnapshotError is returned when the canonical graph snapshot cannot be
// written or read.
func SnapshotError(path string, err error) error {
	msg := `Cannot access canonical graph snapshot <em>%s</em>

<em>How to fix:</em>
  1. Run <em>hktransit normalize</em> first
  2. Check permissions of the work directory`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.NormalizeSnapshotError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: snapshot %s: %w", fn, path, err),
	}
}

// CancelledError is returned when normalization is interrupted.
func CancelledError(err error) error {
	msg := "Normalization cancelled"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.NormalizeCancelledError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: normalization cancelled: %w", fn, err),
	}
}

// EmptyInputError is returned when staged input has no usable records.
func EmptyInputError() error {
	msg := `Staged input has no routes or places

<em>Possible causes:</em>
  - manifest.yaml lists no batches
  - every staged record failed validation, see unresolved.json`
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.NormalizeError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: no routes or places in staged input", fn),
	}
}
