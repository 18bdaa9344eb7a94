package iostaged

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
)

func ManifestError(path string, err error) error {
	msg := `Cannot load staged manifest

<em>Manifest:</em> %s

<em>Possible causes:</em>
  - Staged directory is not produced yet
  - Invalid YAML format
  - Unknown table or mode of a batch`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StagedManifestError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot load manifest %s: %w", fn, path, err),
	}
}

func BatchError(path string, err error) error {
	msg := "Cannot read staged batch <em>%s</em>"
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StagedBatchError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: cannot read batch %s: %w", fn, path, err),
	}
}

func TableError(path, table string, missing []string) error {
	msg := "Batch <em>%s</em> of table '%s' misses required columns: %v"
	vars := []any{path, table, missing}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.StagedTableError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: batch %s misses columns %v",
			fn, path, missing),
	}
}
