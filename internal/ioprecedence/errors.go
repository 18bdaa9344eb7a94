package ioprecedence

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
)

// PrecedenceConfigError is returned when precedence.yaml cannot be
// loaded.
func PrecedenceConfigError(path string, err error) error {
	msg := `Cannot load source precedence

<em>Configuration file:</em> %s

<em>Possible causes:</em>
  - Invalid YAML format
  - A source is listed twice in one ranking
  - Permission denied

<em>How to fix:</em>
  1. Check the file: <em>cat %s</em>
  2. Delete it, the default is written on the next run`

	vars := []any{path, path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.PrecedenceConfigError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: failed to load precedence config: %w", fn, err),
	}
}
