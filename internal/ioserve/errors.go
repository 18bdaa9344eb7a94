package ioserve

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
)

// BuildError is returned when the serving database cannot be projected
// or written.
func BuildError(step string, err error) error {
	msg := `Cannot build serving database at step <em>%s</em>

<em>Possible causes:</em>
  - Truth database is missing, run <em>hktransit commit</em> first
  - Not enough disk space in the output directory`
	vars := []any{step}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ServeBuildError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: step %s: %w", fn.Name(), step, err),
	}
}

// VerifyError is returned when the freshly written serving database
// fails post-checks. The previous artifact is kept.
func VerifyError(problems []string) error {
	msg := `Serving database failed verification, previous artifact is kept

%s`
	vars := []any{strings.Join(problems, "\n")}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ServeVerifyError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: verification failed: %s",
			fn.Name(), strings.Join(problems, "; ")),
	}
}

// QueryError is returned when a lookup against the serving database
// fails.
func QueryError(query string, err error) error {
	msg := "Cannot run query <em>%s</em>"
	vars := []any{query}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ServeQueryError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: query %q: %w", fn.Name(), query, err),
	}
}
