package iocommit

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
)

// BlockedError is returned when the validation report has fatal
// findings.
func BlockedError(fatal int) error {
	msg := `Commit is blocked by <em>%d</em> fatal findings

<em>How to fix:</em>
  Run <em>hktransit validate</em> and fix reported problems`
	vars := []any{fatal}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CommitBlockedError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: %d fatal findings", fn, fatal),
	}
}

// VerifyError is returned when the freshly written truth database does
// not match the canonical graph. The previous artifact is kept.
func VerifyError(problems []string) error {
	msg := `Truth database failed verification, previous artifact is kept

%s`
	vars := []any{strings.Join(problems, "\n")}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.CommitVerifyError,
		Msg:  msg,
		Vars: vars,
		Err: fmt.Errorf("from %s: verification failed: %s",
			fn, strings.Join(problems, "; ")),
	}
}
