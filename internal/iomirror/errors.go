package iomirror

import (
	"fmt"
	"runtime"

	"github.com/gnames/gn"
	"github.com/gnames/hktransit/pkg/errcode"
)

// CopyError is returned when a truth table cannot be copied into the
// mirror database.
func CopyError(table string, err error) error {
	msg := `Cannot copy table <em>%s</em> to the PostgreSQL mirror

<em>How to fix:</em>
  Make sure the mirror user can create tables in the database`
	vars := []any{table}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.MirrorCopyError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: table %s: %w", fn.Name(), table, err),
	}
}
