package iovalidate

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnlib"
	"github.com/gnames/hktransit/pkg/errcode"
	"github.com/gnames/hktransit/pkg/findings"
)

// BlockingError is returned when the report has fatal findings. Commit
// refuses to run until they are fixed.
type BlockingError struct {
	error
	gnlib.MessageBase
	Report *findings.Report
}

// NewBlockingError summarizes fatal findings grouped by check class and
// entity. At most limit findings are listed per group.
func NewBlockingError(rep *findings.Report, limit int) error {
	var b strings.Builder
	for _, g := range rep.Grouped(findings.Fatal) {
		fmt.Fprintf(&b, "\n<em>%s / %s</em> (%d)\n", g.Class, g.Entity, len(g.Findings))
		for i, f := range g.Findings {
			if limit > 0 && i >= limit {
				fmt.Fprintf(&b, "  ... %d more\n", len(g.Findings)-limit)
				break
			}
			fmt.Fprintf(&b, "  - %s\n", f)
		}
	}

	msgBase := gnlib.MessageBase{
		Msg: `<title>Validation Failed</title>
<warn>%d fatal findings block the commit.</warn>
%s
<em>How to fix:</em>
  1. Inspect the full report in <em>validation.json</em>
  2. Fix the staged input and run <em>hktransit normalize</em> again
`,
		Vars: []any{rep.Fatal, b.String()},
	}

	return BlockingError{
		error:       fmt.Errorf("validation found %d fatal findings", rep.Fatal),
		MessageBase: msgBase,
		Report:      rep,
	}
}

// ReportError is returned when validation.json cannot be read or written.
func ReportError(path string, err error) error {
	msg := `Cannot access validation report <em>%s</em>

<em>How to fix:</em>
  Run <em>hktransit validate</em> first`
	vars := []any{path}
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ValidateReportError,
		Msg:  msg,
		Vars: vars,
		Err:  fmt.Errorf("from %s: validation report %s: %w", fn, path, err),
	}
}

// SnapshotError is returned when there is no graph to validate.
func SnapshotError() error {
	msg := "Canonical graph is empty, nothing to validate"
	pc, _, _, _ := runtime.Caller(1)
	fn := runtime.FuncForPC(pc)
	return &gn.Error{
		Code: errcode.ValidateSnapshotError,
		Msg:  msg,
		Err:  fmt.Errorf("from %s: snapshot has no graph", fn),
	}
}
