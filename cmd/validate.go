/*
Copyright © 2025 Dmitry Mozzherin <dmozzherin@gmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"time"

	"github.com/gnames/hktransit/internal/ionormalize"
	"github.com/gnames/hktransit/internal/iovalidate"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/findings"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/spf13/cobra"
)

// getValidateCmd returns the validate command.
func getValidateCmd() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check integrity of the canonical graph",
		Long: `Run schema, uniqueness, referential and cross-consistency checks over
the graph produced by the last normalize run.

Fatal findings block the commit and make the command exit with an error.
Warnings are kept in validation.json and in the meta notes of the truth
database.

Examples:
  hktransit validate
  hktransit validate --fail-fast --max-stops 150`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Update(validateOptions(cmd))
			ctx, cancel := signalContext()
			defer cancel()

			start := time.Now()
			snap, err := ionormalize.Load(cfg)
			if err == nil {
				_, err = runValidate(ctx, snap)
			}
			writeMetrics(ctx, stageTimes{"validate": time.Since(start)})
			if err != nil {
				printError(err)
				return err
			}
			return nil
		},
	}

	addValidateFlags(validateCmd)
	return validateCmd
}

func addValidateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.Bool("fail-fast", false, "stop at the first check class with fatal findings")
	f.Int("min-stops", 0, "warn about patterns with fewer stops")
	f.Int("max-stops", 0, "warn about patterns with more stops")
	f.Int("sample-limit", 0, "findings of one code kept in notes and printed")
}

func validateOptions(cmd *cobra.Command) []config.Option {
	var res []config.Option
	f := cmd.Flags()
	if f.Changed("fail-fast") {
		b, _ := f.GetBool("fail-fast")
		res = append(res, config.OptFailFast(b))
	}
	if f.Changed("min-stops") {
		i, _ := f.GetInt("min-stops")
		res = append(res, config.OptMinPatternStops(i))
	}
	if f.Changed("max-stops") {
		i, _ := f.GetInt("max-stops")
		res = append(res, config.OptMaxPatternStops(i))
	}
	if f.Changed("sample-limit") {
		i, _ := f.GetInt("sample-limit")
		res = append(res, config.OptSampleLimit(i))
	}
	return res
}

func runValidate(ctx context.Context, snap *graph.Snapshot) (*findings.Report, error) {
	return iovalidate.New(cfg).Validate(ctx, snap)
}
