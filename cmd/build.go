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

	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/iocommit"
	"github.com/gnames/hktransit/internal/ioserve"
	"github.com/spf13/cobra"
)

// getBuildCmd returns the build command.
func getBuildCmd() *cobra.Command {
	var precedenceFile string

	buildCmd := &cobra.Command{
		Use:   "build",
		Short: "Run normalize, validate, commit and serve in sequence",
		Long: `Run the whole pipeline from staged batches to both artifacts.

The pipeline stops at the first failing stage. Fatal validation findings
stop it before transport.sqlite is touched, so previous artifacts stay
in place.

Examples:
  hktransit build
  hktransit build -s ./staged -o ./dist -b 2025.06.01 --fail-fast`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Update(validateOptions(cmd))
			cfg.Update(bundleOptions(cmd))
			ctx, cancel := signalContext()
			defer cancel()

			st := make(stageTimes)
			err := runBuild(ctx, precedenceFile, st)
			writeMetrics(ctx, st)
			if err != nil {
				printError(err)
				return err
			}
			return nil
		},
	}

	buildCmd.Flags().StringVarP(
		&precedenceFile, "precedence", "p", "",
		"source precedence file (default ~/.config/hktransit/precedence.yaml)",
	)
	addValidateFlags(buildCmd)
	addBundleFlag(buildCmd)
	return buildCmd
}

func runBuild(ctx context.Context, precedenceFile string, st stageTimes) error {
	begin := time.Now()

	start := time.Now()
	snap, err := runNormalize(ctx, precedenceFile)
	st["normalize"] = time.Since(start)
	if err != nil {
		return err
	}

	start = time.Now()
	rep, err := runValidate(ctx, snap)
	st["validate"] = time.Since(start)
	if err != nil {
		return err
	}

	start = time.Now()
	_, err = iocommit.New(cfg).Commit(ctx, snap, rep)
	st["commit"] = time.Since(start)
	if err != nil {
		return err
	}

	start = time.Now()
	_, err = ioserve.New(cfg).Serve(ctx)
	st["serve"] = time.Since(start)
	if err != nil {
		return err
	}

	gn.Info("Build finished in %s", gnfmt.TimeString(time.Since(begin).Seconds()))
	return nil
}
