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
	"time"

	"github.com/gnames/hktransit/internal/iocommit"
	"github.com/gnames/hktransit/internal/ionormalize"
	"github.com/gnames/hktransit/internal/iovalidate"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/spf13/cobra"
)

// getCommitCmd returns the commit command.
func getCommitCmd() *cobra.Command {
	commitCmd := &cobra.Command{
		Use:   "commit",
		Short: "Write the truth database transport.sqlite",
		Long: `Write the canonical graph of the last normalize run into
transport.sqlite. The command refuses to run if the last validation
report has fatal findings.

The database is built in a temporary file and renamed over the previous
one only after verification, so a failed commit keeps the last good
artifact.

Examples:
  hktransit commit
  hktransit commit -b 2025.06.01 -m partial`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Update(bundleOptions(cmd))
			ctx, cancel := signalContext()
			defer cancel()

			start := time.Now()
			snap, err := ionormalize.Load(cfg)
			if err != nil {
				printError(err)
				return err
			}
			rep, err := iovalidate.Load(cfg)
			if err != nil {
				printError(err)
				return err
			}
			if _, err = iocommit.New(cfg).Commit(ctx, snap, rep); err != nil {
				printError(err)
				return err
			}
			writeMetrics(ctx, stageTimes{"commit": time.Since(start)})
			return nil
		},
	}

	addBundleFlag(commitCmd)
	return commitCmd
}

func addBundleFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("bundle-version", "b", "",
		"release label of the data bundle (default is UTC date YYYY.MM.DD)")
}

func bundleOptions(cmd *cobra.Command) []config.Option {
	if !cmd.Flags().Changed("bundle-version") {
		return nil
	}
	s, _ := cmd.Flags().GetString("bundle-version")
	return []config.Option{config.OptBundleVersion(s)}
}
