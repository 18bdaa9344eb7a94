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
	"path/filepath"
	"time"

	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/internal/ionormalize"
	"github.com/gnames/hktransit/internal/ioprecedence"
	"github.com/gnames/hktransit/internal/ioregistry"
	"github.com/gnames/hktransit/internal/iostaged"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/graph"
	"github.com/spf13/cobra"
)

// getNormalizeCmd returns the normalize command.
func getNormalizeCmd() *cobra.Command {
	var precedenceFile string

	normalizeCmd := &cobra.Command{
		Use:   "normalize",
		Short: "Resolve staged records into the canonical graph",
		Long: `Read staged batches listed in manifest.yaml and resolve them into
canonical entities with stable keys.

Stable keys are kept in the key registry in the work directory, so the
same upstream entity keeps its key across rebuilds. Records that cannot
be resolved are written to unresolved.json.

Examples:
  hktransit normalize
  hktransit normalize -s ./staged --precedence ./precedence.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			start := time.Now()
			_, err := runNormalize(ctx, precedenceFile)
			if err != nil {
				printError(err)
				return err
			}
			writeMetrics(ctx, stageTimes{"normalize": time.Since(start)})
			return nil
		},
	}

	normalizeCmd.Flags().StringVarP(
		&precedenceFile, "precedence", "p", "",
		"source precedence file (default ~/.config/hktransit/precedence.yaml)",
	)
	return normalizeCmd
}

func runNormalize(ctx context.Context, precedenceFile string) (*graph.Snapshot, error) {
	rd := iostaged.New(cfg)
	m, err := rd.Manifest()
	if err != nil {
		return nil, err
	}
	ds, err := rd.Read(m)
	if err != nil {
		return nil, err
	}

	loader := ioprecedence.New(cfg)
	if precedenceFile != "" {
		loader = ioprecedence.NewFromFile(precedenceFile)
	}
	prec, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if err = iofs.EnsureDir(cfg.StageDir()); err != nil {
		return nil, err
	}
	reg, err := ioregistry.NewBolt(filepath.Join(cfg.StageDir(), config.RegistryFile))
	if err != nil {
		return nil, err
	}
	defer reg.Close()

	return ionormalize.New(cfg, reg, prec).Normalize(ctx, ds)
}
