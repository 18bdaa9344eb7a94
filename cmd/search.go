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
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnfmt"
	"github.com/gnames/hktransit/internal/ioschema"
	"github.com/gnames/hktransit/internal/ioserve"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/gnames/hktransit/pkg/schema"
	"github.com/spf13/cobra"
)

// getSearchCmd returns the search command.
func getSearchCmd() *cobra.Command {
	var prefix bool
	var mode string
	var operatorID int64

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Query the serving database",
		Long: `Run a full-text query against app.sqlite and print ranked hits as
JSON. With --prefix the query is matched against route short names.

Examples:
  hktransit search "tseung kwan o"
  hktransit search 將軍澳
  hktransit search --prefix 9 --mode bus --operator 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			f := ioserve.Filter{OperatorID: operatorID}
			if mode != "" {
				f.ModeID = schema.Modes.Code(mode)
				if f.ModeID == 0 {
					err := fmt.Errorf("unknown mode %q, use one of %s",
						mode, strings.Join(schema.Modes.Values, ", "))
					gn.PrintErrorMessage(err)
					return err
				}
			}

			out, err := search(cmd.Context(), query, prefix, f)
			if err != nil {
				printError(err)
				return err
			}
			fmt.Println(out)
			return nil
		},
	}

	searchCmd.Flags().BoolVar(&prefix, "prefix", false, "match route short names by prefix")
	searchCmd.Flags().StringVar(&mode, "mode", "", "limit prefix results to a mode")
	searchCmd.Flags().Int64Var(&operatorID, "operator", 0, "limit prefix results to an operator id")
	return searchCmd
}

func search(ctx context.Context, query string, prefix bool, f ioserve.Filter) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	db, err := ioschema.Open(filepath.Join(cfg.OutputDir, config.AppDBFile))
	if err != nil {
		return "", err
	}
	defer db.Close()

	var res any
	if prefix {
		var hits []ioserve.RouteHit
		if hits, err = ioserve.RoutePrefix(ctx, db, query, f); hits == nil {
			hits = []ioserve.RouteHit{}
		}
		res = hits
	} else {
		var hits []ioserve.Hit
		if hits, err = ioserve.Search(ctx, db, query); hits == nil {
			hits = []ioserve.Hit{}
		}
		res = hits
	}
	if err != nil {
		return "", err
	}

	enc := gnfmt.GNjson{Pretty: true}
	bs, err := enc.Encode(res)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}
