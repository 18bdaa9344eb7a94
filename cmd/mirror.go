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
	"github.com/gnames/hktransit/internal/iodb"
	"github.com/gnames/hktransit/internal/iomirror"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/spf13/cobra"
)

// getMirrorCmd returns the mirror command.
func getMirrorCmd() *cobra.Command {
	mirrorCmd := &cobra.Command{
		Use:   "mirror",
		Short: "Copy transport.sqlite into PostgreSQL",
		Long: `Copy every table of the truth database into a PostgreSQL database for
ad-hoc analysis. Existing mirror tables are dropped and recreated.

Connection settings come from the mirror section of config.yaml,
HKTRANSIT_MIRROR_* environment variables or flags.

Examples:
  hktransit mirror
  hktransit mirror --host db.local --database transit --batch-size 10000
  hktransit mirror --clean`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Update(mirrorOptions(cmd))
			ctx, cancel := signalContext()
			defer cancel()

			op := iodb.NewPgxOperator()
			if err := op.Connect(ctx, &cfg.Mirror); err != nil {
				printError(err)
				return err
			}
			defer op.Close()

			m := iomirror.New(cfg, op)
			m.Clean, _ = cmd.Flags().GetBool("clean")
			if _, err := m.Run(ctx); err != nil {
				printError(err)
				return err
			}
			return nil
		},
	}

	f := mirrorCmd.Flags()
	f.String("host", "", "PostgreSQL host")
	f.Int("port", 0, "PostgreSQL port")
	f.String("user", "", "PostgreSQL user")
	f.String("password", "", "PostgreSQL password")
	f.String("database", "", "PostgreSQL database")
	f.String("ssl-mode", "", "PostgreSQL SSL mode")
	f.Int("batch-size", 0, "rows per COPY batch")
	f.Bool("clean", false, "drop all tables of the mirror database first")
	return mirrorCmd
}

func mirrorOptions(cmd *cobra.Command) []config.Option {
	var res []config.Option
	f := cmd.Flags()
	str := map[string]func(string) config.Option{
		"host":     config.OptMirrorHost,
		"user":     config.OptMirrorUser,
		"password": config.OptMirrorPassword,
		"database": config.OptMirrorDatabase,
		"ssl-mode": config.OptMirrorSSLMode,
	}
	for name, opt := range str {
		if f.Changed(name) {
			s, _ := f.GetString(name)
			res = append(res, opt(s))
		}
	}
	if f.Changed("port") {
		i, _ := f.GetInt("port")
		res = append(res, config.OptMirrorPort(i))
	}
	if f.Changed("batch-size") {
		i, _ := f.GetInt("batch-size")
		res = append(res, config.OptMirrorBatchSize(i))
	}
	return res
}
