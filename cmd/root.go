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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/gnames/gn"
	"github.com/gnames/gnlib"
	"github.com/gnames/hktransit/internal/iofs"
	"github.com/gnames/hktransit/internal/iologger"
	"github.com/gnames/hktransit/internal/iovalidate"
	app "github.com/gnames/hktransit/pkg"
	"github.com/gnames/hktransit/pkg/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	homeDir string
	opts    []config.Option
	cfg     *config.Config
)

// getRootCmd returns the root command with all subcommands attached.
func getRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Version: fmt.Sprintf("version: %s\nbuild:   %s", app.Version, app.Build),
		Use:     "hktransit",
		Short:   "Builds Hong Kong transit databases from staged upstream data",
		Long: `hktransit compiles staged Hong Kong transit data (bus, minibus, rail,
ferry, tram) into two SQLite artifacts:

  transport.sqlite  canonical truth database for analysis and audits
  app.sqlite        compact serving database with full-text search

The pipeline has four stages that can run one by one or together:
  normalize  resolve staged records into the canonical graph
  validate   check integrity of the graph
  commit     write the truth database
  serve      derive the serving database

Configuration precedence (highest to lowest):
  1. CLI flags
  2. Environment variables (HKTRANSIT_*)
  3. Config file (~/.config/hktransit/config.yaml)
  4. Built-in defaults`,
		PersistentPreRunE: bootstrap,
		RunE:              runRoot,
		SilenceErrors:     true,
		SilenceUsage:      true,
	}

	// Remove the automatic "hktransit version" prefix
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	// Override version flag to use -V (consistent with other gn projects)
	rootCmd.Flags().BoolP("version", "V", false, "version for hktransit")

	pf := rootCmd.PersistentFlags()
	pf.StringP("staged-dir", "s", "", "directory with manifest.yaml and staged files")
	pf.StringP("output-dir", "o", "", "directory for the database artifacts")
	pf.StringP("work-dir", "w", "", "directory for intermediate files and the key registry")
	pf.StringP("headway-mode", "m", "", "headway tables to keep: full, partial or none")
	pf.IntP("jobs", "j", 0, "number of parallel workers")

	rootCmd.AddCommand(
		getNormalizeCmd(),
		getValidateCmd(),
		getCommitCmd(),
		getServeCmd(),
		getBuildCmd(),
		getSearchCmd(),
		getMirrorCmd(),
	)
	return rootCmd
}

func bootstrap(cmd *cobra.Command, args []string) error {
	var err error
	if homeDir == "" {
		homeDir, err = os.UserHomeDir()
		if err != nil {
			gn.PrintErrorMessage(err)
			return err
		}
	}

	if err = iofs.EnsureDirs(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	// Initialize logging with hardcoded defaults
	// Will be reconfigured later with user's config settings
	defaultLog := config.LogConfig{
		Format:      "json",
		Level:       "info",
		Destination: "file",
	}
	if err = iologger.Init(config.LogDir(homeDir), defaultLog, false); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	if err = iofs.EnsureConfigFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}
	if err = iofs.EnsurePrecedenceFile(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	var cfgViper *config.Config
	if cfgViper, err = initConfig(homeDir); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	cfg = config.New()
	opts = cfgViper.ToOptions()
	cfg.Update(opts)

	// Set HomeDir after config is loaded
	cfg.Update([]config.Option{config.OptHomeDir(homeDir)})
	cfg.Update(flagOptions(cmd))

	// Reconfigure logging with user's settings, keeping records of this run
	if err = iologger.Init(config.LogDir(cfg.HomeDir), cfg.Log, true); err != nil {
		gn.PrintErrorMessage(err)
		return err
	}

	slog.Info("Configuration loaded",
		"config_file", config.ConfigFilePath(homeDir),
		"staged_dir", cfg.StagedDir,
		"output_dir", cfg.OutputDir,
		"headway_mode", cfg.HeadwayMode,
	)
	return nil
}

// flagOptions converts explicitly set persistent flags to options.
func flagOptions(cmd *cobra.Command) []config.Option {
	var res []config.Option
	flags := cmd.Flags()
	if flags.Changed("staged-dir") {
		s, _ := flags.GetString("staged-dir")
		res = append(res, config.OptStagedDir(s))
	}
	if flags.Changed("output-dir") {
		s, _ := flags.GetString("output-dir")
		res = append(res, config.OptOutputDir(s))
	}
	if flags.Changed("work-dir") {
		s, _ := flags.GetString("work-dir")
		res = append(res, config.OptWorkDir(s))
	}
	if flags.Changed("headway-mode") {
		s, _ := flags.GetString("headway-mode")
		res = append(res, config.OptHeadwayMode(s))
	}
	if flags.Changed("jobs") {
		i, _ := flags.GetInt("jobs")
		res = append(res, config.OptJobsNumber(i))
	}
	return res
}

func runRoot(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := getRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

// signalContext is cancelled on Ctrl-C.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

// printError shows a user-facing message of an error.
func printError(err error) {
	var be iovalidate.BlockingError
	if errors.As(err, &be) {
		gnlib.PrintUserMessage(be)
		return
	}
	gn.PrintErrorMessage(err)
}

func initConfig(home string) (*config.Config, error) {
	var err error
	cfgPath := config.ConfigFilePath(home)
	v := viper.New()
	v.SetConfigFile(cfgPath)

	initEnvVars(v)

	if err = v.ReadInConfig(); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	var res config.Config
	if err = v.Unmarshal(&res); err != nil {
		return nil, iofs.ReadFileError(cfgPath, err)
	}

	return &res, nil
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields included in config.ToOptions() - i.e., persistent
	// configuration that can be stored in config.yaml.
	v.SetEnvPrefix("HKTRANSIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Directories and pipeline settings
	v.BindEnv("staged_dir", "HKTRANSIT_STAGED_DIR")
	v.BindEnv("output_dir", "HKTRANSIT_OUTPUT_DIR")
	v.BindEnv("work_dir", "HKTRANSIT_WORK_DIR")
	v.BindEnv("headway_mode", "HKTRANSIT_HEADWAY_MODE")

	// Validate configuration
	v.BindEnv("validate.min_pattern_stops", "HKTRANSIT_VALIDATE_MIN_PATTERN_STOPS")
	v.BindEnv("validate.max_pattern_stops", "HKTRANSIT_VALIDATE_MAX_PATTERN_STOPS")
	v.BindEnv("validate.sample_limit", "HKTRANSIT_VALIDATE_SAMPLE_LIMIT")
	v.BindEnv("validate.fail_fast", "HKTRANSIT_VALIDATE_FAIL_FAST")

	// Serve configuration
	v.BindEnv("serve.bundle_version", "HKTRANSIT_SERVE_BUNDLE_VERSION")

	// Mirror configuration
	v.BindEnv("mirror.host", "HKTRANSIT_MIRROR_HOST")
	v.BindEnv("mirror.port", "HKTRANSIT_MIRROR_PORT")
	v.BindEnv("mirror.user", "HKTRANSIT_MIRROR_USER")
	v.BindEnv("mirror.password", "HKTRANSIT_MIRROR_PASSWORD")
	v.BindEnv("mirror.database", "HKTRANSIT_MIRROR_DATABASE")
	v.BindEnv("mirror.ssl_mode", "HKTRANSIT_MIRROR_SSL_MODE")
	v.BindEnv("mirror.batch_size", "HKTRANSIT_MIRROR_BATCH_SIZE")

	// Log configuration
	v.BindEnv("log.level", "HKTRANSIT_LOG_LEVEL")
	v.BindEnv("log.format", "HKTRANSIT_LOG_FORMAT")
	v.BindEnv("log.destination", "HKTRANSIT_LOG_DESTINATION")

	// General configuration
	v.BindEnv("jobs_number", "HKTRANSIT_JOBS_NUMBER")

	v.AutomaticEnv()
}
