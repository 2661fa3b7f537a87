// Package main provides the vibe-guidescan command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-guidescan/internal/config"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries the state shared by every subcommand once the root command
// has loaded configuration.
type app struct {
	v        *viper.Viper
	cfg      *config.Config
	logger   *zap.Logger
	cfgFile  string
	logLevel string
}

// usageError marks errors caused by bad invocation rather than failure.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := &app{v: viper.New(), logger: zap.NewNop()}
	root := newRootCmd(a)
	root.SetArgs(args)

	err := root.Execute()
	_ = a.logger.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vibe-guidescan",
		Short: "CRISPR guide off-target decoding and ranking",
		Long: `vibe-guidescan queries precomputed CRISPR guide databases: it decodes each
guide's packed off-target list, annotates cut sites with exons, and filters
and ranks the guides in the requested regions.`,
		Example: `  # Import chromosome names and annotations (one-time setup)
  vibe-guidescan import sacCer3 --chr2acc chr2acc --gtf GCF_000146045.2_R64_genomic.gtf.gz

  # Query guides in a region
  vibe-guidescan query --organism sacCer3 chrIV:1000-2000

  # Query genes listed in a file, tab-delimited output
  vibe-guidescan query --organism sacCer3 -f tab genes.txt`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default ~/"+config.FileName+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")

	root.AddCommand(
		newQueryCmd(a),
		newDecodeCmd(a),
		newImportCmd(a),
		newConvertCmd(a),
		newIndexCmd(a),
		newInfoCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.Log.Level
	if a.logLevel != "" {
		level = a.logLevel
	}
	logger, err := newLogger(level)
	if err != nil {
		return &usageError{err: err}
	}
	a.logger = logger
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		// Version needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-guidescan version %s (%s) built %s\n", version, commit, date)
		},
	}
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
