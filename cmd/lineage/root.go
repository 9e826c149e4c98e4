package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hurttlocker/lineage/internal/config"
	"github.com/hurttlocker/lineage/internal/ingest"
	"github.com/hurttlocker/lineage/internal/logging"
	"github.com/hurttlocker/lineage/internal/store"
)

type globalOptions struct {
	configPath string
	dbPath     string
	maxRounds  int
	verbose    bool
}

// app is the state shared by subcommands once flags are parsed.
type app struct {
	opts   globalOptions
	cfg    config.ResolvedConfig
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "lineage",
		Short:         "Convert relationship text into family tree documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.opts.configPath, "config", "", "Config file (default ~/.lineage/config.yaml)")
	pf.StringVar(&a.opts.dbPath, "db", "", "SQLite database path")
	pf.IntVar(&a.opts.maxRounds, "max-rounds", 0, "Round bound for level solving")
	pf.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Debug logging")

	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newServeCmd(a))
	cmd.AddCommand(newMCPCmd(a))
	cmd.AddCommand(newFamiliesCmd(a))
	cmd.AddCommand(newTreesCmd(a))
	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (a *app) setup(cmd *cobra.Command) error {
	ro := config.ResolveOptions{
		ConfigPath: a.opts.configPath,
		CLIDBPath:  a.opts.dbPath,
		CLIVerbose: a.opts.verbose,
	}
	if cmd.Flags().Changed("max-rounds") {
		ro.CLIMaxRounds = strconv.Itoa(a.opts.maxRounds)
	}
	if f := cmd.Flags().Lookup("addr"); f != nil && f.Changed {
		ro.CLIAddr = f.Value.String()
	}

	cfg, err := config.ResolveConfig(ro)
	if err != nil {
		return withCode(exitUsage, fmt.Errorf("resolving config: %w", err))
	}
	logger, err := logging.New(cfg.LogLevel.Value)
	if err != nil {
		return withCode(exitUsage, err)
	}
	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("config resolved",
		zap.String("db", cfg.DBPath.Value),
		zap.String("db_source", string(cfg.DBPath.Source)),
		zap.Int("max_rounds", cfg.Rounds))
	return nil
}

func (a *app) engine() *ingest.Engine {
	return ingest.NewEngine(ingest.Options{MaxRounds: a.cfg.Rounds}, a.logger)
}

func (a *app) openStore() (store.Store, error) {
	s, err := store.NewStore(store.StoreConfig{DBPath: a.cfg.DBPath.Value})
	if err != nil {
		return nil, withCode(exitStore, fmt.Errorf("opening store: %w", err))
	}
	return s, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(code)
	}
}
