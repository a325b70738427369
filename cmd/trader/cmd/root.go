package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/logging"
	"github.com/rustyeddy/papertrader/internal/tracing"
)

// version is overridden at build time with -ldflags "-X ...cmd.version=...".
var version = "0.1.0"

// skipSetup marks commands that run without loading the config.
var skipSetup = map[string]string{"setup": "skip"}

// app carries what the persistent pre-run builds for the subcommands.
type app struct {
	cfgPath   string
	envFile   string
	logLevel  string
	logFormat string
	trace     bool

	cfg      *config.Config
	log      *zap.Logger
	shutdown tracing.Shutdown
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "trader",
		Short: "A martingale paper-trading bot and simulator",
		Long: `Trader runs martingale paper-trading bots against live or synthetic prices.

It provides tools for:
  - Simulating a strategy over N days x M trades
  - Running bots on a schedule with a weekly loss circuit breaker
  - Streaming closed trades as text, CSV or Org-mode entries
  - Storing and inspecting simulation results in SQLite

Configuration comes from a YAML/JSON file (--config), a .env file and
TRADER_* environment variables, in increasing order of precedence.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "config file (YAML or JSON); defaults are used when empty")
	pf.StringVar(&a.envFile, "env", ".env", "dotenv file to load before reading TRADER_* variables")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: console or json (overrides config)")
	pf.BoolVar(&a.trace, "trace", false, "print OpenTelemetry spans to stderr")

	root.AddCommand(
		newSimulateCmd(a),
		newRunCmd(a),
		newJournalCmd(a),
		newConfigCmd(),
		newPresetsCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute runs the CLI until it finishes or the process is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations["setup"] == "skip" {
		return nil
	}

	if err := config.LoadEnv(a.envFile); err != nil {
		return err
	}

	var err error
	if a.cfgPath != "" {
		a.cfg, err = config.LoadFromFile(a.cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		a.cfg = config.Default()
		if err := a.cfg.ApplyEnv(); err != nil {
			return err
		}
		if err := a.cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}

	if a.logLevel != "" {
		a.cfg.Log.Level = a.logLevel
	}
	if a.logFormat != "" {
		a.cfg.Log.Format = a.logFormat
	}
	a.log, err = logging.New(a.cfg.Log.Level, a.cfg.Log.Format)
	if err != nil {
		return err
	}

	a.shutdown, err = tracing.Setup(a.trace || a.cfg.Tracing.Enabled, cmd.ErrOrStderr(), version)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	return nil
}

func (a *app) teardown(cmd *cobra.Command, _ []string) error {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.shutdown == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.shutdown(ctx)
}
