package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/montekkundan/newsapi/internal/compose"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()

	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *compose.ExitError
	if errors.As(err, &exitErr) {
		// The command has already reported the failure itself.
		return exitErr.Code
	}

	fmt.Fprintf(os.Stderr, "Error: %s\n", err)

	return 1
}

// app carries the loaded configuration into subcommands.
type app struct {
	cfg    *Config
	logger zerolog.Logger

	apiURL   string
	logLevel string
}

func newRootCommand() *cobra.Command {
	a := new(app)

	root := &cobra.Command{
		Use:   "newsctl",
		Short: "Lifecycle, client and load-test tool for newsapi",

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "newsapi base url (overrides api.base_url)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level (overrides log_level)")

	root.AddCommand(
		a.newBuildCommand(),
		a.newRunCommand(),
		a.newStopCommand(),
		a.newCleanCommand(),
		a.newLogsCommand(),
		a.newDBShellCommand(),
		a.newDBViewTablesCommand(),
		a.newArticlesCommand(),
		a.newBenchCommand(),
	)

	return root
}

func (a *app) init() error {
	cfg, err := LoadConfig()
	if err != nil {
		return errors.Wrap(err, "config cannot be loaded")
	}

	if a.apiURL != "" {
		cfg.API.BaseURL = a.apiURL
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return errors.Wrap(err, "invalid log level")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	zlog.Logger = zlog.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	a.cfg = cfg
	a.logger = zlog.Logger

	return nil
}
