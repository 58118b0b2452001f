// Package main provides the portfolio CLI: serve the page, render it to a
// static file, or validate a profile document.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/portfolio/internal/config"
	"github.com/jonathan/portfolio/internal/fetch"
	"github.com/jonathan/portfolio/internal/loader"
	"github.com/jonathan/portfolio/internal/observability"
	"github.com/jonathan/portfolio/internal/rendering"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds the state shared by every subcommand once PersistentPreRunE has run.
type app struct {
	configPath string
	logLevel   string
	verbose    bool
	source     string
	template   string

	cfg    config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "portfolio",
		Short: "Single-page portfolio renderer",
		Long: `Renders a personal portfolio page from a static JSON profile document.

Configuration is read from --config (JSON or YAML), then PORTFOLIO_* environment
variables, then command-line flags. Later sources win.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to config file (JSON or YAML)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Print detailed debug information")
	root.PersistentFlags().StringVarP(&a.source, "source", "s", "", "Profile document path or http(s) URL (default data.json)")
	root.PersistentFlags().StringVar(&a.template, "template", "", "Override HTML template file")

	root.AddCommand(newServeCmd(a), newRenderCmd(a), newValidateCmd(a))
	return root
}

// setup resolves configuration and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var cfg config.Config
	if a.configPath != "" {
		loaded, err := config.LoadConfig(a.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("source") {
		cfg.Source = a.source
	}
	if flags.Changed("template") {
		cfg.Template = a.template
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("verbose") {
		cfg.Verbose = a.verbose
	}
	if flags.Lookup("port") != nil && flags.Changed("port") {
		port, err := flags.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Port = port
	}

	cfg = cfg.MergeWithDefaults(config.Defaults())
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	logger, err := observability.NewLogger(cfg.LogLevel, cfg.Verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	a.logger.Debug("Configuration resolved",
		zap.String("source", cfg.Source),
		zap.String("template", cfg.Template),
		zap.Int("port", cfg.Port))
	return nil
}

// newSource returns the loader for the configured profile location.
func (a *app) newSource() loader.Source {
	opts := fetch.DefaultOptions()
	opts.Timeout = a.cfg.Timeout(fetch.DefaultTimeout)
	return loader.New(a.cfg.Source, opts)
}

// newRenderer returns the embedded renderer or the configured override.
func (a *app) newRenderer() (*rendering.Renderer, error) {
	if a.cfg.Template != "" {
		return rendering.NewFromFile(a.cfg.Template)
	}
	return rendering.New()
}

func (a *app) contact() rendering.Contact {
	return rendering.Contact{
		Email:    a.cfg.Email,
		LinkedIn: a.cfg.LinkedIn,
		GitHub:   a.cfg.GitHub,
	}
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
