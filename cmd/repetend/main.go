package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"repetend/internal/catalog"
	"repetend/internal/config"
	"repetend/internal/logging"
	"repetend/internal/store"
	"repetend/internal/survey"
)

// app carries global flag values and lazily opened resources for one
// command invocation.
type app struct {
	verbose    bool
	workspace  string
	configPath string
	jsonOut    bool
	noCache    bool
	timeout    time.Duration

	cfg   *config.Config
	store *store.LocalStore
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "repetend",
		Short: "repetend - exact periods of rational expansions in any base",
		Long: `repetend computes the exact positional expansion of p/q in any base,
separating the non-repeating prefix from the repeating block.

It also converts integers between bases, computes multiplicative orders,
profiles period digits against reference constants and surveys ranges of
denominators. Results are cached in a SQLite database under .repetend/.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&a.workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (default: <workspace>/.repetend/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().BoolVar(&a.noCache, "no-cache", false, "Bypass the SQLite cache")
	rootCmd.PersistentFlags().DurationVar(&a.timeout, "timeout", 0, "Operation timeout (default: survey.timeout from config)")

	rootCmd.AddCommand(
		a.extractCmd(),
		a.reciprocalCmd(),
		a.toBaseCmd(),
		a.orderCmd(),
		a.compareCmd(),
		a.analyzeCmd(),
		a.rationalCmd(),
		a.surveyCmd(),
		a.cacheCmd(),
		a.catalogCmd(),
		a.configCmd(),
	)
	deferTeardown(rootCmd, a)
	return rootCmd
}

// deferTeardown makes every runnable command release the store and flush
// logs on return. PersistentPostRun is skipped when RunE fails.
func deferTeardown(cmd *cobra.Command, a *app) {
	for _, c := range cmd.Commands() {
		if run := c.RunE; run != nil {
			c.RunE = func(cmd *cobra.Command, args []string) error {
				defer a.teardown()
				return run(cmd, args)
			}
		}
		deferTeardown(c, a)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup resolves the workspace, loads config and initializes logging.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to resolve workspace: %w", err)
		}
		a.workspace = wd
	}
	path := a.configPath
	if path == "" {
		path = config.DefaultPath(a.workspace)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	a.cfg = cfg
	a.configPath = path

	settings := cfg.Logging.Settings(a.workspace)
	if a.verbose {
		settings.DebugMode = true
		settings.Level = "debug"
	}
	for _, p := range settings.OutputPaths {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	if err := logging.Initialize(settings); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	logging.Boot("repetend %s: workspace=%s config=%s", cfg.Version, a.workspace, path)
	return nil
}

func (a *app) teardown() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			logging.StoreWarn("Failed to close store: %v", err)
		}
		a.store = nil
	}
	_ = logging.Sync()
}

// context returns a context bounded by --timeout (or the configured survey
// timeout) and cancelled on SIGINT/SIGTERM.
func (a *app) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	timeout := a.timeout
	if timeout <= 0 {
		timeout = a.cfg.GetSurveyTimeout()
	}
	ctx, cancel := context.WithTimeout(parent, timeout)
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	return ctx, func() {
		stop()
		cancel()
	}
}

// openStore opens the cache on first use. It returns nil when caching is
// disabled by flag or config.
func (a *app) openStore() (*store.LocalStore, error) {
	if a.noCache || !a.cfg.Store.Enabled {
		return nil, nil
	}
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.Open(config.ResolvePath(a.workspace, a.cfg.Store.DatabasePath))
	if err != nil {
		return nil, err
	}
	a.store = s
	return s, nil
}

// requireStore is openStore for commands that only operate on the cache.
func (a *app) requireStore() (*store.LocalStore, error) {
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("cache disabled (store.enabled=false or --no-cache)")
	}
	return s, nil
}

func (a *app) catalog() (*catalog.Catalog, error) {
	return catalog.Load(config.ResolvePath(a.workspace, a.cfg.Catalog.Path))
}

// surveyor builds a Surveyor for base, recording runs when the cache is on.
func (a *app) surveyor(base int) (*survey.Surveyor, error) {
	opts := survey.Options{
		Base:          base,
		Workers:       a.cfg.Survey.Workers,
		ChunkSize:     a.cfg.Survey.ChunkSize,
		SlowThreshold: a.cfg.GetSlowThreshold(),
	}
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}
	if s == nil {
		return survey.New(opts, nil), nil
	}
	return survey.New(opts, s), nil
}

func (a *app) out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
