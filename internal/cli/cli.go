package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/pfrederiksen/comp-scout/internal/batch"
	"github.com/pfrederiksen/comp-scout/internal/competition"
	"github.com/pfrederiksen/comp-scout/internal/config"
	"github.com/pfrederiksen/comp-scout/internal/fetcher"
	"github.com/pfrederiksen/comp-scout/internal/logger"
	"github.com/pfrederiksen/comp-scout/internal/site"
	"github.com/pfrederiksen/comp-scout/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

// FetcherFactory builds the page fetcher for a run. The returned close
// function releases the browser and cache.
type FetcherFactory func(cfg *config.Config) (fetcher.Fetcher, func() error, error)

// Env is the process environment a command runs in. Nil fields fall back
// to the real process.
type Env struct {
	Stdin      io.Reader
	Stdout     io.Writer
	Stderr     io.Writer
	NewFetcher FetcherFactory
	Now        func() time.Time
}

// app carries the configuration and flags of one invocation.
type app struct {
	env Env
	cfg *config.Config

	flagReferenceDate string
	flagVerbose       bool
}

// commandError is a failure that carries report entries for the error
// payload.
type commandError struct {
	err     error
	entries []batch.ErrorEntry
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

// NewRootCmd creates the root command
func NewRootCmd(env Env) *cobra.Command {
	return newApp(env).rootCmd()
}

func (a *app) rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comp-scout",
		Short: "Extract creative-writing competitions from Australian competition sites",
		Long: `A CLI tool that scrapes competition listing and detail pages into
structured JSON records and classifies them against already-tracked
competitions. Results are written to stdout as JSON; logs go to stderr.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	cfg := a.cfg
	flags := cmd.PersistentFlags()
	flags.StringVar(&a.flagReferenceDate, "reference-date", "", "Reference date for relative dates, YYYY-MM-DD (default today)")
	flags.DurationVar(&cfg.PageTimeout, "timeout", cfg.PageTimeout, "Timeout for one page fetch")
	flags.DurationVar(&cfg.Deadline, "deadline", cfg.Deadline, "Deadline for a whole operation")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Concurrent detail fetches")
	flags.DurationVar(&cfg.RateLimit, "rate-limit", cfg.RateLimit, "Pause between fetches by one worker")
	flags.IntVar(&cfg.RetryAttempts, "retries", cfg.RetryAttempts, "Attempts per page, including the first")
	flags.StringVar(&cfg.Renderer, "renderer", cfg.Renderer, "Page renderer: chrome or static")
	flags.BoolVar(&cfg.Headless, "headless", cfg.Headless, "Run Chrome headless")
	flags.StringVar(&cfg.CacheDB, "cache-db", cfg.CacheDB, "SQLite page cache path (empty disables caching)")
	flags.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Maximum age of a cached page")
	flags.StringVar(&cfg.SitesFile, "sites-file", cfg.SitesFile, "YAML file overriding the built-in site configuration")
	flags.Float64Var(&cfg.Threshold, "threshold", cfg.Threshold, "Title similarity needed for a duplicate")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error")
	flags.BoolVar(&a.flagVerbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		a.newListingsCmd(),
		a.newURLsCmd(),
		a.newDetailCmd(),
		a.newDetailsBatchCmd(),
		a.newClassifyCmd(),
	)

	return cmd
}

func newApp(env Env) *app {
	if env.Stdin == nil {
		env.Stdin = os.Stdin
	}
	if env.Stdout == nil {
		env.Stdout = os.Stdout
	}
	if env.Stderr == nil {
		env.Stderr = os.Stderr
	}
	if env.NewFetcher == nil {
		env.NewFetcher = defaultFetcher
	}
	if env.Now == nil {
		env.Now = time.Now
	}
	return &app{env: env, cfg: config.Load()}
}

// setup runs after flag parsing and before any command.
func (a *app) setup() error {
	if a.flagVerbose {
		a.cfg.LogLevel = "debug"
	}
	level, err := logger.ParseLevel(a.cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(level, a.env.Stderr))

	return a.cfg.Validate()
}

// referenceDate returns the --reference-date value or today's date. This
// is the only place the wall clock is read for date math.
func (a *app) referenceDate() (competition.Date, error) {
	if a.flagReferenceDate == "" {
		return competition.DateOf(a.env.Now()), nil
	}
	d, err := competition.ParseDate(strings.TrimSpace(a.flagReferenceDate))
	if err != nil {
		return competition.Date{}, fmt.Errorf("invalid --reference-date: %w", err)
	}
	return d, nil
}

func (a *app) registry() (*site.Registry, error) {
	if a.cfg.SitesFile == "" {
		return site.Default(), nil
	}
	return site.LoadFile(a.cfg.SitesFile)
}

// orchestrator builds the fetch pipeline. The caller must call the
// returned close function.
func (a *app) orchestrator(sites *site.Registry) (*batch.Orchestrator, func(), error) {
	f, closeFetcher, err := a.env.NewFetcher(a.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing fetcher: %w", err)
	}

	o := batch.New(f, sites, batch.Options{
		Workers:   a.cfg.Workers,
		Deadline:  a.cfg.Deadline,
		RateLimit: a.cfg.RateLimit,
		Now:       a.env.Now,
		Progress:  a.env.Stderr,
	})
	return o, func() {
		if closeFetcher == nil {
			return
		}
		if err := closeFetcher(); err != nil {
			logger.Warn("Closing fetcher failed", logger.Fields{"error": err.Error()})
		}
	}, nil
}

// defaultFetcher wires the configured renderer behind retry and, when a
// cache path is set, the page cache.
func defaultFetcher(cfg *config.Config) (fetcher.Fetcher, func() error, error) {
	var closers []func() error
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	var base fetcher.Fetcher
	switch cfg.Renderer {
	case config.RendererStatic:
		base = fetcher.NewStatic(cfg.PageTimeout)
	default:
		chrome, err := fetcher.NewChrome(fetcher.ChromeOptions{
			Timeout:     cfg.PageTimeout,
			RenderWait:  cfg.RenderWait,
			ScrollCount: cfg.ScrollCount,
			ScrollDelay: cfg.ScrollDelay,
			Headless:    cfg.Headless,
			ExecPath:    cfg.ChromePath,
		})
		if err != nil {
			return nil, nil, err
		}
		base = chrome
		closers = append(closers, chrome.Close)
	}

	var f fetcher.Fetcher = fetcher.WithRetry(base, fetcher.RetryOptions{
		Attempts:  cfg.RetryAttempts,
		BaseDelay: cfg.RetryBaseDelay,
	})

	if cfg.CacheDB != "" {
		path, err := storage.ExpandPath(cfg.CacheDB)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		cache, err := fetcher.NewCache(path, cfg.CacheTTL)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		closers = append(closers, cache.Close)
		f = cache.Wrap(f)
	}

	return f, closeAll, nil
}

// Run executes the CLI with args and returns the process exit code.
func Run(args []string, env Env) int {
	a := newApp(env)
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(a.env.Stdin)
	cmd.SetOut(a.env.Stderr)
	cmd.SetErr(a.env.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cmd.ExecuteContext(ctx)
	logger.Debug("Metrics", logger.DefaultMetrics().Snapshot().Fields())
	if err == nil {
		return ExitSuccess
	}

	logger.Error("Command failed", nil, err)
	var entries []batch.ErrorEntry
	var ce *commandError
	if errors.As(err, &ce) {
		entries = ce.entries
	}
	if werr := writeError(a.env.Stdout, err, entries); werr != nil {
		fmt.Fprintf(a.env.Stderr, "Error: %v\n", err)
	}
	return ExitError
}

// Execute runs the CLI
func Execute() {
	os.Exit(Run(os.Args[1:], Env{}))
}
