package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/togglr/togglr-admin/internal/api"
	"github.com/togglr/togglr-admin/internal/config"
	"github.com/togglr/togglr-admin/internal/notify"
	"github.com/togglr/togglr-admin/internal/session"
)

// app bundles what a command needs to talk to the backend
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *session.Store
	client   *api.Client
	session  *session.Manager
	notifier notify.Notifier
	closers  []io.Closer
}

type appOptions struct {
	// logFile forces logging to the rotating file even when none is
	// configured
	logFile bool
	// notifier replaces the stderr notifier
	notifier notify.Notifier
	// transport wraps the HTTP transport of the API client
	transport http.RoundTripper
}

// loadConfig reads the config file and applies command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}
	if statePath != "" {
		cfg.State.Path = statePath
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}

	a := &app{cfg: cfg}

	logOut := cmd.ErrOrStderr()
	if opts.logFile || cfg.Logging.File != "" {
		file := cfg.Logging.File
		if file == "" {
			file = defaultLogFile()
		}
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    cfg.Logging.MaxSizeMB,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAgeDays,
		}
		a.closers = append(a.closers, lj)
		logOut = lj
	}
	a.logger = newLogger(logOut, cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(a.logger)

	a.notifier = opts.notifier
	if a.notifier == nil {
		a.notifier = notify.NewWriter(cmd.ErrOrStderr())
	}

	a.store, err = session.NewStore(cfg.State.Path, cfg.State.LockTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to open session state: %w", err)
	}

	httpClient := &http.Client{}
	if opts.transport != nil {
		httpClient.Transport = opts.transport
	}
	a.client = api.NewClient(cfg.API.BaseURL,
		api.WithHTTPClient(httpClient),
		api.WithTokenSource(a.store),
		api.WithTimeout(cfg.API.Timeout),
		api.WithLogger(a.logger),
	)
	a.session = session.NewManager(a.store, a.client, a.notifier, a.logger)

	if err := a.session.Init(cmd.Context()); err != nil {
		a.logger.Warn("failed to restore session", "error", err)
	}
	return a, nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		c.Close()
	}
}

// requireSession fails unless a session is active. requireRoot additionally
// demands a root role.
func (a *app) requireSession(requireRoot bool) (session.Session, error) {
	switch a.session.Guard(requireRoot) {
	case session.Allow:
		return a.session.Require()
	case session.RedirectLanding:
		return session.Session{}, fmt.Errorf("this command requires an administrator role")
	default:
		return session.Session{}, fmt.Errorf("%w (run togglr-admin login)", session.ErrNotAuthenticated)
	}
}

func defaultLogFile() string {
	return filepath.Join(config.Dir(), "togglr-admin.log")
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func withApp(opts appOptions, run func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd, opts)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(cmd.Context(), cmd, a, args)
	}
}
