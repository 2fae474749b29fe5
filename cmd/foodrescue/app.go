package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"foodrescue/internal/api"
	"foodrescue/internal/dashboard"
	dashboardmetrics "foodrescue/internal/dashboard/metrics"
	"foodrescue/internal/federated"
	"foodrescue/internal/federated/google"
	"foodrescue/internal/gateway"
	gatewaymetrics "foodrescue/internal/gateway/metrics"
	"foodrescue/internal/platform/config"
	"foodrescue/internal/platform/logger"
	"foodrescue/internal/platform/metrics"
	platformredis "foodrescue/internal/platform/redis"
	"foodrescue/internal/session"
	sessionmetrics "foodrescue/internal/session/metrics"
	"foodrescue/internal/session/store"
	"foodrescue/pkg/requestcontext"
)

const userAgent = "foodrescue-cli"

// Exit codes.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

type env struct {
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string
	// provider overrides the Google provider; tests use it.
	provider federated.Provider
}

// app is one fully wired invocation.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	session    *session.Manager
	api        *api.Client
	dashboards *dashboard.Loader
	provider   federated.Provider
	stdout     io.Writer
	stderr     io.Writer
	closers    []func() error
}

// usageError is reported with exit code 2.
type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func run(ctx context.Context, args []string, e env) int {
	cfg, err := config.Load(e.getenv)
	if err != nil {
		fmt.Fprintf(e.stderr, "invalid configuration: %v\n", err)
		return exitUsage
	}

	fs := flag.NewFlagSet("foodrescue", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVar(&cfg.API.BaseURL, "api", cfg.API.BaseURL, "Backend API base URL")
	fs.StringVar(&cfg.Session.Store, "store", cfg.Session.Store, "Session store: file, redis or memory")
	fs.StringVar(&cfg.Session.File, "session-file", cfg.Session.File, "Session file path (file store)")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Log.Format, "log-format", cfg.Log.Format, "Log format: text or json")
	fs.StringVar(&cfg.MetricsTextfile, "metrics-textfile", cfg.MetricsTextfile, "Write Prometheus metrics to this file on exit")
	fs.Usage = func() {
		fmt.Fprintln(e.stderr, "Usage: foodrescue [flags] <command> [args]")
		fmt.Fprintln(e.stderr)
		fmt.Fprintln(e.stderr, "Commands:")
		for _, c := range commands {
			fmt.Fprintf(e.stderr, "  %-28s %s\n", c.name, c.summary)
		}
		fmt.Fprintln(e.stderr)
		fmt.Fprintln(e.stderr, "Flags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(e.stderr, "invalid configuration: %v\n", err)
		return exitUsage
	}

	cmd, rest, ok := lookup(fs.Args())
	if !ok {
		fs.Usage()
		return exitUsage
	}

	a, err := newApp(ctx, cfg, e)
	if err != nil {
		fmt.Fprintf(e.stderr, "%v\n", err)
		return exitError
	}
	defer a.close()

	err = a.exec(ctx, cmd, rest)
	a.metrics.IncrementCommand(cmd.name, err)
	a.dumpMetrics()

	var ue *usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &ue):
		if ue.msg != "" {
			fmt.Fprintln(e.stderr, ue.msg)
		}
		return exitUsage
	default:
		fmt.Fprintln(e.stderr, message(err))
		return exitError
	}
}

func newApp(ctx context.Context, cfg config.Config, e env) (*app, error) {
	log, err := logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: e.stderr})
	if err != nil {
		return nil, err
	}
	registry := metrics.NewRegistry()
	a := &app{
		cfg:      cfg,
		logger:   log,
		registry: registry,
		metrics:  metrics.New(registry),
		stdout:   e.stdout,
		stderr:   e.stderr,
	}

	st, err := a.openStore(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	tokens := session.NewStoreTokens(st, log)
	gw, err := gateway.New(cfg.API.BaseURL,
		gateway.WithTokenSource(tokens),
		gateway.WithLogger(log),
		gateway.WithMetrics(gatewaymetrics.New(registry)),
		gateway.WithUserAgent(userAgent),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.api = api.New(gw)

	a.session, err = session.New(st, a.api.Auth,
		session.WithLogger(log),
		session.WithMetrics(sessionmetrics.New(registry)),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	tokens.Follow(a.session)

	a.dashboards, err = dashboard.New(a.api.Donor, a.api.NGO, a.api.Admin,
		dashboard.WithLogger(log),
		dashboard.WithMetrics(dashboardmetrics.New(registry)),
	)
	if err != nil {
		a.close()
		return nil, err
	}

	a.provider = e.provider
	if a.provider == nil && cfg.GoogleEnabled() {
		p, err := google.New(google.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
		}, google.WithLogger(log), google.WithBrowser(google.PrintURL(e.stderr)))
		if err != nil {
			a.close()
			return nil, err
		}
		a.provider = p
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) (session.Store, error) {
	switch a.cfg.Session.Store {
	case config.StoreMemory:
		return store.NewInMemory(), nil

	case config.StoreRedis:
		client, err := platformredis.New(ctx, a.cfg.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return store.NewRedis(client.Client,
			store.WithKeyPrefix(a.cfg.Redis.Prefix),
			store.WithTokenExpiry(session.TokenExpiry),
		), nil

	default:
		path := a.cfg.Session.File
		if path == "" {
			var err error
			if path, err = store.DefaultPath(); err != nil {
				return nil, err
			}
		}
		key, err := a.cfg.Session.EncryptionKey()
		if err != nil {
			return nil, err
		}
		return store.NewFile(path, store.WithEncryptionKey(key))
	}
}

// exec restores the session, then runs the command.
func (a *app) exec(ctx context.Context, cmd command, args []string) error {
	if err := a.session.Restore(ctx); err != nil {
		return fmt.Errorf("could not restore session: %w", err)
	}
	select {
	case <-a.session.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}
	ctx = requestcontext.WithCorrelationID(ctx, uuid.NewString())
	ctx = requestcontext.WithCommand(ctx, cmd.name)
	a.logger.DebugContext(ctx, "running command",
		"command", cmd.name,
		"state", a.session.State(),
		"correlation_id", requestcontext.CorrelationID(ctx),
	)
	return cmd.run(ctx, a, args)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) dumpMetrics() {
	if a.cfg.MetricsTextfile == "" {
		return
	}
	if err := metrics.WriteTextfile(a.cfg.MetricsTextfile, a.registry); err != nil {
		a.logger.Warn("metrics dump failed", "error", err)
	}
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil && a.logger != nil {
			a.logger.Debug("close failed", "error", err)
		}
	}
}

// message is the line shown to the user for err.
func message(err error) string {
	var pe *federated.ProviderError
	if errors.As(err, &pe) || errors.Is(err, federated.ErrNotConfigured) {
		return federated.UserMessage(err)
	}
	return strings.TrimSpace(err.Error())
}
