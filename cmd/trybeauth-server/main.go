// trybeauth-server serves the Pistis Trybe auth routes over HTTP.
//
// Configuration comes from TRYBE_* environment variables (TRYBE_JWT_SECRET
// is required) plus the flags below. The identity store is selected with
// --store:
//
//	sqlite     a local SQLite file at --sqlite-path (default)
//	redis      a Redis server at --redis-addr
//	miniredis  an in-process Redis, for local development only
//
// Routes:
//
//	POST /v1/auth/register  {"email":"...","password":"...","role":"..."}
//	POST /v1/auth/login     {"email":"...","password":"..."}
//	POST /v1/auth/logout    requires a bearer token
//	GET  /v1/users/me       requires a bearer token
//	GET  /metrics           Prometheus text exposition
//
// Run:
//
//	TRYBE_JWT_SECRET=$(openssl rand -hex 32) go run ./cmd/trybeauth-server --store miniredis
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	trybeauth "github.com/pististrybe/trybeauth"
	"github.com/pististrybe/trybeauth/httpapi"
	"github.com/pististrybe/trybeauth/metrics/export/prometheus"
	"github.com/pististrybe/trybeauth/store/redisstore"
	"github.com/pististrybe/trybeauth/store/sqlitestore"
)

type options struct {
	addr        string
	store       string
	redisAddr   string
	redisPrefix string
	sqlitePath  string
	logLevel    string
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("trybeauth-server", pflag.ContinueOnError)
	flagSet.StringVar(&opts.addr, "addr", ":8080", "HTTP listen address")
	flagSet.StringVar(&opts.store, "store", "sqlite", "identity store: sqlite, redis or miniredis")
	flagSet.StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "redis address for --store redis")
	flagSet.StringVar(&opts.redisPrefix, "redis-prefix", "tb", "redis key prefix")
	flagSet.StringVar(&opts.sqlitePath, "sqlite-path", "trybeauth.db", "sqlite database file for --store sqlite")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", opts.logLevel, err)
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := trybeauth.LoadConfigFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, closeStore, err := openStore(opts)
	if err != nil {
		return err
	}
	defer closeStore()

	builder := trybeauth.New().
		WithConfig(cfg).
		WithIdentityStore(store).
		WithLogger(logger)
	if cfg.Audit.Enabled {
		builder = builder.WithAuditSink(trybeauth.NewSlogSink(logger.With("component", "audit")))
	}
	engine, err := builder.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	metrics := prometheus.New(engine)
	handler := httpapi.New(engine, logger).Routes(func(mux *http.ServeMux) {
		mux.Handle("GET /metrics", metrics.Handler())
	})

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", opts.addr, "store", opts.store)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func openStore(opts options) (trybeauth.IdentityStore, func(), error) {
	switch opts.store {
	case "sqlite":
		store, err := sqlitestore.Open(opts.sqlitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, func() { _ = store.Close() }, nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", opts.redisAddr, err)
		}
		return redisstore.New(rdb, opts.redisPrefix), closer(rdb), nil

	case "miniredis":
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		return redisstore.New(rdb, opts.redisPrefix), func() {
			closer(rdb)()
			mr.Close()
		}, nil
	}
	return nil, nil, fmt.Errorf("unknown --store %q", opts.store)
}

func closer(c io.Closer) func() {
	return func() { _ = c.Close() }
}
