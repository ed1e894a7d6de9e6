package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/iudanet/gophsync/internal/config"
	"github.com/iudanet/gophsync/internal/metrics"
	"github.com/iudanet/gophsync/internal/server"
	"github.com/iudanet/gophsync/internal/server/handlers"
	"github.com/iudanet/gophsync/internal/server/middleware"
	"github.com/iudanet/gophsync/internal/server/notify"
	"github.com/iudanet/gophsync/internal/server/storage/sqlite"
)

const (
	shutdownTimeout        = 10 * time.Second
	revocationCleanupEvery = time.Hour
)

// natsConnector подменяется в тестах
var natsConnector = nats.Connect

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfg := config.RegisterServerFlags(fs)
	showVersion := fs.Bool("version", false, "Show version information")
	if err := config.Parse(fs, args); err != nil {
		return err
	}
	if *showVersion {
		printVersion()
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlite.New(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close storage", "error", err)
		}
	}()
	logger.Info("Storage ready", "path", cfg.DBPath, "schema_version", store.SchemaVersion())

	var publisher notify.Publisher
	if cfg.NATSURL != "" {
		nc, err := natsConnector(cfg.NATSURL,
			nats.Name("gophsync-server"),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				logger.Warn("NATS disconnected", "error", err)
			}),
			nats.ReconnectHandler(func(nc *nats.Conn) {
				logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer nc.Close()
		publisher = nc
		logger.Info("Publishing changes to NATS", "url", cfg.NATSURL)
	}

	hub := notify.NewHub(logger, publisher)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, logger)

	router := server.NewRouter(server.Deps{
		Logger:    logger,
		Documents: store,
		Tokens:    store,
		Hub:       hub,
		Metrics:   metrics.New(registry),
		Limiter:   limiter,
		DB:        store,
		Version:   Version,
		JWT:       handlers.JWTConfig{Secret: []byte(cfg.JWTSecret)},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info("Server listening", "addr", cfg.Addr, "version", Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down")
		// live-потоки держат соединения, их закрывает hub
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(revocationCleanupEvery)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				deleted, err := store.DeleteExpiredRevocations(gctx)
				if err != nil {
					logger.Warn("Failed to clean up revocations", "error", err)
					continue
				}
				if deleted > 0 {
					logger.Info("Expired revocations removed", "count", deleted)
				}
			}
		}
	})

	return g.Wait()
}
