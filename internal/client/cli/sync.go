package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/iudanet/gophsync/internal/client/sync"
	"github.com/iudanet/gophsync/internal/metrics"
	"github.com/iudanet/gophsync/internal/replication"
)

func (c *Cli) syncService(ctx context.Context) (sync.Service, error) {
	if c.newSync == nil {
		return nil, errors.New("synchronization is not configured")
	}
	return c.newSync(ctx)
}

func (c *Cli) runSync(ctx context.Context) error {
	c.io.Println("=== Synchronization ===")
	c.io.Println()

	syncService, err := c.syncService(ctx)
	if err != nil {
		return err
	}

	c.io.Println("Starting synchronization with master...")

	result, err := syncService.Sync(ctx)
	if err != nil {
		if result != nil && result.Errors > 0 {
			c.io.Printf("Failed attempts: %d\n", result.Errors)
		}
		return fmt.Errorf("synchronization failed: %w", err)
	}

	c.io.Println()
	c.io.Println("✓ Synchronization completed successfully!")
	c.io.Println()
	c.io.Printf("Pushed to master:   %d document(s)\n", result.Pushed)
	c.io.Printf("Pulled from master: %d document(s)\n", result.Pulled)
	if result.Conflicts > 0 {
		c.io.Printf("Conflicts resolved: %d\n", result.Conflicts)
	}
	if result.Errors > 0 {
		c.io.Printf("Retried steps:      %d\n", result.Errors)
	}
	return nil
}

// runWatch ведет live репликацию до отмены ctx (Ctrl+C)
func (c *Cli) runWatch(ctx context.Context) error {
	c.io.Println("=== Live Replication ===")
	c.io.Println()

	syncService, err := c.syncService(ctx)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if c.metricsAddr != "" {
		m = metrics.New(prometheus.NewRegistry())
		stop, err := c.serveMetrics(m)
		if err != nil {
			return err
		}
		defer stop()
	}

	c.io.Printf("Replicating collection %q, press Ctrl+C to stop.\n", c.collection)
	c.io.Println()

	err = syncService.Watch(ctx, func(rep *replication.Replication) {
		if m != nil {
			m.Observe(ctx, rep)
		}
		c.report(ctx, rep)
	})
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Replication stopped.")
	return nil
}

// report печатает документы, переданные в обе стороны
func (c *Cli) report(ctx context.Context, rep *replication.Replication) {
	sent, unsubSent := rep.Sent()
	received, unsubReceived := rep.Received()

	go func() {
		defer unsubSent()
		defer unsubReceived()
		for sent != nil || received != nil {
			select {
			case <-ctx.Done():
				return
			case doc, ok := <-sent:
				if !ok {
					sent = nil
					continue
				}
				c.io.Printf("→ %s (timestamp %d)\n", doc.ID, doc.Timestamp)
			case doc, ok := <-received:
				if !ok {
					received = nil
					continue
				}
				c.io.Printf("← %s (timestamp %d)\n", doc.ID, doc.Timestamp)
			}
		}
	}()
}

// serveMetrics поднимает HTTP сервер /metrics и возвращает функцию остановки
func (c *Cli) serveMetrics(m *metrics.Metrics) (func(), error) {
	ln, err := net.Listen("tcp", c.metricsAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen metrics address: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.logger.Error("Metrics server failed", "error", err)
		}
	}()
	c.io.Printf("Metrics: http://%s/metrics\n", ln.Addr())

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			c.logger.Warn("Failed to stop metrics server", "error", err)
		}
	}, nil
}
