// Package metrics содержит Prometheus метрики сервера и клиента репликации.
package metrics

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iudanet/gophsync/internal/replication"
)

const namespace = "gophsync"

// Metrics набор коллекторов, зарегистрированных в одном Registerer
type Metrics struct {
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
	PulledDocuments  *prometheus.CounterVec
	PushedRows       *prometheus.CounterVec
	PushConflicts    *prometheus.CounterVec
	StreamClients    *prometheus.GaugeVec
	DocumentsSent    *prometheus.CounterVec
	DocumentsRecv    *prometheus.CounterVec
	Conflicts        *prometheus.CounterVec
	ReplicationError *prometheus.CounterVec
	ReplicationState *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New регистрирует метрики в reg. Если reg это *prometheus.Registry,
// Handler отдает именно его содержимое.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		PulledDocuments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "master_pulled_documents_total",
				Help:      "Documents returned by master pull requests",
			},
			[]string{"collection"},
		),
		PushedRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "master_pushed_rows_total",
				Help:      "Rows received by master push requests",
			},
			[]string{"collection"},
		),
		PushConflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "master_push_conflicts_total",
				Help:      "Rows rejected by master as conflicts",
			},
			[]string{"collection"},
		),
		StreamClients: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "master_stream_clients",
				Help:      "Open live stream connections",
			},
			[]string{"collection"},
		),
		DocumentsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replication_documents_sent_total",
				Help:      "Documents written to master by a replication",
			},
			[]string{"replication"},
		),
		DocumentsRecv: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replication_documents_received_total",
				Help:      "Documents written to fork from master by a replication",
			},
			[]string{"replication"},
		),
		Conflicts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replication_conflicts_total",
				Help:      "Conflicts resolved by a replication",
			},
			[]string{"replication", "direction"},
		),
		ReplicationError: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replication_errors_total",
				Help:      "Errors reported by a replication",
			},
			[]string{"replication", "direction"},
		),
		ReplicationState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "replication_active",
				Help:      "1 while a replication is transferring data",
			},
			[]string{"replication"},
		),
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	} else {
		m.gatherer = prometheus.DefaultGatherer
	}

	return m
}

// Handler возвращает обработчик /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware считает запросы и их длительность.
// route берется из шаблона ServeMux, чтобы не плодить метки по id коллекций.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// Observe подписывается на события репликации и обновляет метрики,
// пока не закроются потоки событий или не отменится ctx.
func (m *Metrics) Observe(ctx context.Context, rep *replication.Replication) {
	id := rep.Identifier()

	sent, unsubSent := rep.Sent()
	received, unsubReceived := rep.Received()
	conflicts, unsubConflicts := rep.ResolvedConflicts()
	errs, unsubErrors := rep.Errors()
	active, unsubActive := rep.Active()

	go func() {
		defer func() {
			unsubSent()
			unsubReceived()
			unsubConflicts()
			unsubErrors()
			unsubActive()
			m.ReplicationState.DeleteLabelValues(id)
		}()

		for sent != nil || received != nil || conflicts != nil || errs != nil || active != nil {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sent:
				if !ok {
					sent = nil
					continue
				}
				m.DocumentsSent.WithLabelValues(id).Inc()
			case _, ok := <-received:
				if !ok {
					received = nil
					continue
				}
				m.DocumentsRecv.WithLabelValues(id).Inc()
			case rc, ok := <-conflicts:
				if !ok {
					conflicts = nil
					continue
				}
				m.Conflicts.WithLabelValues(id, string(rc.Direction)).Inc()
			case e, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				m.ReplicationError.WithLabelValues(id, string(e.Direction)).Inc()
			case a, ok := <-active:
				if !ok {
					active = nil
					continue
				}
				value := 0.0
				if a {
					value = 1
				}
				m.ReplicationState.WithLabelValues(id).Set(value)
			}
		}
	}()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack нужен websocket upgrader
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	r.status = http.StatusSwitchingProtocols
	return h.Hijack()
}
