// Package metrics provides Prometheus instrumentation for the settlement
// engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// TradesTotal counts margin trades, partitioned by direction and
	// lifecycle event (open, close).
	TradesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_trades_total",
		Help: "Total number of margin trade events",
	}, []string{"direction", "event"})

	// OptionsTotal counts binary option resolutions by outcome.
	OptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_options_total",
		Help: "Total number of binary option events",
	}, []string{"event"})

	// Rejections counts business rejections by operation and class.
	Rejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_rejections_total",
		Help: "Business rejections by operation and rejection class",
	}, []string{"operation", "class"})

	// StakesActive tracks the number of open user stakes.
	StakesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simengine_stakes_active",
		Help: "Number of currently open user stakes",
	})

	// LotteryDraws counts completed lottery draws.
	LotteryDraws = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simengine_lottery_draws_total",
		Help: "Completed lottery draws",
	})

	// FeedTicks counts price updates received per upstream feed.
	FeedTicks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_feed_ticks_total",
		Help: "Price ticks received from upstream feeds",
	}, []string{"feed"})

	// FeedReconnects counts feed connection failures.
	FeedReconnects = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_feed_reconnects_total",
		Help: "Upstream feed reconnect attempts",
	}, []string{"feed"})

	// WebSocketClients tracks connected notification clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simengine_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "simengine_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simengine_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; the API surface is small and
		// fixed, so cardinality stays bounded.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
