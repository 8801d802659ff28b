// Package stats gives scrapers their own Prometheus counters and gauges and
// serves them, together with the bridge metrics, on a dedicated port.
package stats

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// DefaultPort is where the stats server listens when no port is given.
const DefaultPort = 9091

// Stats registers scraper metrics under a prefix derived from the scraper slug.
type Stats struct {
	prefix   string
	registry *prometheus.Registry
}

// New creates an empty registry whose metric names start with the slug.
func New(slug string) *Stats {
	return &Stats{
		prefix:   Prefix(slug),
		registry: prometheus.NewRegistry(),
	}
}

// Prefix turns a slug into a metric name prefix, e.g. "jobs-site-nl" becomes
// "jobs_site_nl_". Every dash is replaced because Prometheus rejects metric
// names containing one.
func Prefix(slug string) string {
	return strings.ReplaceAll(slug, "-", "_") + "_"
}

// Prefix returns the metric name prefix in use.
func (s *Stats) Prefix() string {
	return s.prefix
}

// Registry exposes the underlying registry, mainly for tests.
func (s *Stats) Registry() *prometheus.Registry {
	return s.registry
}

// Counter registers <prefix><name>_count. Asking twice for the same name
// returns the counter registered first.
func (s *Stats) Counter(name string) prometheus.Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: s.prefix + name + "_count",
		Help: s.prefix + name + "_help",
	})
	return register(s.registry, c)
}

// Gauge registers <prefix><name>_gauge. Asking twice for the same name
// returns the gauge registered first.
func (s *Stats) Gauge(name string) prometheus.Gauge {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: s.prefix + name + "_gauge",
		Help: s.prefix + name + "_help",
	})
	return register(s.registry, g)
}

func register[T prometheus.Collector](reg *prometheus.Registry, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(fmt.Sprintf("stats: register %T: %v", c, err))
	}
	return c
}

// Handler serves the scraper metrics and the process wide default registry
// on /metrics. Every other path is answered with 404.
func (s *Stats) Handler() http.Handler {
	gatherers := prometheus.Gatherers{s.registry, prometheus.DefaultGatherer}
	metrics := promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{})
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/metrics" {
			http.Error(w, "Not found", http.StatusNotFound)
			return
		}
		metrics.ServeHTTP(w, r)
	})
}

// Serve listens on port until ctx is cancelled.
func (s *Stats) Serve(ctx context.Context, port int, logger *zap.Logger) error {
	if port <= 0 {
		port = DefaultPort
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort("", strconv.Itoa(port)),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving stats", zap.String("addr", fmt.Sprintf("localhost:%d/metrics", port)))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("stats server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("stats server shutdown: %w", err)
		}
		return nil
	}
}
