package prometheus

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shredlink/shredlink/config"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 10 * time.Second
	defaultPort       = 9090
)

// Link lifecycle counters, scraped via /metrics.
var (
	LinksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shredlink_links_created_total",
		Help: "Number of share links created.",
	})

	LinksDisclosed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shredlink_links_disclosed_total",
		Help: "Number of times a link payload was disclosed.",
	})

	UnlockFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shredlink_unlock_failures_total",
		Help: "Number of unlock attempts rejected for a wrong password.",
	})

	LinksSwept = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shredlink_links_swept_total",
		Help: "Number of dead links removed by the cleanup sweeper.",
	})

	CreationsThrottled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shredlink_creations_throttled_total",
		Help: "Number of create requests rejected by the rate limiter.",
	})
)

// NewServer builds a basic HTTP server that exposes /metrics for Prometheus scraping.
func NewServer(cfg config.PrometheusConfig) *http.Server {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}
}
