// Copyright 2025 James Ross
package obs

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flyingrobots/gbe/internal/config"
)

var (
	MessagesPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gbe_messages_published_total",
		Help: "Total number of messages published, by subject domain",
	}, []string{"domain"})
	MessagesDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gbe_messages_delivered_total",
		Help: "Total number of messages delivered to a subscriber handler",
	}, []string{"domain"})
	MessagesAcked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gbe_messages_acked_total",
		Help: "Total number of messages acknowledged",
	}, []string{"domain"})
	MessagesNaked = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gbe_messages_naked_total",
		Help: "Total number of messages negatively acknowledged",
	}, []string{"domain"})
	MessagesDeadLettered = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gbe_messages_dead_lettered_total",
		Help: "Total number of messages routed to a dead-letter subject",
	}, []string{"domain"})
	HandlerDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "gbe_handler_duration_seconds",
		Help:    "Histogram of subscriber handler durations",
		Buckets: prometheus.DefBuckets,
	})
	PendingEntries = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gbe_pending_entries",
		Help: "Current size of a consumer group's pending entries list",
	}, []string{"subject", "group"})
	SweeperReclaimed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gbe_sweeper_reclaimed_total",
		Help: "Total number of stuck task records reclaimed by the sweeper",
	}, []string{"from_state"})
	SweeperScans = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gbe_sweeper_scans_total",
		Help: "Total number of sweeper scan cycles that held the singleton lock",
	})
	LockHeld = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "gbe_lock_held",
		Help: "1 if this process currently holds the named distributed lock, else 0",
	}, []string{"key"})
)

func init() {
	prometheus.MustRegister(MessagesPublished, MessagesDelivered, MessagesAcked, MessagesNaked,
		MessagesDeadLettered, HandlerDuration, PendingEntries, SweeperReclaimed, SweeperScans, LockHeld)
}

// StartMetricsServer exposes /metrics and returns a server for controlled shutdown.
// StartMetricsServer is retained for compatibility but consider using StartHTTPServer
// which also registers health endpoints.
func StartMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Observability.MetricsPort), Handler: mux}
	go func() { _ = srv.ListenAndServe() }()
	return srv
}
