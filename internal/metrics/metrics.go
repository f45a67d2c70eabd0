package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Metrics holds the Prometheus instruments for the scan pipeline.
type Metrics struct {
	ScansTotal      *prometheus.CounterVec // labels: symbol, timeframe
	ScanErrorsTotal *prometheus.CounterVec // labels: stage

	FetchDuration prometheus.Histogram
	ScanDuration  prometheus.Histogram

	LastScore *prometheus.GaugeVec // labels: symbol

	NarrativeFailures prometheus.Counter
	JournalErrors     prometheus.Counter
}

// New registers and returns the pipeline metrics on reg. Passing nil
// registers on the default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ScansTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_scans_total",
			Help: "Completed scan pipeline runs",
		}, []string{"symbol", "timeframe"}),
		ScanErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_scan_errors_total",
			Help: "Failed scan pipeline runs by stage",
		}, []string{"stage"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_fetch_duration_seconds",
			Help:    "Candle fetch latency against the market data API",
			Buckets: prometheus.DefBuckets,
		}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_scan_duration_seconds",
			Help:    "Full pipeline latency from fetch to verdict",
			Buckets: prometheus.DefBuckets,
		}),
		LastScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "dashboard_last_signal_score",
			Help: "Signal score of the most recent scan per symbol",
		}, []string{"symbol"}),
		NarrativeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_narrative_failures_total",
			Help: "Narrative requests no configured model could serve",
		}),
		JournalErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_journal_errors_total",
			Help: "Scan journal writes that failed",
		}),
	}

	reg.MustRegister(
		m.ScansTotal,
		m.ScanErrorsTotal,
		m.FetchDuration,
		m.ScanDuration,
		m.LastScore,
		m.NarrativeFailures,
		m.JournalErrors,
	)
	return m
}

// Server exposes /metrics and /healthz on its own listener.
type Server struct {
	srv     *http.Server
	logger  zerolog.Logger
	started time.Time
}

// NewServer builds the metrics listener for addr.
func NewServer(addr string) *Server {
	s := &Server{
		logger:  log.With().Str("component", "metrics").Logger(),
		started: time.Now(),
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)

	s.srv = &http.Server{Addr: addr, Handler: mux}
	return s
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		Status string `json:"status"`
		Uptime string `json:"uptime"`
	}{
		Status: "ok",
		Uptime: time.Since(s.started).Round(time.Second).String(),
	})
}

// Start launches the listener in a goroutine.
func (s *Server) Start() {
	go func() {
		s.logger.Info().Str("addr", s.srv.Addr).Msg("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server stopped")
		}
	}()
}

// Stop shuts the listener down.
func (s *Server) Stop(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Metrics server shutdown failed")
	}
}
