package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Malformed line reasons
const (
	ReasonMalformed = "malformed"
	ReasonAddress   = "address"
	ReasonTooLong   = "too_long"
	ReasonOverflow  = "overflow"
)

// Metrics holds the transmitter's Prometheus collectors
type Metrics struct {
	registry *prometheus.Registry

	pagesTotal       *prometheus.CounterVec
	codewordsTotal   prometheus.Counter
	malformedTotal   *prometheus.CounterVec
	transmitErrors   prometheus.Counter
	transmissionTime prometheus.Histogram
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		pagesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pocsag_pages_total",
			Help: "Pages transmitted, by encoding mode",
		}, []string{"mode"}),
		codewordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pocsag_codewords_total",
			Help: "Codewords sent to the transmitter, preamble included",
		}),
		malformedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pocsag_malformed_lines_total",
			Help: "Input lines rejected before encoding",
		}, []string{"reason"}),
		transmitErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pocsag_transmit_errors_total",
			Help: "Transmissions that failed at the output",
		}),
		transmissionTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pocsag_transmission_seconds",
			Help:    "Air time of each page including all repeats",
			Buckets: []float64{0.5, 1, 2, 4, 8, 16, 32},
		}),
	}

	m.registry.MustRegister(
		m.pagesTotal,
		m.codewordsTotal,
		m.malformedTotal,
		m.transmitErrors,
		m.transmissionTime,
		collectors.NewGoCollector(),
	)

	return m
}

// Registry returns the registry backing the metrics
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// PageSent records a completed transmission
func (m *Metrics) PageSent(mode string, words int, airTime time.Duration) {
	m.pagesTotal.WithLabelValues(mode).Inc()
	m.codewordsTotal.Add(float64(words))
	m.transmissionTime.Observe(airTime.Seconds())
}

// LineRejected records a line that failed to parse
func (m *Metrics) LineRejected(reason string) {
	m.malformedTotal.WithLabelValues(reason).Inc()
}

// TransmitFailed records an output error
func (m *Metrics) TransmitFailed() {
	m.transmitErrors.Inc()
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve runs a /metrics HTTP server on addr until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.WithField("addr", listener.Addr().String()).Info("Metrics server listening")

	if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
