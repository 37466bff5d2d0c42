package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"adsbtrack/internal/adsb"
	"adsbtrack/internal/demod"
)

const namespace = "adsbtrack"

// Message kinds used as the value of the kind label
const (
	KindIdentification = "identification"
	KindPosition       = "position"
	KindVelocity       = "velocity"
)

// Metrics holds the collectors of one pipeline, registered on their own registry
type Metrics struct {
	registry *prometheus.Registry

	frames      prometheus.Counter
	decoded     *prometheus.CounterVec
	undecodable prometheus.Counter
	positions   prometheus.Counter
	aircraft    prometheus.Gauge
	outputLines prometheus.Counter
}

// New creates the collectors and registers them
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		frames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_total",
			Help:      "Frames with a valid CRC received from the input.",
		}),
		decoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_decoded_total",
			Help:      "Decoded messages by kind.",
		}, []string{"kind"}),
		undecodable: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_undecodable_total",
			Help:      "Frames with an unhandled type code or invalid content.",
		}),
		positions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "positions_resolved_total",
			Help:      "Position messages that moved an aircraft.",
		}),
		aircraft: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "aircraft_tracked",
			Help:      "Aircraft currently tracked.",
		}),
		outputLines: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "basestation_lines_total",
			Help:      "BaseStation lines written.",
		}),
	}

	m.registry.MustRegister(m.frames, m.decoded, m.undecodable, m.positions, m.aircraft, m.outputLines)
	return m
}

// RegisterDemodulator exposes the counters of a demodulator
func (m *Metrics) RegisterDemodulator(stats func() demod.Stats) {
	counter := func(name, help string, value func(demod.Stats) float64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "demod",
			Name:      name,
			Help:      help,
		}, func() float64 { return value(stats()) })
	}

	m.registry.MustRegister(
		counter("preambles_total", "Preambles detected.", func(s demod.Stats) float64 { return float64(s.Preambles) }),
		counter("rejected_df_total", "Frames dropped for their downlink format.", func(s demod.Stats) float64 { return float64(s.RejectedDF) }),
		counter("rejected_crc_total", "Frames dropped for a non-zero CRC.", func(s demod.Stats) float64 { return float64(s.RejectedCRC) }),
		counter("frames_total", "Frames extracted.", func(s demod.Stats) float64 { return float64(s.ValidFrames) }),
		counter("samples_scanned_total", "Power samples scanned.", func(s demod.Stats) float64 { return float64(s.Scanned) }),
	)
}

// ObserveFrame counts a received frame
func (m *Metrics) ObserveFrame() {
	m.frames.Inc()
}

// ObserveMessage counts a decoded message, and a resolved position when moved is set
func (m *Metrics) ObserveMessage(msg adsb.Message, moved bool) {
	m.decoded.WithLabelValues(Kind(msg)).Inc()
	if moved {
		m.positions.Inc()
	}
}

// ObserveUndecodable counts a frame that Decode rejected
func (m *Metrics) ObserveUndecodable() {
	m.undecodable.Inc()
}

// ObserveOutputLines counts lines written by the BaseStation writer
func (m *Metrics) ObserveOutputLines(n int) {
	m.outputLines.Add(float64(n))
}

// SetAircraft sets the number of tracked aircraft
func (m *Metrics) SetAircraft(n int) {
	m.aircraft.Set(float64(n))
}

// Handler returns the HTTP handler exposing the metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the metrics on addr under /metrics until ctx is done
func (m *Metrics) Serve(ctx context.Context, addr string, logger *logrus.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown failed")
		}
	}()

	logger.WithField("addr", addr).Info("Serving metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}

// Kind returns the kind label of msg
func Kind(msg adsb.Message) string {
	switch msg.(type) {
	case *adsb.Identification:
		return KindIdentification
	case *adsb.Position:
		return KindPosition
	case *adsb.Velocity:
		return KindVelocity
	default:
		return "unknown"
	}
}
