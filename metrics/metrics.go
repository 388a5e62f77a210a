package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scale line classifications
const (
	LineStable    = "stable"
	LineUnstable  = "unstable"
	LineMalformed = "malformed"
)

var (
	axisMovesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnshop_axis_moves_total",
			Help: "Total number of completed axis moves.",
		},
		[]string{"axis"},
	)

	axisMoveSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pawnshop_axis_move_seconds",
			Help:    "Wall-clock duration of axis moves in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"axis"},
	)

	homingSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pawnshop_homing_seconds",
			Help:    "Duration of limit-switch homing in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"axis"},
	)

	scaleLinesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pawnshop_scale_lines_total",
			Help: "Lines received from the scale by classification.",
		},
		[]string{"result"},
	)

	scaleTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pawnshop_scale_timeouts_total",
			Help: "Line reads that timed out waiting for the scale.",
		},
	)

	scaleWeight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pawnshop_scale_weight",
			Help: "Last filtered weight reported by the scale.",
		},
	)
)

func init() {
	prometheus.MustRegister(axisMovesTotal)
	prometheus.MustRegister(axisMoveSeconds)
	prometheus.MustRegister(homingSeconds)
	prometheus.MustRegister(scaleLinesTotal)
	prometheus.MustRegister(scaleTimeoutsTotal)
	prometheus.MustRegister(scaleWeight)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveMove records one finished axis move.
func ObserveMove(axis string, d time.Duration) {
	axisMovesTotal.WithLabelValues(axis).Inc()
	axisMoveSeconds.WithLabelValues(axis).Observe(d.Seconds())
}

// ObserveHoming records one finished homing run.
func ObserveHoming(axis string, d time.Duration) {
	homingSeconds.WithLabelValues(axis).Observe(d.Seconds())
}

// CountScaleLine counts one received scale line (LineStable, LineUnstable or LineMalformed).
func CountScaleLine(result string) {
	scaleLinesTotal.WithLabelValues(result).Inc()
}

// CountScaleTimeout counts one line read that gave up waiting.
func CountScaleTimeout() {
	scaleTimeoutsTotal.Inc()
}

// SetWeight publishes the last filtered weight.
func SetWeight(w float64) {
	scaleWeight.Set(w)
}
