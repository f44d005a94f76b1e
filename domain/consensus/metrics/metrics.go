// Package metrics holds the prometheus collectors of block validation.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Block processing results, used as the value of the result label.
const (
	ResultAccepted = "accepted"
	ResultOrphan   = "orphan"
	ResultInvalid  = "invalid"
	ResultError    = "error"
)

var (
	prometheusBlocksProcessed *prometheus.CounterVec
	prometheusConnectDuration prometheus.Histogram
	prometheusReorgDepth      prometheus.Histogram
	prometheusScriptChecks    prometheus.Counter
	prometheusOrphans         prometheus.Gauge
	prometheusTipHeight       prometheus.Gauge

	// only init the metrics once
	prometheusMetricsInitOnce sync.Once
)

// Init registers the collectors with the default registry. It is safe to
// call more than once.
func Init() {
	prometheusMetricsInitOnce.Do(initPrometheusMetrics)
}

func initPrometheusMetrics() {
	prometheusBlocksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "freicoind",
			Name:      "blocks_processed",
			Help:      "Number of blocks processed, by result",
		},
		[]string{"result"},
	)
	prometheusConnectDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "freicoind",
			Name:      "block_connect_seconds",
			Help:      "Time taken to connect a block to the active chain",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
		},
	)
	prometheusReorgDepth = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "freicoind",
			Name:      "reorg_depth",
			Help:      "Number of blocks disconnected by a reorganization",
			Buckets:   []float64{1, 2, 3, 6, 10, 20, 50, 100},
		},
	)
	prometheusScriptChecks = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "freicoind",
			Name:      "script_checks",
			Help:      "Number of input scripts verified",
		},
	)
	prometheusOrphans = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "freicoind",
			Name:      "orphan_blocks",
			Help:      "Number of blocks waiting for their parent",
		},
	)
	prometheusTipHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "freicoind",
			Name:      "tip_height",
			Help:      "Height of the active chain tip",
		},
	)
}

// BlockProcessed counts a processed block under result.
func BlockProcessed(result string) {
	Init()
	prometheusBlocksProcessed.WithLabelValues(result).Inc()
}

// ObserveConnect records how long connecting a block took.
func ObserveConnect(duration time.Duration) {
	Init()
	prometheusConnectDuration.Observe(duration.Seconds())
}

// ObserveReorg records the depth of a reorganization.
func ObserveReorg(depth int) {
	Init()
	prometheusReorgDepth.Observe(float64(depth))
}

// ScriptChecks counts verified input scripts.
func ScriptChecks(count int) {
	Init()
	prometheusScriptChecks.Add(float64(count))
}

// SetOrphans sets the size of the orphan pool.
func SetOrphans(count int) {
	Init()
	prometheusOrphans.Set(float64(count))
}

// SetTipHeight sets the height of the active chain tip.
func SetTipHeight(height int32) {
	Init()
	prometheusTipHeight.Set(float64(height))
}
