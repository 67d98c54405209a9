// Package metrics holds the Prometheus collectors for the move engine and
// game sessions. Collectors register on the default registry.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a worker job.
const (
	OutcomeMove    = "move"
	OutcomeNoMove  = "no_move"
	OutcomeInvalid = "invalid"
	OutcomeFault   = "fault"
)

var knownDifficulties = map[string]bool{
	"easy":       true,
	"medium":     true,
	"impossible": true,
	"hard":       true,
}

// sanitizeDifficulty keeps label cardinality bounded for untrusted input.
func sanitizeDifficulty(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if knownDifficulties[d] {
		return d
	}
	return "unknown"
}

func sizeLabel(size int) string {
	if size < 3 || size > 6 {
		return "other"
	}
	return strconv.Itoa(size)
}

var (
	searchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xo",
			Subsystem: "engine",
			Name:      "searches_total",
			Help:      "Move requests handled by the engine, by difficulty and outcome",
		},
		[]string{"difficulty", "outcome"},
	)

	searchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xo",
			Subsystem: "engine",
			Name:      "search_duration_seconds",
			Help:      "Wall time spent choosing a move",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		},
		[]string{"difficulty", "board_size"},
	)

	searchNodes = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "xo",
			Subsystem: "engine",
			Name:      "search_nodes",
			Help:      "Positions visited per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		},
		[]string{"difficulty"},
	)

	queueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "xo",
			Subsystem: "worker",
			Name:      "queue_depth",
			Help:      "Move requests waiting for a worker",
		},
	)

	fallbacksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xo",
			Subsystem: "session",
			Name:      "fallbacks_total",
			Help:      "Computer moves retried at a lower difficulty after a search fault",
		},
		[]string{"from", "to"},
	)

	gamesFinishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "xo",
			Subsystem: "session",
			Name:      "games_finished_total",
			Help:      "Finished games by mode and result",
		},
		[]string{"mode", "result"},
	)
)

// ObserveSearch records one finished worker job.
func ObserveSearch(difficulty string, boardSize int, elapsed time.Duration, nodes int, outcome string) {
	d := sanitizeDifficulty(difficulty)
	searchesTotal.WithLabelValues(d, outcome).Inc()
	searchDuration.WithLabelValues(d, sizeLabel(boardSize)).Observe(elapsed.Seconds())
	if nodes > 0 {
		searchNodes.WithLabelValues(d).Observe(float64(nodes))
	}
}

func SetQueueDepth(n int) {
	queueDepth.Set(float64(n))
}

func ObserveFallback(from, to string) {
	fallbacksTotal.WithLabelValues(sanitizeDifficulty(from), sanitizeDifficulty(to)).Inc()
}

// ObserveGameFinished counts a finished game; result is "x", "o" or "draw".
func ObserveGameFinished(mode, result string) {
	gamesFinishedTotal.WithLabelValues(mode, result).Inc()
}
