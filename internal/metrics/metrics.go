package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Intents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auria",
			Name:      "intents_total",
			Help:      "Intents executed by the command processor.",
		},
		[]string{"kind", "outcome"},
	)

	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "auria",
			Name:      "cache_lookups_total",
			Help:      "Audio cache lookups by result (hit/miss).",
		},
		[]string{"result"},
	)

	AcquireLatency = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "auria",
			Name:      "acquire_duration_seconds",
			Help:      "Time spent running the downloader/transcoder pipeline.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auria",
			Name:      "queue_depth",
			Help:      "Intents waiting for the command processor.",
		},
	)

	PlayerState = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "auria",
			Name:      "player_state",
			Help:      "Playback engine state (0 idle, 1 playing, 2 paused).",
		},
	)
)

var registerOnce sync.Once

// Register registers the auria collectors into the default registry. Safe to
// call more than once.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(Intents, CacheLookups, AcquireLatency, QueueDepth, PlayerState)
	})
}
