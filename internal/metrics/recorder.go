// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records resolution runs as Prometheus metrics on a
// private registry, written out in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/emw8105/professor-ratings-lambda/internal/match"
)

const namespace = "professor_ratings"

// Recorder implements match.Observer.
type Recorder struct {
	registry *prometheus.Registry

	tierMatches  *prometheus.CounterVec
	tierDuration *prometheus.HistogramVec
	fuzzyScores  prometheus.Histogram
	unmatched    *prometheus.GaugeVec
	dropped      prometheus.Gauge
	collisions   prometheus.Gauge
}

var _ match.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		tierMatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tier_matches_total",
				Help:      "Total matches produced per tier",
			},
			[]string{"tier"},
		),
		tierDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tier_duration_seconds",
				Help:      "Tier pass duration in seconds",
				Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
			},
			[]string{"tier"},
		),
		fuzzyScores: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fuzzy_scores",
				Help:      "Similarity scores computed by the fuzzy tier",
				Buckets:   prometheus.LinearBuckets(10, 10, 10),
			},
		),
		unmatched: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "unmatched",
				Help:      "Keys left unmatched by the last run",
			},
			[]string{"side"},
		),
		dropped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dropped",
			Help:      "Review keys dropped as shadowed by the last run",
		}),
		collisions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "collisions",
			Help:      "Source names that shared a key in the last run",
		}),
	}
	r.registry.MustRegister(r.tierMatches, r.tierDuration, r.fuzzyScores, r.unmatched, r.dropped, r.collisions)

	// Export every tier label, including tiers that match nothing.
	for _, t := range match.Tiers {
		r.tierMatches.WithLabelValues(t.String())
	}
	return r
}

// TierCompleted records one tier's pass.
func (r *Recorder) TierCompleted(tier match.Tier, matched int, elapsed time.Duration) {
	r.tierMatches.WithLabelValues(tier.String()).Add(float64(matched))
	r.tierDuration.WithLabelValues(tier.String()).Observe(elapsed.Seconds())
}

// FuzzyScored records one similarity computation.
func (r *Recorder) FuzzyScored(score int) {
	r.fuzzyScores.Observe(float64(score))
}

// ObserveResult sets the end-of-run gauges.
func (r *Recorder) ObserveResult(res match.Result) {
	r.unmatched.WithLabelValues(match.SideRatings).Set(float64(len(res.UnmatchedRatings)))
	r.unmatched.WithLabelValues(match.SideReview).Set(float64(len(res.UnmatchedReview)))
	r.dropped.Set(float64(len(res.Dropped)))
	r.collisions.Set(float64(len(res.Collisions)))
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile writes every metric to path for the node-exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
