// Package metrics provides Prometheus metrics and the ingestion diagnostics buffer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"linkpress/domain"
)

var (
	// ItemsTotal counts processed items by outcome.
	ItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "items_total",
			Help:      "Total number of feed items seen, labeled by outcome",
		},
		[]string{"outcome"},
	)

	// SkippedByPolicy counts duplicate items skipped, labeled by reprocess policy.
	SkippedByPolicy = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "items_skipped_total",
			Help:      "Duplicate items skipped, labeled by reprocess policy",
		},
		[]string{"policy"},
	)

	// ChosenSource tracks the body source distribution.
	ChosenSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "chosen_source_total",
			Help:      "Distribution of chosen body sources",
		},
		[]string{"source"},
	)

	// LeadUsed tracks how often a lead paragraph was synthesized.
	LeadUsed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "lead_used_total",
			Help:      "Whether a standalone lead paragraph was synthesized",
		},
		[]string{"used"},
	)

	// ImageSource tracks which tier supplied the injected top image.
	ImageSource = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "image_source_total",
			Help:      "Distribution of injected top-image sources",
		},
		[]string{"source"},
	)

	// Truncated tracks how often the size cap fired.
	Truncated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "truncated_total",
			Help:      "Whether assembled article HTML was truncated",
		},
		[]string{"truncated"},
	)

	// RemovedEmbeds counts stripped iframe/embed/object elements.
	RemovedEmbeds = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "removed_embeds_total",
			Help:      "Total number of disallowed embeds removed",
		},
	)

	// TrackerParamsRemoved counts stripped tracking query parameters.
	TrackerParamsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "linkpress",
			Name:      "tracker_params_removed_total",
			Help:      "Total number of tracking query parameters removed from anchors",
		},
	)

	// ItemDuration measures per-item pipeline latency.
	ItemDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "linkpress",
			Name:      "item_processing_seconds",
			Help:      "Duration of per-item normalize/select/assemble processing",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// RecordItemProcessed records the pipeline outcome of one successfully
// processed item.
func RecordItemProcessed(selection domain.SelectionResult, assembly domain.AssemblyResult, duration time.Duration) {
	ItemsTotal.WithLabelValues("processed").Inc()
	ChosenSource.WithLabelValues(string(selection.ChosenSource)).Inc()
	LeadUsed.WithLabelValues(boolLabel(selection.LeadUsed)).Inc()
	ImageSource.WithLabelValues(string(assembly.Diagnostics.ImageSource)).Inc()
	Truncated.WithLabelValues(boolLabel(assembly.Diagnostics.Truncated)).Inc()
	RemovedEmbeds.Add(float64(assembly.Diagnostics.RemovedEmbeds))
	TrackerParamsRemoved.Add(float64(assembly.Diagnostics.TrackerParamsRemoved))
	ItemDuration.Observe(duration.Seconds())
}

// RecordItemFallback records an item degraded to the minimal fallback article.
func RecordItemFallback() {
	ItemsTotal.WithLabelValues("fallback").Inc()
}

// RecordItemFailed records an item whose pipeline failed outright and was
// persisted as a bare title+link article.
func RecordItemFailed() {
	ItemsTotal.WithLabelValues("failed").Inc()
}

// RecordItemInvalid records an item excluded for missing publish date or signal.
func RecordItemInvalid() {
	ItemsTotal.WithLabelValues("invalid").Inc()
}

// RecordItemSkipped records a duplicate skipped under the given policy.
func RecordItemSkipped(policy string) {
	ItemsTotal.WithLabelValues("skipped").Inc()
	SkippedByPolicy.WithLabelValues(policy).Inc()
}
