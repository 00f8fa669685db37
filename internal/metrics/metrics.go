package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	webhookBatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linerelay_webhook_batches_total",
		Help: "Webhook requests grouped by outcome",
	}, []string{"status"})

	webhookEvents = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linerelay_webhook_batch_size",
		Help:    "Number of events carried by each webhook request",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})

	eventsHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linerelay_events_total",
		Help: "Inbound events grouped by how they were handled",
	}, []string{"result"})

	completions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linerelay_completions_total",
		Help: "Completion calls grouped by outcome",
	}, []string{"outcome"})

	completionTokens = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linerelay_completion_tokens_total",
		Help: "Tokens consumed by successful completion calls",
	})

	completionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "linerelay_completion_duration_seconds",
		Help:    "Latency of completion provider calls",
		Buckets: prometheus.DefBuckets,
	})
)

// Event results.
const (
	EventSkipped  = "skipped"
	EventCacheHit = "cache_hit"
	EventReplied  = "replied"
	EventFailed   = "failed"
)

// ObserveBatch records one webhook request and its size.
func ObserveBatch(size int, success bool) {
	webhookEvents.Observe(float64(size))
	if success {
		webhookBatches.WithLabelValues("success").Inc()
	} else {
		webhookBatches.WithLabelValues("failed").Inc()
	}
}

// ObserveRejectedBatch records a webhook request refused before dispatch.
func ObserveRejectedBatch() {
	webhookBatches.WithLabelValues("rejected").Inc()
}

// ObserveEvent records how a single inbound event was handled.
func ObserveEvent(result string) {
	if result == "" {
		result = "unknown"
	}
	eventsHandled.WithLabelValues(result).Inc()
}

// ObserveCompletion records a completion call. Fallback results carry no tokens.
func ObserveCompletion(seconds float64, tokens int, fallback bool) {
	completionDuration.Observe(seconds)
	if fallback {
		completions.WithLabelValues("fallback").Inc()
		return
	}
	completions.WithLabelValues("ok").Inc()
	completionTokens.Add(float64(tokens))
}
