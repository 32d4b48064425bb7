package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	analysisOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_coach",
		Subsystem: "analysis",
		Name:      "requests_total",
		Help:      "Analysis requests grouped by terminal outcome.",
	}, []string{"outcome"})

	generationDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "workout_coach",
		Subsystem: "analysis",
		Name:      "generation_duration_seconds",
		Help:      "Latency of calls to the text generation backend.",
		Buckets:   prometheus.ExponentialBuckets(0.5, 2, 8),
	}, []string{"result"})

	tokensTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "workout_coach",
		Subsystem: "analysis",
		Name:      "tokens_total",
		Help:      "Tokens spent on generated analyses.",
	}, []string{"kind"})

	quotaRemaining = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workout_coach",
		Subsystem: "usage",
		Name:      "quota_remaining",
		Help:      "Generations left in the shared daily quota as last observed.",
	})
)

func init() {
	prometheus.MustRegister(analysisOutcomes, generationDuration, tokensTotal, quotaRemaining)
}

// RecordAnalysis counts one finished analysis request.
func RecordAnalysis(outcome string) {
	analysisOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveGeneration records the latency of one backend call.
func ObserveGeneration(elapsed time.Duration, result string) {
	generationDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// RecordTokens adds the token counts of one generation.
func RecordTokens(usage TokenUsage) {
	if usage.IsZero() {
		return
	}
	tokensTotal.WithLabelValues("prompt").Add(float64(usage.PromptTokens))
	tokensTotal.WithLabelValues("completion").Add(float64(usage.CompletionTokens))
}

// SetQuotaRemaining publishes the latest remaining shared quota.
func SetQuotaRemaining(remaining int) {
	quotaRemaining.Set(float64(remaining))
}
