// File: internal/infra/metrics/metrics.go
package metrics

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	transcriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcriptions_total",
			Help: "Voice transcriptions per provider and outcome.",
		},
		[]string{"provider", "success"},
	)

	transcribedAudioSeconds = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "transcribed_audio_seconds",
			Help: "Sum of transcribed audio seconds per provider.",
		},
		[]string{"provider"},
	)

	creditsSpent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_spent_total",
			Help: "Credits deducted across all users.",
		},
	)

	creditsSold = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "credits_sold_total",
			Help: "Credits added through purchases.",
		},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"provider", "success"},
	)

	linkConfirmations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "link_confirmations_total",
			Help: "Account link confirmation attempts by result.",
		},
		[]string{"result"},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			transcriptionsTotal, transcribedAudioSeconds,
			creditsSpent, creditsSold,
			aiCallsLatencyMs, linkConfirmations,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ObserveTranscription(provider string, audioSeconds int, success bool) {
	transcriptionsTotal.WithLabelValues(norm(provider), strconv.FormatBool(success)).Inc()
	if success {
		transcribedAudioSeconds.WithLabelValues(norm(provider)).Add(float64(audioSeconds))
	}
}

func AddCreditsSpent(n int) { creditsSpent.Add(float64(n)) }
func AddCreditsSold(n int)  { creditsSold.Add(float64(n)) }

func ObserveAICall(provider string, elapsed time.Duration, success bool) {
	aiCallsLatencyMs.WithLabelValues(norm(provider), strconv.FormatBool(success)).
		Observe(float64(elapsed.Milliseconds()))
}

func IncLinkConfirmation(result string) {
	linkConfirmations.WithLabelValues(norm(result)).Inc()
}
