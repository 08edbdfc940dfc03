package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AuthAttempts records authentication attempts by result (success|failure).
	AuthAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhub_auth_attempts_total",
			Help: "Total number of authentication attempts",
		},
		[]string{"result"},
	)

	// Registrations counts new account registrations by provider (local|google).
	Registrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhub_registrations_total",
			Help: "Total number of account registrations",
		},
		[]string{"provider"},
	)

	// TokenRotations counts refresh-token rotations by result (success|failure).
	TokenRotations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhub_token_rotations_total",
			Help: "Total number of refresh token rotations",
		},
		[]string{"result"},
	)

	// EmailVerifications counts verification attempts by outcome (verified|invalid|expired).
	EmailVerifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learnhub_email_verifications_total",
			Help: "Total number of email verification attempts",
		},
		[]string{"outcome"},
	)

	// ImagesProcessed counts course images resized and stored.
	ImagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "learnhub_images_processed_total",
			Help: "Total number of uploaded images processed",
		},
	)

	// APILatency measures HTTP request latencies.
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learnhub_api_latency_seconds",
			Help:    "API endpoint latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)
