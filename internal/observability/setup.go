package observability

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/rottengram/rottenshield"

var (
	mediaDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_decisions_total",
			Help: "Media cooldown decisions by kind",
		},
		[]string{"kind"},
	)

	moderationActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moderation_actions_total",
			Help: "Moderation actions carried out by the bot",
		},
		[]string{"action"},
	)

	platformRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "platform_requests_total",
			Help: "Telegram Bot API requests by method and status",
		},
		[]string{"method", "status"},
	)

	updateProcessingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "update_processing_duration_seconds",
			Help:    "Time spent running the handler chain for one update",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"status"},
	)

	registerOnce sync.Once
)

// Init registers the collectors on registry and installs a tracer provider.
// The returned function shuts the tracer provider down.
func Init(registry prometheus.Registerer) func(context.Context) error {
	registerOnce.Do(func() {
		registry.MustRegister(
			mediaDecisionsTotal,
			moderationActionsTotal,
			platformRequestsTotal,
			updateProcessingDuration,
		)
	})

	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

func RecordMediaDecision(kind string) {
	mediaDecisionsTotal.WithLabelValues(kind).Inc()
}

func RecordModerationAction(action string) {
	moderationActionsTotal.WithLabelValues(action).Inc()
}

func RecordPlatformRequest(method, status string) {
	platformRequestsTotal.WithLabelValues(method, status).Inc()
}

// StartUpdateProcessing returns a function that records the elapsed time under the given status.
func StartUpdateProcessing() func(status string) {
	start := time.Now()
	return func(status string) {
		updateProcessingDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}
