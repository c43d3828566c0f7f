package api

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName      = "taskflow-api/api"
	flowEventName   = "ai.flow.request"
	flowEventDomain = "taskflow"
)

// flowRequestMetrics collects per-request timings for the AI flow endpoints
// and emits them as one structured log entry plus one trace span.
type flowRequestMetrics struct {
	logger         *log.Logger
	span           trace.Span
	start          time.Time
	flow           string
	authDuration   time.Duration
	flowDuration   time.Duration
	encodeDuration time.Duration
	errorStage     string
}

func newFlowRequestMetrics(ctx context.Context, logger *log.Logger, flow string) (*flowRequestMetrics, context.Context) {
	m := &flowRequestMetrics{
		logger: logger,
		start:  time.Now(),
		flow:   flow,
	}
	spanCtx, span := otel.Tracer(tracerName).Start(ctx, "ai."+flow)
	m.span = span
	return m, spanCtx
}

func (m *flowRequestMetrics) ObserveAuth(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.authDuration = duration
}

func (m *flowRequestMetrics) ObserveFlow(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.flowDuration = duration
}

func (m *flowRequestMetrics) ObserveEncode(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.encodeDuration = duration
}

func (m *flowRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *flowRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	totalMillis := durationToMillis(time.Since(m.start))
	attrs := map[string]any{
		"ai.flow.name": m.flow,
		"http.status":  status,
		"total_ms":     totalMillis,
	}
	spanAttrs := []attribute.KeyValue{
		attribute.String("ai.flow.name", m.flow),
		attribute.Int("http.status", status),
		attribute.Float64("total_ms", totalMillis),
	}

	if m.authDuration > 0 {
		attrs["auth_ms"] = durationToMillis(m.authDuration)
		spanAttrs = append(spanAttrs, attribute.Float64("auth_ms", durationToMillis(m.authDuration)))
	}
	if m.flowDuration > 0 {
		attrs["flow_ms"] = durationToMillis(m.flowDuration)
		spanAttrs = append(spanAttrs, attribute.Float64("flow_ms", durationToMillis(m.flowDuration)))
	}
	if m.encodeDuration > 0 {
		attrs["encode_ms"] = durationToMillis(m.encodeDuration)
		spanAttrs = append(spanAttrs, attribute.Float64("encode_ms", durationToMillis(m.encodeDuration)))
	}
	if m.errorStage != "" {
		attrs["error_stage"] = m.errorStage
		spanAttrs = append(spanAttrs, attribute.String("error_stage", m.errorStage))
	}
	if err != nil {
		attrs["error"] = err.Error()
	}

	if m.span != nil {
		m.span.SetAttributes(spanAttrs...)
		if err != nil {
			m.span.RecordError(err)
			m.span.SetStatus(codes.Error, err.Error())
		} else {
			m.span.SetStatus(codes.Ok, "")
		}
		m.span.End()
	}

	m.logger.WithFields(log.Fields{
		"event.name":   flowEventName,
		"event.domain": flowEventDomain,
		"attributes":   attrs,
	}).Info("observability.event")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
