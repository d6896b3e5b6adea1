package usecase

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/service"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
)

const instrumentationName = "github.com/sentinelledger/sentinel/internal/application/usecase"

// Rejection reasons reported on fraudledger_rejections_total.
const (
	reasonInvalidTransactionID = "invalid_transaction_id"
	reasonInvalidOracle        = "invalid_oracle"
	reasonInvalidScore         = "invalid_score_range"
	reasonClockUnavailable     = "clock_unavailable"
	reasonDuplicate            = "duplicate_record"
	reasonInternal             = "internal"
)

type recorderMetrics struct {
	records    metric.Int64Counter
	rejections metric.Int64Counter
}

// newRecorderMetrics registers the recorder's instruments on the global
// meter provider. Instrument errors fall back to no-op counters.
func newRecorderMetrics() recorderMetrics {
	meter := otel.Meter(instrumentationName)

	records, err := meter.Int64Counter("fraudledger_records",
		metric.WithDescription("Fraud records committed, by action taken."))
	if err != nil {
		otel.Handle(err)
	}
	rejections, err := meter.Int64Counter("fraudledger_rejections",
		metric.WithDescription("Rejected fraud score submissions, by reason."))
	if err != nil {
		otel.Handle(err)
	}
	return recorderMetrics{records: records, rejections: rejections}
}

func (m recorderMetrics) recorded(ctx context.Context, action string) {
	if m.records != nil {
		m.records.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
	}
}

func (m recorderMetrics) rejected(ctx context.Context, reason string) {
	if m.rejections != nil {
		m.rejections.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, valueobject.ErrInvalidTransactionID):
		return reasonInvalidTransactionID
	case errors.Is(err, service.ErrInvalidOracle):
		return reasonInvalidOracle
	case errors.Is(err, valueobject.ErrInvalidScoreRange):
		return reasonInvalidScore
	case errors.Is(err, service.ErrClockUnavailable):
		return reasonClockUnavailable
	case errors.Is(err, port.ErrDuplicateRecord):
		return reasonDuplicate
	default:
		return reasonInternal
	}
}

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
