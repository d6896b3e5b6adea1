// Package kafka consumes signed fraud score submissions from the oracle's
// Kafka feed.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/sentinelledger/sentinel/internal/application/dto"
	"github.com/sentinelledger/sentinel/internal/application/usecase"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/service"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	pkgkafka "github.com/sentinelledger/sentinel/pkg/kafka"
	"github.com/sentinelledger/sentinel/pkg/oracle"
)

// Submission is the JSON payload on the submissions topic. FraudScore may be
// fractional; it is rounded before verification, so the oracle signs the
// rounded value.
type Submission struct {
	TransactionID string          `json:"transaction_id"`
	FraudScore    decimal.Decimal `json:"fraud_score"`
	Signature     string          `json:"signature"`
}

// SubmissionHandler records submissions from Kafka.
type SubmissionHandler struct {
	recordFraudScore *usecase.RecordFraudScore
	logger           *slog.Logger
}

// NewSubmissionHandler creates a new submission handler.
func NewSubmissionHandler(recordFraudScore *usecase.RecordFraudScore, logger *slog.Logger) *SubmissionHandler {
	return &SubmissionHandler{recordFraudScore: recordFraudScore, logger: logger}
}

// Handle implements pkg/kafka.Handler. Submissions that can never succeed
// (malformed, unauthorized, out of range, already recorded) and submissions
// refused for lack of a trusted clock are logged and acknowledged; the oracle
// owns resubmission. Other failures are returned so the message is retried.
func (h *SubmissionHandler) Handle(ctx context.Context, msg pkgkafka.Message) error {
	var sub Submission
	if err := json.Unmarshal(msg.Value, &sub); err != nil {
		h.logger.WarnContext(ctx, "dropping malformed submission",
			slog.String("key", string(msg.Key)),
			slog.String("error", err.Error()),
		)
		return nil
	}

	score, err := oracle.NormalizeScore(sub.FraudScore)
	if err != nil {
		h.logger.WarnContext(ctx, "dropping submission with unrepresentable score",
			slog.String("transaction_id", sub.TransactionID),
			slog.String("fraud_score", sub.FraudScore.String()),
		)
		return nil
	}

	result, err := h.recordFraudScore.Execute(ctx, dto.RecordFraudScoreRequest{
		TransactionID: sub.TransactionID,
		FraudScore:    score,
		Signature:     sub.Signature,
	})
	switch {
	case err == nil:
		h.logger.InfoContext(ctx, "fraud score recorded",
			slog.String("transaction_id", result.TransactionID),
			slog.String("address", result.Address),
			slog.String("action", result.ActionTaken),
		)
		return nil
	case isPermanent(err):
		h.logger.WarnContext(ctx, "fraud score submission rejected",
			slog.String("transaction_id", sub.TransactionID),
			slog.String("error", err.Error()),
		)
		return nil
	default:
		return err
	}
}

func isPermanent(err error) bool {
	return errors.Is(err, port.ErrDuplicateRecord) ||
		errors.Is(err, service.ErrInvalidOracle) ||
		errors.Is(err, valueobject.ErrInvalidScoreRange) ||
		errors.Is(err, valueobject.ErrInvalidTransactionID) ||
		errors.Is(err, service.ErrClockUnavailable)
}
