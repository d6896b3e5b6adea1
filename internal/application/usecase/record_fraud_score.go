package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sentinelledger/sentinel/internal/application/dto"
	"github.com/sentinelledger/sentinel/internal/domain/model"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/service"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
)

// RecordFraudScore is the use case an oracle invokes once per transaction to
// commit its fraud score and the resulting enforcement action.
type RecordFraudScore struct {
	repo      port.RecordRepository
	verifier  port.SignatureVerifier
	authority *service.OracleAuthority
	clock     port.Clock
	metrics   recorderMetrics
}

// NewRecordFraudScore creates a new RecordFraudScore use case.
func NewRecordFraudScore(
	repo port.RecordRepository,
	verifier port.SignatureVerifier,
	authority *service.OracleAuthority,
	clock port.Clock,
) *RecordFraudScore {
	return &RecordFraudScore{
		repo:      repo,
		verifier:  verifier,
		authority: authority,
		clock:     clock,
		metrics:   newRecorderMetrics(),
	}
}

// Execute authenticates the submission, derives the action and creates the
// record. On any error nothing is stored.
func (uc *RecordFraudScore) Execute(ctx context.Context, req dto.RecordFraudScoreRequest) (resp dto.FraudRecordResponse, err error) {
	ctx, span := startSpan(ctx, "RecordFraudScore",
		attribute.String("fraud.transaction_id", req.TransactionID),
		attribute.Int("fraud.score", req.FraudScore),
	)
	defer func() {
		if err != nil {
			uc.metrics.rejected(ctx, rejectionReason(err))
		}
		endSpan(span, err)
	}()

	// 1. Parse the transaction id.
	txID, err := valueobject.ParseTransactionID(req.TransactionID)
	if err != nil {
		return dto.FraudRecordResponse{}, err
	}

	// 2. Recover the caller identity and check it against the oracle authority.
	caller, err := uc.verifier.RecoverSigner(txID, req.FraudScore, req.Signature)
	if err != nil {
		return dto.FraudRecordResponse{}, fmt.Errorf("%w: %w", service.ErrInvalidOracle, err)
	}
	if err := uc.authority.Authorize(caller); err != nil {
		return dto.FraudRecordResponse{}, err
	}

	// 3. Validate the score.
	score, err := valueobject.NewFraudScore(req.FraudScore)
	if err != nil {
		return dto.FraudRecordResponse{}, err
	}

	// 4. Read the trusted clock.
	now, err := uc.clock.Now()
	if err != nil {
		if !errors.Is(err, service.ErrClockUnavailable) {
			err = fmt.Errorf("%w: %w", service.ErrClockUnavailable, err)
		}
		return dto.FraudRecordResponse{}, err
	}

	// 5. Build the record (derives action, address and events).
	record, err := model.NewFraudRecord(txID, score, now)
	if err != nil {
		return dto.FraudRecordResponse{}, fmt.Errorf("failed to create fraud record: %w", err)
	}

	// 6. Commit; a record at the same address yields ErrDuplicateRecord.
	if err := uc.repo.Create(ctx, record); err != nil {
		return dto.FraudRecordResponse{}, fmt.Errorf("failed to commit fraud record: %w", err)
	}

	span.SetAttributes(
		attribute.String("fraud.address", record.Address().String()),
		attribute.String("fraud.action", record.ActionTaken().String()),
	)
	uc.metrics.recorded(ctx, record.ActionTaken().String())

	return dto.FromModel(record), nil
}
