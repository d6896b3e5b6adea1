package usecase

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/sentinelledger/sentinel/internal/application/dto"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
)

// GetFraudRecord is the point-lookup use case for committed records.
type GetFraudRecord struct {
	repo port.RecordRepository
}

// NewGetFraudRecord creates a new GetFraudRecord use case.
func NewGetFraudRecord(repo port.RecordRepository) *GetFraudRecord {
	return &GetFraudRecord{repo: repo}
}

// Execute looks a record up by address, or by transaction id via the
// derived address.
func (uc *GetFraudRecord) Execute(ctx context.Context, req dto.GetFraudRecordRequest) (resp dto.FraudRecordResponse, err error) {
	ctx, span := startSpan(ctx, "GetFraudRecord",
		attribute.String("fraud.transaction_id", req.TransactionID),
		attribute.String("fraud.address", req.Address),
	)
	defer func() { endSpan(span, err) }()

	address, err := resolveAddress(req)
	if err != nil {
		return dto.FraudRecordResponse{}, err
	}

	record, err := uc.repo.FindByAddress(ctx, address)
	if err != nil {
		return dto.FraudRecordResponse{}, fmt.Errorf("failed to find fraud record: %w", err)
	}

	return dto.FromModel(record), nil
}

func resolveAddress(req dto.GetFraudRecordRequest) (valueobject.RecordAddress, error) {
	var (
		address    valueobject.RecordAddress
		hasAddress bool
	)
	if req.Address != "" {
		a, err := valueobject.ParseRecordAddress(req.Address)
		if err != nil {
			return valueobject.RecordAddress{}, err
		}
		address, hasAddress = a, true
	}

	if req.TransactionID == "" {
		if !hasAddress {
			return valueobject.RecordAddress{}, fmt.Errorf("%w: transaction_id or address is required", valueobject.ErrInvalidTransactionID)
		}
		return address, nil
	}

	txID, err := valueobject.ParseTransactionID(req.TransactionID)
	if err != nil {
		return valueobject.RecordAddress{}, err
	}
	derived, _, err := valueobject.DeriveRecordAddress(txID)
	if err != nil {
		return valueobject.RecordAddress{}, fmt.Errorf("failed to derive record address: %w", err)
	}
	if hasAddress && derived != address {
		return valueobject.RecordAddress{}, fmt.Errorf("%w: address %s does not belong to transaction %s", valueobject.ErrInvalidAddress, address, txID)
	}
	return derived, nil
}
