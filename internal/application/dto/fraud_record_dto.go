package dto

import (
	"time"

	"github.com/sentinelledger/sentinel/internal/domain/model"
)

// RecordFraudScoreRequest is the input DTO for the RecordFraudScore use case.
// Signature is the oracle's EIP-191 signature over the canonical submission
// message for (TransactionID, FraudScore).
type RecordFraudScoreRequest struct {
	TransactionID string `json:"transaction_id"`
	Signature     string `json:"signature"`
	FraudScore    int    `json:"fraud_score"`
}

// GetFraudRecordRequest is the input DTO for a point lookup. Exactly one of
// the fields is normally set; when both are, they must agree.
type GetFraudRecordRequest struct {
	TransactionID string `json:"transaction_id,omitempty"`
	Address       string `json:"address,omitempty"`
}

// FraudRecordResponse is the output DTO for a committed fraud record.
type FraudRecordResponse struct {
	RecordedAt    time.Time `json:"recorded_at"`
	TransactionID string    `json:"transaction_id"`
	Address       string    `json:"address"`
	ActionTaken   string    `json:"action_taken"`
	Timestamp     int64     `json:"timestamp"`
	FraudScore    int       `json:"fraud_score"`
	Bump          uint8     `json:"bump"`
}

// FromModel maps a domain model to the response DTO.
func FromModel(r *model.FraudRecord) FraudRecordResponse {
	return FraudRecordResponse{
		TransactionID: r.TransactionID().String(),
		Address:       r.Address().String(),
		FraudScore:    r.FraudScore().Value(),
		ActionTaken:   r.ActionTaken().String(),
		Timestamp:     r.Timestamp(),
		RecordedAt:    r.RecordedAt(),
		Bump:          r.Bump(),
	}
}
