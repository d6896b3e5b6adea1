package grpc

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/sentinelledger/sentinel/internal/application/dto"
	"github.com/sentinelledger/sentinel/internal/application/usecase"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/service"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
	"github.com/sentinelledger/sentinel/pkg/auth"
)

// requireRole checks that the caller has at least one of the given roles.
func requireRole(ctx context.Context, roles ...string) error {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok {
		return status.Error(codes.Unauthenticated, "authentication required")
	}
	if claims.HasAnyRole(roles...) {
		return nil
	}
	return status.Error(codes.PermissionDenied, "insufficient permissions")
}

// Compile-time assertion that FraudLedgerHandler implements FraudLedgerServiceServer.
var _ FraudLedgerServiceServer = (*FraudLedgerHandler)(nil)

// FraudLedgerHandler implements the gRPC FraudLedgerServiceServer interface.
type FraudLedgerHandler struct {
	UnimplementedFraudLedgerServiceServer
	recordFraudScore *usecase.RecordFraudScore
	getFraudRecord   *usecase.GetFraudRecord
	logger           *slog.Logger
}

// NewFraudLedgerHandler creates a new gRPC handler.
func NewFraudLedgerHandler(
	recordFraudScore *usecase.RecordFraudScore,
	getFraudRecord *usecase.GetFraudRecord,
	logger *slog.Logger,
) *FraudLedgerHandler {
	return &FraudLedgerHandler{
		recordFraudScore: recordFraudScore,
		getFraudRecord:   getFraudRecord,
		logger:           logger,
	}
}

// RecordFraudScore handles an oracle submission.
func (h *FraudLedgerHandler) RecordFraudScore(ctx context.Context, req *RecordFraudScoreRequest) (*RecordFraudScoreResponse, error) {
	if err := requireRole(ctx, auth.RoleOracle); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.recordFraudScore.Execute(ctx, dto.RecordFraudScoreRequest{
		TransactionID: req.TransactionID,
		FraudScore:    int(req.FraudScore),
		Signature:     req.Signature,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "fraud score rejected",
			slog.String("transaction_id", req.TransactionID),
			slog.String("error", err.Error()),
		)
		return nil, toStatus(err)
	}

	h.logger.InfoContext(ctx, "fraud score recorded",
		slog.String("transaction_id", result.TransactionID),
		slog.String("address", result.Address),
		slog.String("action", result.ActionTaken),
	)
	return &RecordFraudScoreResponse{Record: toMsg(result)}, nil
}

// GetFraudRecord handles a point lookup.
func (h *FraudLedgerHandler) GetFraudRecord(ctx context.Context, req *GetFraudRecordRequest) (*GetFraudRecordResponse, error) {
	if err := requireRole(ctx, auth.RoleOracle, auth.RoleAuditor, auth.RoleAdmin); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	result, err := h.getFraudRecord.Execute(ctx, dto.GetFraudRecordRequest{
		TransactionID: req.TransactionID,
		Address:       req.Address,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetFraudRecordResponse{Record: toMsg(result)}, nil
}

func toMsg(r dto.FraudRecordResponse) *FraudRecordMsg {
	return &FraudRecordMsg{
		Address:       r.Address,
		TransactionID: r.TransactionID,
		FraudScore:    int32(r.FraudScore),
		ActionTaken:   r.ActionTaken,
		Timestamp:     r.Timestamp,
		Bump:          uint32(r.Bump),
	}
}

// toStatus maps domain errors to gRPC status codes. Unknown errors are
// reported as Internal without detail.
func toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidOracle):
		return status.Error(codes.PermissionDenied, err.Error())
	case errors.Is(err, port.ErrDuplicateRecord):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, port.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, valueobject.ErrInvalidScoreRange),
		errors.Is(err, valueobject.ErrInvalidTransactionID),
		errors.Is(err, valueobject.ErrInvalidAddress):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrClockUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
