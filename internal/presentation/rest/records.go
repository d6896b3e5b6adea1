package rest

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelledger/sentinel/internal/application/dto"
	"github.com/sentinelledger/sentinel/internal/application/usecase"
	"github.com/sentinelledger/sentinel/internal/domain/port"
	"github.com/sentinelledger/sentinel/internal/domain/valueobject"
)

const serviceName = "fraudledger"

// RecordHandler serves read-only lookups of committed fraud records.
type RecordHandler struct {
	getFraudRecord *usecase.GetFraudRecord
	logger         *slog.Logger
}

// NewRecordHandler creates a new record lookup handler.
func NewRecordHandler(getFraudRecord *usecase.GetFraudRecord, logger *slog.Logger) *RecordHandler {
	return &RecordHandler{getFraudRecord: getFraudRecord, logger: logger}
}

// ServeHTTP handles GET /api/v1/fraud-records/{transaction_id}. An optional
// address query parameter must match the transaction's derived address.
func (h *RecordHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := h.getFraudRecord.Execute(r.Context(), dto.GetFraudRecordRequest{
		TransactionID: r.PathValue("transaction_id"),
		Address:       r.URL.Query().Get("address"),
	})
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, resp)
	case errors.Is(err, port.ErrRecordNotFound):
		writeError(w, http.StatusNotFound, "fraud record not found")
	case errors.Is(err, valueobject.ErrInvalidTransactionID), errors.Is(err, valueobject.ErrInvalidAddress):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "fraud record lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
