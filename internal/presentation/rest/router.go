package rest

import (
	"log/slog"
	"net/http"

	"github.com/sentinelledger/sentinel/pkg/auth"
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Health  *HealthHandler
	Records *RecordHandler
	Limiter *IPRateLimiter
	// Validator enables bearer auth on the record API when set.
	Validator auth.TokenValidator
	// Metrics is served on /metrics when set.
	Metrics http.Handler
	Logger  *slog.Logger
}

// NewRouter builds the HTTP handler. Health and metrics endpoints are never
// rate limited or authenticated.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	cfg.Health.RegisterRoutes(mux)
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics)
	}

	var records http.Handler = cfg.Records
	if cfg.Validator != nil {
		records = AuthMiddleware(cfg.Validator, auth.RoleOracle, auth.RoleAuditor, auth.RoleAdmin)(records)
	}
	if cfg.Limiter != nil {
		records = cfg.Limiter.Middleware(records)
	}
	mux.Handle("GET /api/v1/fraud-records/{transaction_id}", records)

	return LoggingMiddleware(cfg.Logger)(mux)
}
