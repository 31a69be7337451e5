package http

import (
	"errors"
	"net/http"

	"saldo/internal/core"
	applog "saldo/internal/log"
	"saldo/internal/middleware/auth"
)

// Error codes returned in the "code" field.
const (
	CodeValidation                    = "VALIDATION_ERROR"
	CodeRecurrenceImmutable           = "RECURRENCE_IMMUTABLE"
	CodeInstallmentStructureImmutable = "INSTALLMENT_STRUCTURE_IMMUTABLE"
	CodeInvalidRecurrence             = "INVALID_RECURRENCE"
	CodeInvalidInstallmentCount       = "INVALID_INSTALLMENT_COUNT"
	CodePlanLimitExceeded             = "PLAN_LIMIT_EXCEEDED"
	CodeNotFound                      = "NOT_FOUND"
	CodeUnauthorized                  = "UNAUTHORIZED"
	CodeRateLimited                   = "RATE_LIMITED"
	CodeInternal                      = "INTERNAL_ERROR"
)

type errorBody struct {
	Message    string              `json:"message"`
	StatusCode int                 `json:"statusCode"`
	Code       string              `json:"code"`
	Errors     map[string][]string `json:"errors,omitempty"`
	LimitType  core.QuotaKind      `json:"limitType,omitempty"`
	Limit      *int                `json:"limit,omitempty"`
}

// errorResponse maps a service error onto its HTTP status and body.
func errorResponse(err error) errorBody {
	var verr *core.ValidationError
	var qerr *core.QuotaExceededError

	switch {
	case errors.As(err, &verr):
		return errorBody{Message: "Validation error", StatusCode: http.StatusBadRequest, Code: CodeValidation, Errors: verr.Fields}
	case errors.Is(err, core.ErrRecurrenceImmutable):
		return errorBody{Message: err.Error(), StatusCode: http.StatusBadRequest, Code: CodeRecurrenceImmutable}
	case errors.Is(err, core.ErrInstallmentStructureImmutable):
		return errorBody{Message: err.Error(), StatusCode: http.StatusBadRequest, Code: CodeInstallmentStructureImmutable}
	case errors.Is(err, core.ErrInvalidRecurrence):
		return errorBody{Message: "Invalid recurrence type", StatusCode: http.StatusBadRequest, Code: CodeInvalidRecurrence}
	case errors.Is(err, core.ErrInvalidInstallmentCount):
		return errorBody{Message: err.Error(), StatusCode: http.StatusBadRequest, Code: CodeInvalidInstallmentCount}
	case errors.As(err, &qerr):
		limit := qerr.Limit
		return errorBody{Message: "Plan limit reached", StatusCode: http.StatusForbidden, Code: CodePlanLimitExceeded, LimitType: qerr.Kind, Limit: &limit}
	case errors.Is(err, core.ErrNotFound):
		return errorBody{Message: "Transaction not found", StatusCode: http.StatusNotFound, Code: CodeNotFound}
	default:
		return errorBody{Message: "Internal Server Error", StatusCode: http.StatusInternalServerError, Code: CodeInternal}
	}
}

// writeError renders err. Details of unexpected errors stay in the log.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	body := errorResponse(err)
	logger := applog.FromContext(r.Context())
	fields := applog.NewFields().WithOperation(op).WithError(err)
	if userID, ok := auth.UserID(r.Context()); ok {
		fields[applog.FieldUserID] = userID
	}

	switch {
	case body.StatusCode >= 500:
		applog.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, op, fields.WithErrorType(applog.ErrorTypeInternal))
	case body.Code == CodePlanLimitExceeded:
		logger.WarnContext(r.Context(), "Plan limit reached", fields.WithErrorType(applog.ErrorTypeQuota).ToSlice()...)
	default:
		logger.DebugContext(r.Context(), "Request rejected", fields.WithErrorType(errorType(body.Code)).ToSlice()...)
	}

	writeJSON(w, body.StatusCode, body)
}

func errorType(code string) string {
	switch code {
	case CodeNotFound:
		return applog.ErrorTypeNotFound
	case CodeRecurrenceImmutable, CodeInstallmentStructureImmutable:
		return applog.ErrorTypeConflict
	default:
		return applog.ErrorTypeValidation
	}
}

func (s *Server) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusUnauthorized, errorBody{
		Message:    auth.Message(err),
		StatusCode: http.StatusUnauthorized,
		Code:       CodeUnauthorized,
	})
}

func (s *Server) writeRateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WithComponent(applog.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldMethod, r.Method,
		applog.FieldPath, r.URL.Path)
	writeJSON(w, http.StatusTooManyRequests, errorBody{
		Message:    "Too many requests",
		StatusCode: http.StatusTooManyRequests,
		Code:       CodeRateLimited,
	})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Message:    "Route not found",
		StatusCode: http.StatusNotFound,
		Code:       CodeNotFound,
	})
}
