package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
)

type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data"`
	Error   *APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func RespondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func RespondSuccess(w http.ResponseWriter, status int, data any) {
	RespondJSON(w, status, APIResponse{
		Success: true,
		Data:    data,
		Error:   nil,
	})
}

func RespondAppError(w http.ResponseWriter, appErr *AppError, details any) {
	RespondJSON(w, appErr.Status, APIResponse{
		Success: false,
		Data:    nil,
		Error: &APIError{
			Code:    appErr.Code,
			Message: appErr.Message,
			Details: details,
		},
	})
}

func RespondValidationError(w http.ResponseWriter, fields []FieldError) {
	RespondAppError(w, ErrValidationFailed, fields)
}

// domainErrors is matched in order, so specific errors precede their kind.
var domainErrors = []struct {
	err    error
	appErr *AppError
}{
	{domain.ErrUnknownMember, ErrMemberNotFound},
	{domain.ErrUnknownLoan, ErrLoanNotFound},
	{domain.ErrUnknownContribution, ErrContributionNotFound},
	{domain.ErrUnknownFine, ErrFineNotFound},
	{domain.ErrUnknownProject, ErrProjectNotFound},
	{domain.ErrNotFound, ErrResourceNotFound},

	{domain.ErrOverpaymentRejected, ErrOverpayment},
	{domain.ErrDuplicateRepayment, ErrDuplicateRepayment},
	{domain.ErrGuarantorsNotReady, ErrGuarantorsPending},
	{domain.ErrExceedsMaxAmount, ErrLoanLimitExceeded},
	{domain.ErrExceedsMaxDuration, ErrLoanLimitExceeded},
	{domain.ErrMemberInactive, ErrMemberInactive},
	{domain.ErrOutstandingBalance, ErrOutstandingBalance},
	{domain.ErrDuplicateEmail, ErrDuplicateEmail},
	{domain.ErrNegativeResult, ErrNegativeResult},
	{domain.ErrConstraintViolation, ErrConstraintViolation},

	{domain.ErrInvalidStateTransition, ErrInvalidTransition},
	{domain.ErrAlreadyFinalized, ErrAlreadyFinalized},
	{domain.ErrVersionConflict, ErrVersionConflict},
	{domain.ErrInvalidAmount, ErrInvalidAmount},
	{domain.ErrInvalidRequest, ErrInvalidRequest},
}

func appErrorFor(err error) *AppError {
	for _, m := range domainErrors {
		if errors.Is(err, m.err) {
			return m.appErr
		}
	}
	return ErrInternalError
}

// RespondDomainError logs a rejected command at Warn and anything unmapped,
// including invariant defects, at Error.
func RespondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := appErrorFor(err)
	log := logging.FromContext(r.Context())
	if appErr == ErrInternalError {
		log.Error("request failed", "error", err)
	} else {
		log.Warn("request rejected", "code", appErr.Code, "error", err)
	}

	var details any
	if appErr.Status != http.StatusInternalServerError {
		details = err.Error()
	}
	RespondAppError(w, appErr, details)
}
