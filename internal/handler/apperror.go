package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrInvalidAmount    = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrMemberNotFound       = &AppError{http.StatusNotFound, "MEMBER_NOT_FOUND", "Member not found"}
	ErrLoanNotFound         = &AppError{http.StatusNotFound, "LOAN_NOT_FOUND", "Loan not found"}
	ErrContributionNotFound = &AppError{http.StatusNotFound, "CONTRIBUTION_NOT_FOUND", "Contribution not found"}
	ErrFineNotFound         = &AppError{http.StatusNotFound, "FINE_NOT_FOUND", "Fine not found"}
	ErrProjectNotFound      = &AppError{http.StatusNotFound, "PROJECT_NOT_FOUND", "Project not found"}

	ErrInvalidTransition = &AppError{http.StatusConflict, "INVALID_STATE_TRANSITION", "Operation is not allowed in the current status"}
	ErrAlreadyFinalized  = &AppError{http.StatusConflict, "ALREADY_FINALIZED", "Record is already finalized"}
	ErrVersionConflict   = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Ledger was modified concurrently, please retry"}

	ErrConstraintViolation = &AppError{http.StatusUnprocessableEntity, "CONSTRAINT_VIOLATION", "Request violates a ledger rule"}
	ErrOverpayment         = &AppError{http.StatusUnprocessableEntity, "OVERPAYMENT_REJECTED", "Repayment exceeds the outstanding balance"}
	ErrDuplicateRepayment  = &AppError{http.StatusUnprocessableEntity, "DUPLICATE_REPAYMENT", "Repayment id already used with a different amount"}
	ErrGuarantorsPending   = &AppError{http.StatusUnprocessableEntity, "GUARANTORS_NOT_READY", "Required guarantors have not accepted"}
	ErrLoanLimitExceeded   = &AppError{http.StatusUnprocessableEntity, "LOAN_LIMIT_EXCEEDED", "Loan exceeds the limits of its type"}
	ErrMemberInactive      = &AppError{http.StatusUnprocessableEntity, "MEMBER_INACTIVE", "Member is not active"}
	ErrOutstandingBalance  = &AppError{http.StatusUnprocessableEntity, "OUTSTANDING_BALANCE", "Member has outstanding balances"}
	ErrDuplicateEmail      = &AppError{http.StatusUnprocessableEntity, "DUPLICATE_EMAIL", "Email already registered"}
	ErrNegativeResult      = &AppError{http.StatusUnprocessableEntity, "NEGATIVE_RESULT", "Result would be negative"}
)
