package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of these so
// callers can branch on the kind with errors.Is.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConstraintViolation    = errors.New("constraint violation")
	ErrAlreadyFinalized       = errors.New("already finalized")

	ErrInvalidRequest     = errors.New("invalid request")
	ErrVersionConflict    = errors.New("optimistic lock conflict")
	ErrInvariantViolation = errors.New("ledger invariant violated")
)

var (
	ErrUnknownMember           = fmt.Errorf("unknown member: %w", ErrNotFound)
	ErrUnknownContribution     = fmt.Errorf("unknown contribution: %w", ErrNotFound)
	ErrUnknownContributionType = fmt.Errorf("unknown contribution type: %w", ErrNotFound)
	ErrUnknownLoan             = fmt.Errorf("unknown loan: %w", ErrNotFound)
	ErrUnknownLoanType         = fmt.Errorf("unknown loan type: %w", ErrNotFound)
	ErrUnknownFine             = fmt.Errorf("unknown fine: %w", ErrNotFound)
	ErrUnknownFineType         = fmt.Errorf("unknown fine type: %w", ErrNotFound)
	ErrUnknownProject          = fmt.Errorf("unknown project: %w", ErrNotFound)
	ErrUnknownMilestone        = fmt.Errorf("unknown milestone: %w", ErrNotFound)
	ErrUnknownGuarantor        = fmt.Errorf("member is not a guarantor on this loan: %w", ErrNotFound)

	ErrAmountTooLarge = fmt.Errorf("amount exceeds maximum: %w", ErrInvalidAmount)

	ErrNegativeResult         = fmt.Errorf("result would be negative: %w", ErrConstraintViolation)
	ErrAmountOverflow         = fmt.Errorf("total would exceed maximum amount: %w", ErrConstraintViolation)
	ErrExceedsMaxAmount       = fmt.Errorf("principal exceeds loan type maximum: %w", ErrConstraintViolation)
	ErrExceedsMaxDuration     = fmt.Errorf("duration exceeds loan type maximum: %w", ErrConstraintViolation)
	ErrInsufficientGuarantors = fmt.Errorf("not enough guarantors supplied: %w", ErrConstraintViolation)
	ErrGuarantorsNotReady     = fmt.Errorf("required guarantors have not accepted: %w", ErrConstraintViolation)
	ErrInvalidGuarantor       = fmt.Errorf("invalid guarantor: %w", ErrConstraintViolation)
	ErrOverpaymentRejected    = fmt.Errorf("repayment exceeds outstanding balance: %w", ErrConstraintViolation)
	ErrDuplicateRepayment     = fmt.Errorf("repayment id reused with different amount: %w", ErrConstraintViolation)
	ErrOutstandingBalance     = fmt.Errorf("member has outstanding balances: %w", ErrConstraintViolation)
	ErrProjectInUse           = fmt.Errorf("project has linked loans or transactions: %w", ErrConstraintViolation)
	ErrMemberInactive         = fmt.Errorf("member is not active: %w", ErrConstraintViolation)
	ErrDuplicateEmail         = fmt.Errorf("email already registered: %w", ErrConstraintViolation)
)
