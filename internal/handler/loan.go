package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/josh-kwaku/chama-ledger/internal/auth"
	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

type loanLedger interface {
	ApplyLoan(ctx context.Context, req ledger.ApplyLoanRequest) (*domain.Loan, error)
	RespondGuarantor(ctx context.Context, loanID, memberID string, accept bool) (*domain.Loan, error)
	ApproveLoan(ctx context.Context, loanID, approvedBy string) (*domain.Loan, error)
	RejectLoan(ctx context.Context, loanID, reason string) (*domain.Loan, error)
	DisburseLoan(ctx context.Context, loanID string, date time.Time) (*domain.Loan, error)
	RecordRepayment(ctx context.Context, req ledger.RepaymentRequest) (*domain.Loan, error)
	MarkDefaulted(ctx context.Context, loanID string) (*domain.Loan, error)
	Loan(loanID string) (*domain.Loan, error)
	Loans(memberID string) []domain.Loan
	LoanAmortization(loanID string) (*ledger.Amortization, error)
}

type LoanHandler struct {
	ledger loanLedger
}

func NewLoanHandler(l loanLedger) *LoanHandler {
	return &LoanHandler{ledger: l}
}

type guarantorRequest struct {
	MemberID string       `json:"member_id"`
	Amount   domain.Money `json:"amount"`
}

type applyLoanRequest struct {
	MemberID       string             `json:"member_id"`
	LoanTypeID     string             `json:"loan_type_id"`
	Principal      domain.Money       `json:"principal"`
	DurationMonths int                `json:"duration_months"`
	Purpose        string             `json:"purpose"`
	ProjectID      *string            `json:"project_id"`
	Guarantors     []guarantorRequest `json:"guarantors"`
	ApplicationDay Date               `json:"application_date"`
}

func (r applyLoanRequest) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "member_id", r.MemberID)
	errs = required(errs, "loan_type_id", r.LoanTypeID)
	if !r.Principal.IsPositive() {
		errs = append(errs, FieldError{Field: "principal", Message: "must be greater than 0"})
	}
	if r.DurationMonths <= 0 {
		errs = append(errs, FieldError{Field: "duration_months", Message: "must be greater than 0"})
	}
	for i, g := range r.Guarantors {
		if strings.TrimSpace(g.MemberID) == "" {
			errs = append(errs, FieldError{Field: fmt.Sprintf("guarantors[%d].member_id", i), Message: "required"})
		}
	}
	return errs
}

type guarantorResponseRequest struct {
	Accept *bool `json:"accept"`
}

type rejectLoanRequest struct {
	Reason string `json:"reason"`
}

type disburseRequest struct {
	Date Date `json:"date"`
}

type repaymentRequest struct {
	ID        string       `json:"id"`
	Amount    domain.Money `json:"amount"`
	Date      Date         `json:"date"`
	Method    string       `json:"method"`
	Reference *string      `json:"reference"`
}

func (r repaymentRequest) Validate() []FieldError {
	var errs []FieldError
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Method != "" && !domain.PaymentMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "unknown payment method"})
	}
	return errs
}

func (h *LoanHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req applyLoanRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	guarantors := make([]ledger.GuarantorRequest, len(req.Guarantors))
	for i, g := range req.Guarantors {
		guarantors[i] = ledger.GuarantorRequest{MemberID: g.MemberID, Amount: g.Amount}
	}
	l, err := h.ledger.ApplyLoan(r.Context(), ledger.ApplyLoanRequest{
		MemberID:       req.MemberID,
		LoanTypeID:     req.LoanTypeID,
		Principal:      req.Principal,
		DurationMonths: req.DurationMonths,
		Purpose:        req.Purpose,
		ProjectID:      req.ProjectID,
		Guarantors:     guarantors,
		ApplicationDay: req.ApplicationDay.Time,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/loans/%s", l.ID))
	RespondSuccess(w, http.StatusCreated, l)
}

func (h *LoanHandler) RespondGuarantor(w http.ResponseWriter, r *http.Request) {
	var req guarantorResponseRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Accept == nil {
		RespondValidationError(w, []FieldError{{Field: "accept", Message: "required"}})
		return
	}
	l, err := h.ledger.RespondGuarantor(r.Context(), r.PathValue("id"), r.PathValue("memberID"), *req.Accept)
	h.respond(w, r, l, err)
}

func (h *LoanHandler) Approve(w http.ResponseWriter, r *http.Request) {
	l, err := h.ledger.ApproveLoan(r.Context(), r.PathValue("id"), auth.ActorFromContext(r.Context()))
	h.respond(w, r, l, err)
}

func (h *LoanHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectLoanRequest
	if !decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Reason) == "" {
		RespondValidationError(w, []FieldError{{Field: "reason", Message: "required"}})
		return
	}
	l, err := h.ledger.RejectLoan(r.Context(), r.PathValue("id"), req.Reason)
	h.respond(w, r, l, err)
}

func (h *LoanHandler) Disburse(w http.ResponseWriter, r *http.Request) {
	var req disburseRequest
	if !decode(w, r, &req) {
		return
	}
	l, err := h.ledger.DisburseLoan(r.Context(), r.PathValue("id"), req.Date.Time)
	h.respond(w, r, l, err)
}

// Repay uses the Idempotency-Key header as the repayment id when the body
// does not carry one, so a retried request is recorded once.
func (h *LoanHandler) Repay(w http.ResponseWriter, r *http.Request) {
	var req repaymentRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	id := req.ID
	if id == "" {
		id = r.Header.Get("Idempotency-Key")
	}

	l, err := h.ledger.RecordRepayment(r.Context(), ledger.RepaymentRequest{
		LoanID:     r.PathValue("id"),
		ID:         id,
		Amount:     req.Amount,
		Date:       req.Date.Time,
		Method:     domain.PaymentMethod(req.Method),
		Reference:  req.Reference,
		RecordedBy: auth.ActorFromContext(r.Context()),
	})
	h.respond(w, r, l, err)
}

func (h *LoanHandler) Default(w http.ResponseWriter, r *http.Request) {
	l, err := h.ledger.MarkDefaulted(r.Context(), r.PathValue("id"))
	h.respond(w, r, l, err)
}

func (h *LoanHandler) Get(w http.ResponseWriter, r *http.Request) {
	l, err := h.ledger.Loan(r.PathValue("id"))
	h.respond(w, r, l, err)
}

func (h *LoanHandler) List(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, nonNil(h.ledger.Loans(r.URL.Query().Get("member_id"))))
}

func (h *LoanHandler) Amortization(w http.ResponseWriter, r *http.Request) {
	a, err := h.ledger.LoanAmortization(r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, a)
}

func (h *LoanHandler) respond(w http.ResponseWriter, r *http.Request, l *domain.Loan, err error) {
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, l)
}
