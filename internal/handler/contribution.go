package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/josh-kwaku/chama-ledger/internal/auth"
	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

type contributionLedger interface {
	RecordContribution(ctx context.Context, req ledger.RecordContributionRequest) (*domain.Contribution, error)
	ConfirmContribution(ctx context.Context, contributionID, confirmedBy string) (*domain.Contribution, error)
	RejectContribution(ctx context.Context, contributionID string, reason *string) (*domain.Contribution, error)
	Contribution(contributionID string) (*domain.Contribution, error)
	Contributions(memberID string) []domain.Contribution
}

type ContributionHandler struct {
	ledger contributionLedger
}

func NewContributionHandler(l contributionLedger) *ContributionHandler {
	return &ContributionHandler{ledger: l}
}

type recordContributionRequest struct {
	MemberID  string       `json:"member_id"`
	TypeID    string       `json:"type_id"`
	Amount    domain.Money `json:"amount"`
	Date      Date         `json:"date"`
	Method    string       `json:"method"`
	Reference *string      `json:"reference"`
	Notes     *string      `json:"notes"`
}

func (r recordContributionRequest) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "member_id", r.MemberID)
	errs = required(errs, "type_id", r.TypeID)
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Method != "" && !domain.PaymentMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "unknown payment method"})
	}
	return errs
}

type rejectRequest struct {
	Reason *string `json:"reason"`
}

func (h *ContributionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recordContributionRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	c, err := h.ledger.RecordContribution(r.Context(), ledger.RecordContributionRequest{
		MemberID:  req.MemberID,
		TypeID:    req.TypeID,
		Amount:    req.Amount,
		Date:      req.Date.Time,
		Method:    domain.PaymentMethod(req.Method),
		Reference: req.Reference,
		Notes:     req.Notes,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/contributions/%s", c.ID))
	RespondSuccess(w, http.StatusCreated, c)
}

func (h *ContributionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	c, err := h.ledger.ConfirmContribution(r.Context(), r.PathValue("id"), auth.ActorFromContext(r.Context()))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, c)
}

func (h *ContributionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if !decode(w, r, &req) {
		return
	}
	c, err := h.ledger.RejectContribution(r.Context(), r.PathValue("id"), req.Reason)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, c)
}

func (h *ContributionHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.ledger.Contribution(r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, c)
}

// List filters by the member_id query parameter when present.
func (h *ContributionHandler) List(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, nonNil(h.ledger.Contributions(r.URL.Query().Get("member_id"))))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
