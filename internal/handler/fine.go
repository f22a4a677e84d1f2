package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

type fineLedger interface {
	RecordFine(ctx context.Context, req ledger.RecordFineRequest) (*domain.Fine, error)
	ResolveFine(ctx context.Context, req ledger.ResolveFineRequest) (*domain.Fine, error)
	Fine(fineID string) (*domain.Fine, error)
	Fines(memberID string) []domain.Fine
}

type FineHandler struct {
	ledger fineLedger
}

func NewFineHandler(l fineLedger) *FineHandler {
	return &FineHandler{ledger: l}
}

type recordFineRequest struct {
	MemberID string        `json:"member_id"`
	TypeID   string        `json:"type_id"`
	Amount   *domain.Money `json:"amount"`
	Date     Date          `json:"date"`
	Reason   string        `json:"reason"`
}

func (r recordFineRequest) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "member_id", r.MemberID)
	errs = required(errs, "type_id", r.TypeID)
	if r.Amount != nil && !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type payFineRequest struct {
	Method    string  `json:"method"`
	Reference *string `json:"reference"`
}

func (r payFineRequest) Validate() []FieldError {
	if !domain.PaymentMethod(r.Method).IsValid() {
		return []FieldError{{Field: "method", Message: "unknown payment method"}}
	}
	return nil
}

func (h *FineHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req recordFineRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	f, err := h.ledger.RecordFine(r.Context(), ledger.RecordFineRequest{
		MemberID: req.MemberID,
		TypeID:   req.TypeID,
		Amount:   req.Amount,
		Date:     req.Date.Time,
		Reason:   req.Reason,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/fines/%s", f.ID))
	RespondSuccess(w, http.StatusCreated, f)
}

func (h *FineHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req payFineRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	method := domain.PaymentMethod(req.Method)
	h.resolve(w, r, ledger.ResolveFineRequest{
		FineID:     r.PathValue("id"),
		Resolution: domain.FineStatusPaid,
		Method:     &method,
		Reference:  req.Reference,
	})
}

func (h *FineHandler) Waive(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if !decode(w, r, &req) {
		return
	}
	h.resolve(w, r, ledger.ResolveFineRequest{
		FineID:     r.PathValue("id"),
		Resolution: domain.FineStatusWaived,
		Reason:     req.Reason,
	})
}

func (h *FineHandler) resolve(w http.ResponseWriter, r *http.Request, req ledger.ResolveFineRequest) {
	f, err := h.ledger.ResolveFine(r.Context(), req)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, f)
}

func (h *FineHandler) Get(w http.ResponseWriter, r *http.Request) {
	f, err := h.ledger.Fine(r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, f)
}

func (h *FineHandler) List(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, nonNil(h.ledger.Fines(r.URL.Query().Get("member_id"))))
}
