package handler

import (
	"context"
	"net/http"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

type catalogueLedger interface {
	AddContributionType(ctx context.Context, ct domain.ContributionType) (*domain.ContributionType, error)
	AddLoanType(ctx context.Context, lt domain.LoanType) (*domain.LoanType, error)
	AddFineType(ctx context.Context, ft domain.FineType) (*domain.FineType, error)
	ContributionTypes() []domain.ContributionType
	LoanTypes() []domain.LoanType
	FineTypes() []domain.FineType
	Totals() (ledger.Totals, error)
}

// CatalogueHandler serves the configurable types and the ledger-wide totals.
type CatalogueHandler struct {
	ledger catalogueLedger
}

func NewCatalogueHandler(l catalogueLedger) *CatalogueHandler {
	return &CatalogueHandler{ledger: l}
}

func (h *CatalogueHandler) AddContributionType(w http.ResponseWriter, r *http.Request) {
	var req domain.ContributionType
	if !decode(w, r, &req) {
		return
	}
	out, err := h.ledger.AddContributionType(r.Context(), req)
	created(w, r, out, err)
}

func (h *CatalogueHandler) AddLoanType(w http.ResponseWriter, r *http.Request) {
	var req domain.LoanType
	if !decode(w, r, &req) {
		return
	}
	out, err := h.ledger.AddLoanType(r.Context(), req)
	created(w, r, out, err)
}

func (h *CatalogueHandler) AddFineType(w http.ResponseWriter, r *http.Request) {
	var req domain.FineType
	if !decode(w, r, &req) {
		return
	}
	out, err := h.ledger.AddFineType(r.Context(), req)
	created(w, r, out, err)
}

func (h *CatalogueHandler) ContributionTypes(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, nonNil(h.ledger.ContributionTypes()))
}

func (h *CatalogueHandler) LoanTypes(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, nonNil(h.ledger.LoanTypes()))
}

func (h *CatalogueHandler) FineTypes(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, nonNil(h.ledger.FineTypes()))
}

func (h *CatalogueHandler) Totals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.ledger.Totals()
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, totals)
}

func created[T any](w http.ResponseWriter, r *http.Request, v *T, err error) {
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusCreated, v)
}
