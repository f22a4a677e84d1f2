package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

type memberLedger interface {
	AddMember(ctx context.Context, req ledger.AddMemberRequest) (*domain.Member, error)
	UpdateMember(ctx context.Context, req ledger.UpdateMemberRequest) (*domain.Member, error)
	RemoveMember(ctx context.Context, memberID string) error
	Member(memberID string) (*domain.Member, error)
	Members() []domain.Member
	MemberStatement(memberID string) (*ledger.Statement, error)
}

type MemberHandler struct {
	ledger memberLedger
}

func NewMemberHandler(l memberLedger) *MemberHandler {
	return &MemberHandler{ledger: l}
}

type addMemberRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	JoinDate Date   `json:"join_date"`
}

func (r addMemberRequest) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "name", r.Name)
	if r.Role != "" && !domain.Role(r.Role).IsValid() {
		errs = append(errs, FieldError{Field: "role", Message: "unknown role"})
	}
	return errs
}

type updateMemberRequest struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Phone  *string `json:"phone"`
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (r updateMemberRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Role != nil && !domain.Role(*r.Role).IsValid() {
		errs = append(errs, FieldError{Field: "role", Message: "unknown role"})
	}
	if r.Status != nil && !domain.MemberStatus(*r.Status).IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be active, inactive, or suspended"})
	}
	return errs
}

func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	m, err := h.ledger.AddMember(r.Context(), ledger.AddMemberRequest{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     domain.Role(req.Role),
		JoinDate: req.JoinDate.Time,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/members/%s", m.ID))
	RespondSuccess(w, http.StatusCreated, m)
}

func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateMemberRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	update := ledger.UpdateMemberRequest{
		MemberID: r.PathValue("id"),
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
	}
	if req.Role != nil {
		role := domain.Role(*req.Role)
		update.Role = &role
	}
	if req.Status != nil {
		status := domain.MemberStatus(*req.Status)
		update.Status = &status
	}

	m, err := h.ledger.UpdateMember(r.Context(), update)
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, m)
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.RemoveMember(r.Context(), r.PathValue("id")); err != nil {
		RespondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.ledger.Member(r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, m)
}

func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, h.ledger.Members())
}

func (h *MemberHandler) Statement(w http.ResponseWriter, r *http.Request) {
	stmt, err := h.ledger.MemberStatement(r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, stmt)
}
