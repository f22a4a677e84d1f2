package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

type projectLedger interface {
	AddProject(ctx context.Context, req ledger.AddProjectRequest) (*domain.Project, error)
	AddProjectMember(ctx context.Context, projectID, memberID string, amount domain.Money) (*domain.Project, error)
	RecordProjectTransaction(ctx context.Context, req ledger.ProjectTransactionRequest) (*domain.Project, error)
	AddProjectMilestone(ctx context.Context, projectID, title string, target time.Time) (*domain.Project, error)
	CompleteProjectMilestone(ctx context.Context, projectID, milestoneID string) (*domain.Project, error)
	DeleteProject(ctx context.Context, projectID string) error
	Project(projectID string) (*domain.Project, error)
	Projects() []domain.Project
	ProjectSummary(projectID string) (*ledger.ProjectSummary, error)
}

type ProjectHandler struct {
	ledger projectLedger
}

func NewProjectHandler(l projectLedger) *ProjectHandler {
	return &ProjectHandler{ledger: l}
}

type addProjectRequest struct {
	Name           string       `json:"name"`
	Description    string       `json:"description"`
	Status         string       `json:"status"`
	StartDate      Date         `json:"start_date"`
	ExpectedIncome domain.Money `json:"expected_income"`
}

func (r addProjectRequest) Validate() []FieldError {
	var errs []FieldError
	errs = required(errs, "name", r.Name)
	if r.Status != "" && !domain.ProjectStatus(r.Status).IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be planning, active, or completed"})
	}
	return errs
}

type investRequest struct {
	MemberID string       `json:"member_id"`
	Amount   domain.Money `json:"amount"`
}

type projectTransactionRequest struct {
	Type        string       `json:"type"`
	Amount      domain.Money `json:"amount"`
	Description string       `json:"description"`
	MemberID    *string      `json:"member_id"`
	Date        Date         `json:"date"`
}

func (r projectTransactionRequest) Validate() []FieldError {
	var errs []FieldError
	if !domain.ProjectTransactionType(r.Type).IsValid() {
		errs = append(errs, FieldError{Field: "type", Message: "must be investment, income, expense, or withdrawal"})
	}
	if !r.Amount.IsPositive() {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	return errs
}

type milestoneRequest struct {
	Title      string `json:"title"`
	TargetDate Date   `json:"target_date"`
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req addProjectRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	p, err := h.ledger.AddProject(r.Context(), ledger.AddProjectRequest{
		Name:           req.Name,
		Description:    req.Description,
		Status:         domain.ProjectStatus(req.Status),
		StartDate:      req.StartDate.Time,
		ExpectedIncome: req.ExpectedIncome,
	})
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/projects/%s", p.ID))
	RespondSuccess(w, http.StatusCreated, p)
}

func (h *ProjectHandler) Invest(w http.ResponseWriter, r *http.Request) {
	var req investRequest
	if !decode(w, r, &req) {
		return
	}
	var fields []FieldError
	fields = required(fields, "member_id", req.MemberID)
	if !req.Amount.IsPositive() {
		fields = append(fields, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	p, err := h.ledger.AddProjectMember(r.Context(), r.PathValue("id"), req.MemberID, req.Amount)
	h.respond(w, r, p, err)
}

func (h *ProjectHandler) RecordTransaction(w http.ResponseWriter, r *http.Request) {
	var req projectTransactionRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	p, err := h.ledger.RecordProjectTransaction(r.Context(), ledger.ProjectTransactionRequest{
		ProjectID:   r.PathValue("id"),
		Type:        domain.ProjectTransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		MemberID:    req.MemberID,
		Date:        req.Date.Time,
	})
	h.respond(w, r, p, err)
}

func (h *ProjectHandler) AddMilestone(w http.ResponseWriter, r *http.Request) {
	var req milestoneRequest
	if !decode(w, r, &req) {
		return
	}
	if fields := required(nil, "title", req.Title); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	p, err := h.ledger.AddProjectMilestone(r.Context(), r.PathValue("id"), req.Title, req.TargetDate.Time)
	h.respond(w, r, p, err)
}

func (h *ProjectHandler) CompleteMilestone(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.CompleteProjectMilestone(r.Context(), r.PathValue("id"), r.PathValue("milestoneID"))
	h.respond(w, r, p, err)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.ledger.DeleteProject(r.Context(), r.PathValue("id")); err != nil {
		RespondDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.ledger.Project(r.PathValue("id"))
	h.respond(w, r, p, err)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, http.StatusOK, nonNil(h.ledger.Projects()))
}

func (h *ProjectHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.ledger.ProjectSummary(r.PathValue("id"))
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, sum)
}

func (h *ProjectHandler) respond(w http.ResponseWriter, r *http.Request, p *domain.Project, err error) {
	if err != nil {
		RespondDomainError(w, r, err)
		return
	}
	RespondSuccess(w, http.StatusOK, p)
}
