package handler

import (
	"net/http"

	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

// Register mounts the ledger API under /api/v1. protect wraps every API route,
// typically with bearer-token authentication.
func Register(mux *http.ServeMux, store *ledger.Store, protect func(http.Handler) http.Handler) {
	api := http.NewServeMux()

	members := NewMemberHandler(store)
	api.HandleFunc("POST /api/v1/members", members.Create)
	api.HandleFunc("GET /api/v1/members", members.List)
	api.HandleFunc("GET /api/v1/members/{id}", members.Get)
	api.HandleFunc("PATCH /api/v1/members/{id}", members.Update)
	api.HandleFunc("DELETE /api/v1/members/{id}", members.Delete)
	api.HandleFunc("GET /api/v1/members/{id}/statement", members.Statement)

	contributions := NewContributionHandler(store)
	api.HandleFunc("POST /api/v1/contributions", contributions.Create)
	api.HandleFunc("GET /api/v1/contributions", contributions.List)
	api.HandleFunc("GET /api/v1/contributions/{id}", contributions.Get)
	api.HandleFunc("POST /api/v1/contributions/{id}/confirm", contributions.Confirm)
	api.HandleFunc("POST /api/v1/contributions/{id}/reject", contributions.Reject)

	loans := NewLoanHandler(store)
	api.HandleFunc("POST /api/v1/loans", loans.Apply)
	api.HandleFunc("GET /api/v1/loans", loans.List)
	api.HandleFunc("GET /api/v1/loans/{id}", loans.Get)
	api.HandleFunc("GET /api/v1/loans/{id}/amortization", loans.Amortization)
	api.HandleFunc("POST /api/v1/loans/{id}/guarantors/{memberID}", loans.RespondGuarantor)
	api.HandleFunc("POST /api/v1/loans/{id}/approve", loans.Approve)
	api.HandleFunc("POST /api/v1/loans/{id}/reject", loans.Reject)
	api.HandleFunc("POST /api/v1/loans/{id}/disburse", loans.Disburse)
	api.HandleFunc("POST /api/v1/loans/{id}/repayments", loans.Repay)
	api.HandleFunc("POST /api/v1/loans/{id}/default", loans.Default)

	fines := NewFineHandler(store)
	api.HandleFunc("POST /api/v1/fines", fines.Create)
	api.HandleFunc("GET /api/v1/fines", fines.List)
	api.HandleFunc("GET /api/v1/fines/{id}", fines.Get)
	api.HandleFunc("POST /api/v1/fines/{id}/pay", fines.Pay)
	api.HandleFunc("POST /api/v1/fines/{id}/waive", fines.Waive)

	projects := NewProjectHandler(store)
	api.HandleFunc("POST /api/v1/projects", projects.Create)
	api.HandleFunc("GET /api/v1/projects", projects.List)
	api.HandleFunc("GET /api/v1/projects/{id}", projects.Get)
	api.HandleFunc("DELETE /api/v1/projects/{id}", projects.Delete)
	api.HandleFunc("GET /api/v1/projects/{id}/summary", projects.Summary)
	api.HandleFunc("POST /api/v1/projects/{id}/members", projects.Invest)
	api.HandleFunc("POST /api/v1/projects/{id}/transactions", projects.RecordTransaction)
	api.HandleFunc("POST /api/v1/projects/{id}/milestones", projects.AddMilestone)
	api.HandleFunc("POST /api/v1/projects/{id}/milestones/{milestoneID}/complete", projects.CompleteMilestone)

	catalogue := NewCatalogueHandler(store)
	api.HandleFunc("GET /api/v1/contribution-types", catalogue.ContributionTypes)
	api.HandleFunc("POST /api/v1/contribution-types", catalogue.AddContributionType)
	api.HandleFunc("GET /api/v1/loan-types", catalogue.LoanTypes)
	api.HandleFunc("POST /api/v1/loan-types", catalogue.AddLoanType)
	api.HandleFunc("GET /api/v1/fine-types", catalogue.FineTypes)
	api.HandleFunc("POST /api/v1/fine-types", catalogue.AddFineType)
	api.HandleFunc("GET /api/v1/totals", catalogue.Totals)

	mux.Handle("/api/v1/", protect(api))
}
