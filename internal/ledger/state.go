package ledger

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

const schemaVersion = 1

// State is the full aggregate persisted as one document.
type State struct {
	Members           []domain.Member           `json:"members"`
	ContributionTypes []domain.ContributionType `json:"contribution_types"`
	Contributions     []domain.Contribution     `json:"contributions"`
	LoanTypes         []domain.LoanType         `json:"loan_types"`
	Loans             []domain.Loan             `json:"loans"`
	FineTypes         []domain.FineType         `json:"fine_types"`
	Fines             []domain.Fine             `json:"fines"`
	Projects          []domain.Project          `json:"projects"`
}

type snapshot struct {
	SchemaVersion int `json:"schema_version"`
	State
}

// DefaultState is the freshly initialised ledger: an empty roster with the
// standard catalogue of contribution, loan and fine types.
func DefaultState() *State {
	return &State{
		ContributionTypes: []domain.ContributionType{
			{ID: "ct-monthly", Name: "Monthly contribution", Description: "Regular monthly savings", Amount: domain.MustMoney(500_000), Frequency: domain.FrequencyMonthly, Required: true},
			{ID: "ct-registration", Name: "Registration fee", Description: "One-time joining fee", Amount: domain.MustMoney(100_000), Frequency: domain.FrequencyOneTime, Required: true},
		},
		LoanTypes: []domain.LoanType{
			{
				ID: "lt-normal", Name: "Normal loan",
				InterestRate: decimal.NewFromInt(12), InterestPolicy: domain.InterestSimple,
				MaxAmount: domain.MustMoney(50_000_000), MaxDurationMonths: 24,
				ProcessingFeeRate: decimal.NewFromInt(1),
				RequiresGuarantors: true, MinGuarantors: 1,
			},
			{
				ID: "lt-emergency", Name: "Emergency loan",
				InterestRate: decimal.NewFromInt(10), InterestPolicy: domain.InterestCompound,
				MaxAmount: domain.MustMoney(5_000_000), MaxDurationMonths: 6,
				ProcessingFeeRate: decimal.Zero,
			},
			{
				ID: "lt-development", Name: "Development loan",
				InterestRate: decimal.NewFromInt(14), InterestPolicy: domain.InterestReducingBalance,
				MaxAmount: domain.MustMoney(200_000_000), MaxDurationMonths: 36,
				ProcessingFeeRate: decimal.RequireFromString("1.5"),
				RequiresGuarantors: true, MinGuarantors: 2,
			},
		},
		FineTypes: []domain.FineType{
			{ID: "ft-late-contribution", Name: "Late contribution", Description: "Contribution received after the due date", Amount: domain.MustMoney(20_000)},
			{ID: "ft-absence", Name: "Meeting absence", Description: "Missed a meeting without apology", Amount: domain.MustMoney(10_000)},
			{ID: "ft-late-repayment", Name: "Late loan repayment", Description: "Installment received after the due date", Amount: domain.MustMoney(50_000)},
		},
	}
}

// Reconcile merges a persisted state with freshly initialised defaults. For
// each collection the persisted one wins in full when it is non-empty;
// otherwise the default collection is kept. No field-level merge happens.
func Reconcile(persisted, defaults *State) *State {
	if defaults == nil {
		defaults = &State{}
	}
	if persisted == nil {
		return defaults.clone()
	}
	return &State{
		Members:           pick(persisted.Members, defaults.Members),
		ContributionTypes: pick(persisted.ContributionTypes, defaults.ContributionTypes),
		Contributions:     pick(persisted.Contributions, defaults.Contributions),
		LoanTypes:         pick(persisted.LoanTypes, defaults.LoanTypes),
		Loans:             cloneLoans(pick(persisted.Loans, defaults.Loans)),
		FineTypes:         pick(persisted.FineTypes, defaults.FineTypes),
		Fines:             pick(persisted.Fines, defaults.Fines),
		Projects:          cloneProjects(pick(persisted.Projects, defaults.Projects)),
	}
}

func pick[T any](persisted, defaults []T) []T {
	if len(persisted) > 0 {
		return slices.Clone(persisted)
	}
	return slices.Clone(defaults)
}

func (s *State) clone() *State {
	return &State{
		Members:           slices.Clone(s.Members),
		ContributionTypes: slices.Clone(s.ContributionTypes),
		Contributions:     slices.Clone(s.Contributions),
		LoanTypes:         slices.Clone(s.LoanTypes),
		Loans:             cloneLoans(s.Loans),
		FineTypes:         slices.Clone(s.FineTypes),
		Fines:             slices.Clone(s.Fines),
		Projects:          cloneProjects(s.Projects),
	}
}

// Optional fields are pointers to values that are never written through, so
// sharing them between copies is safe. Nested slices are copied.

func cloneLoans(loans []domain.Loan) []domain.Loan {
	if loans == nil {
		return nil
	}
	out := make([]domain.Loan, len(loans))
	for i := range loans {
		out[i] = cloneLoan(loans[i])
	}
	return out
}

func cloneLoan(l domain.Loan) domain.Loan {
	l.Repayments = slices.Clone(l.Repayments)
	l.Guarantors = slices.Clone(l.Guarantors)
	return l
}

func cloneProjects(projects []domain.Project) []domain.Project {
	if projects == nil {
		return nil
	}
	out := make([]domain.Project, len(projects))
	for i := range projects {
		out[i] = cloneProject(projects[i])
	}
	return out
}

func cloneProject(p domain.Project) domain.Project {
	p.Members = slices.Clone(p.Members)
	p.Milestones = slices.Clone(p.Milestones)
	p.Transactions = slices.Clone(p.Transactions)
	return p
}

func (s *State) member(id string) *domain.Member {
	for i := range s.Members {
		if s.Members[i].ID == id {
			return &s.Members[i]
		}
	}
	return nil
}

func (s *State) contributionType(id string) *domain.ContributionType {
	for i := range s.ContributionTypes {
		if s.ContributionTypes[i].ID == id {
			return &s.ContributionTypes[i]
		}
	}
	return nil
}

func (s *State) contribution(id string) *domain.Contribution {
	for i := range s.Contributions {
		if s.Contributions[i].ID == id {
			return &s.Contributions[i]
		}
	}
	return nil
}

func (s *State) loanType(id string) *domain.LoanType {
	for i := range s.LoanTypes {
		if s.LoanTypes[i].ID == id {
			return &s.LoanTypes[i]
		}
	}
	return nil
}

func (s *State) loan(id string) *domain.Loan {
	for i := range s.Loans {
		if s.Loans[i].ID == id {
			return &s.Loans[i]
		}
	}
	return nil
}

func (s *State) fineType(id string) *domain.FineType {
	for i := range s.FineTypes {
		if s.FineTypes[i].ID == id {
			return &s.FineTypes[i]
		}
	}
	return nil
}

func (s *State) fine(id string) *domain.Fine {
	for i := range s.Fines {
		if s.Fines[i].ID == id {
			return &s.Fines[i]
		}
	}
	return nil
}

func (s *State) project(id string) *domain.Project {
	for i := range s.Projects {
		if s.Projects[i].ID == id {
			return &s.Projects[i]
		}
	}
	return nil
}
