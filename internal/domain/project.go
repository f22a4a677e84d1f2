package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProjectStatus string

const (
	ProjectStatusPlanning  ProjectStatus = "planning"
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusCompleted ProjectStatus = "completed"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusActive, ProjectStatusCompleted:
		return true
	}
	return false
}

type ProjectTransactionType string

const (
	ProjectTxInvestment ProjectTransactionType = "investment"
	ProjectTxExpense    ProjectTransactionType = "expense"
	ProjectTxIncome     ProjectTransactionType = "income"
	ProjectTxWithdrawal ProjectTransactionType = "withdrawal"
)

func (t ProjectTransactionType) IsValid() bool {
	switch t {
	case ProjectTxInvestment, ProjectTxExpense, ProjectTxIncome, ProjectTxWithdrawal:
		return true
	}
	return false
}

// SharePercentage is stored to four decimal places.
type ProjectMember struct {
	MemberID         string          `json:"member_id"`
	MemberName       string          `json:"member_name"`
	InvestmentAmount Money           `json:"investment_amount"`
	SharePercentage  decimal.Decimal `json:"share_percentage"`
	JoinedAt         time.Time       `json:"joined_at"`
}

type Milestone struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	TargetDate  time.Time  `json:"target_date"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ProjectTransaction struct {
	ID          string                 `json:"id"`
	Type        ProjectTransactionType `json:"type"`
	Amount      Money                  `json:"amount"`
	Description string                 `json:"description"`
	MemberID    *string                `json:"member_id,omitempty"`
	Date        time.Time              `json:"date"`
}

// Project.TotalBorrowed and ROI are not stored: the ledger computes them on read.
type Project struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Description     string               `json:"description"`
	Status          ProjectStatus        `json:"status"`
	StartDate       time.Time            `json:"start_date"`
	TotalInvestment Money                `json:"total_investment"`
	CurrentValue    Money                `json:"current_value"`
	ExpectedIncome  Money                `json:"expected_income"`
	ActualIncome    Money                `json:"actual_income"`
	Members         []ProjectMember      `json:"members"`
	Milestones      []Milestone          `json:"milestones"`
	Transactions    []ProjectTransaction `json:"transactions"`
	CreatedAt       time.Time            `json:"created_at"`
}

// ROI is (currentValue + actualIncome - totalInvestment) / totalInvestment * 100,
// rounded to two places, and zero when nothing has been invested.
func (p *Project) ROI() decimal.Decimal {
	if p.TotalInvestment.IsZero() {
		return decimal.Zero
	}
	gain := p.CurrentValue.Decimal().Add(p.ActualIncome.Decimal()).Sub(p.TotalInvestment.Decimal())
	return gain.Div(p.TotalInvestment.Decimal()).Mul(hundred).Round(2)
}

func (p *Project) FindMember(memberID string) int {
	for i, m := range p.Members {
		if m.MemberID == memberID {
			return i
		}
	}
	return -1
}
