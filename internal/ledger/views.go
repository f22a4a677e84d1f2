package ledger

import (
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/interest"
)

type EntryKind string

const (
	EntryContribution EntryKind = "contribution"
	EntryLoan         EntryKind = "loan_disbursement"
	EntryRepayment    EntryKind = "loan_repayment"
	EntryFine         EntryKind = "fine"
	EntryFinePayment  EntryKind = "fine_payment"
)

// StatementEntry moves the member's running balance up by Credit and down by
// Debit. Balance may go negative while a loan is outstanding.
type StatementEntry struct {
	Date        time.Time    `json:"date"`
	Kind        EntryKind    `json:"kind"`
	SourceID    string       `json:"source_id"`
	Description string       `json:"description"`
	Credit      domain.Money `json:"credit"`
	Debit       domain.Money `json:"debit"`
	Balance     int64        `json:"balance"`
}

type Statement struct {
	MemberID     string           `json:"member_id"`
	MemberName   string           `json:"member_name"`
	Entries      []StatementEntry `json:"entries"`
	TotalCredits domain.Money     `json:"total_credits"`
	TotalDebits  domain.Money     `json:"total_debits"`
	Balance      int64            `json:"balance"`
}

// MemberStatement lists a member's money movements in date order with a
// running balance. Confirmed contributions, repayments and fine payments are
// credits. A disbursed loan is a debit of its total obligation; a fine that
// was not waived is a debit on the day it was issued.
func (s *Store) MemberStatement(memberID string) (*Statement, error) {
	return read(s, func(st *State) (*Statement, error) {
		m := st.member(memberID)
		if m == nil {
			return nil, fmt.Errorf("MemberStatement: %w", domain.ErrUnknownMember)
		}

		var entries []StatementEntry
		for _, c := range st.Contributions {
			if c.MemberID != memberID || c.Status != domain.ContributionStatusConfirmed {
				continue
			}
			entries = append(entries, StatementEntry{
				Date: c.Date, Kind: EntryContribution, SourceID: c.ID,
				Description: c.TypeName, Credit: c.Amount,
			})
		}
		for _, l := range st.Loans {
			if l.MemberID != memberID || !l.Status.WasDisbursed() || l.DisbursementDate == nil {
				continue
			}
			entries = append(entries, StatementEntry{
				Date: *l.DisbursementDate, Kind: EntryLoan, SourceID: l.ID,
				Description: "Loan disbursed", Debit: l.TotalAmount,
			})
			for _, r := range l.Repayments {
				entries = append(entries, StatementEntry{
					Date: r.Date, Kind: EntryRepayment, SourceID: r.ID,
					Description: "Loan repayment", Credit: r.Amount,
				})
			}
		}
		for _, f := range st.Fines {
			if f.MemberID != memberID || f.Status == domain.FineStatusWaived {
				continue
			}
			entries = append(entries, StatementEntry{
				Date: f.Date, Kind: EntryFine, SourceID: f.ID,
				Description: f.TypeName, Debit: f.Amount,
			})
			if f.Status == domain.FineStatusPaid && f.PaidAt != nil {
				entries = append(entries, StatementEntry{
					Date: dateOnly(*f.PaidAt), Kind: EntryFinePayment, SourceID: f.ID,
					Description: f.TypeName + " paid", Credit: f.Amount,
				})
			}
		}
		slices.SortStableFunc(entries, func(a, b StatementEntry) int { return a.Date.Compare(b.Date) })

		stmt := &Statement{MemberID: m.ID, MemberName: m.Name, Entries: entries}
		var acc accumulator
		for i := range entries {
			e := &entries[i]
			acc.add(&stmt.TotalCredits, e.Credit)
			acc.add(&stmt.TotalDebits, e.Debit)
			stmt.Balance += e.Credit.Minor() - e.Debit.Minor()
			e.Balance = stmt.Balance
		}
		if acc.err != nil {
			return nil, fmt.Errorf("MemberStatement: %w", acc.err)
		}
		return stmt, nil
	})
}

type InstallmentStatus string

const (
	InstallmentPaid    InstallmentStatus = "paid"
	InstallmentPartial InstallmentStatus = "partial"
	InstallmentDue     InstallmentStatus = "due"
)

// Installment.Amount is the scheduled payment: the loan total split evenly
// over the term. Principal, Interest and Fee are what the period accrues under
// the loan's interest policy. They are a breakdown of the accrual, not of the
// payment: for compound and reducing-balance loans they do not add up to
// Amount in any given period, so callers must not derive one from the other.
type Installment struct {
	Number    int               `json:"number"`
	DueDate   *time.Time        `json:"due_date,omitempty"`
	Amount    domain.Money      `json:"amount"`
	Principal domain.Money      `json:"principal"`
	Interest  domain.Money      `json:"interest"`
	Fee       domain.Money      `json:"fee"`
	Paid      domain.Money      `json:"paid"`
	Status    InstallmentStatus `json:"status"`
}

type Amortization struct {
	LoanID         string                `json:"loan_id"`
	InterestPolicy domain.InterestPolicy `json:"interest_policy"`
	TotalAmount    domain.Money          `json:"total_amount"`
	AmountPaid     domain.Money          `json:"amount_paid"`
	Balance        domain.Money          `json:"balance"`
	Installments   []Installment         `json:"installments"`
}

// LoanAmortization lays the loan's total over its installments and applies
// the amount paid so far to them in order. Due dates exist once the loan has
// been disbursed.
func (s *Store) LoanAmortization(loanID string) (*Amortization, error) {
	return read(s, func(st *State) (*Amortization, error) {
		l := st.loan(loanID)
		if l == nil {
			return nil, fmt.Errorf("LoanAmortization: %w", domain.ErrUnknownLoan)
		}
		periods, err := interest.Schedule(l.InterestPolicy, l.PrincipalAmount, l.InterestRate, l.DurationMonths)
		if err != nil {
			return nil, fmt.Errorf("LoanAmortization: %w", err)
		}
		amounts, err := interest.Split(l.TotalAmount, l.DurationMonths)
		if err != nil {
			return nil, fmt.Errorf("LoanAmortization: %w", err)
		}
		fees, err := interest.Split(l.ProcessingFee, l.DurationMonths)
		if err != nil {
			return nil, fmt.Errorf("LoanAmortization: %w", err)
		}

		out := &Amortization{
			LoanID:         l.ID,
			InterestPolicy: l.InterestPolicy,
			TotalAmount:    l.TotalAmount,
			AmountPaid:     l.AmountPaid,
			Balance:        l.Balance,
			Installments:   make([]Installment, len(periods)),
		}
		unallocated := l.AmountPaid
		for i, p := range periods {
			inst := Installment{
				Number:    p.Number,
				Amount:    amounts[i],
				Principal: p.PrincipalRepaid,
				Interest:  p.Interest,
				Fee:       fees[i],
				Status:    InstallmentDue,
			}
			if l.DisbursementDate != nil {
				inst.DueDate = ptr(l.DisbursementDate.AddDate(0, p.Number, 0))
			}
			switch {
			case !unallocated.LessThan(inst.Amount):
				inst.Paid = inst.Amount
				inst.Status = InstallmentPaid
			case unallocated.IsPositive():
				inst.Paid = unallocated
				inst.Status = InstallmentPartial
			}
			unallocated, _ = unallocated.Sub(inst.Paid)
			out.Installments[i] = inst
		}
		return out, nil
	})
}

type ProjectSummary struct {
	ProjectID           string                 `json:"project_id"`
	Name                string                 `json:"name"`
	Status              domain.ProjectStatus   `json:"status"`
	TotalInvestment     domain.Money           `json:"total_investment"`
	TotalBorrowed       domain.Money           `json:"total_borrowed"`
	LinkedLoans         int                    `json:"linked_loans"`
	CurrentValue        domain.Money           `json:"current_value"`
	ExpectedIncome      domain.Money           `json:"expected_income"`
	ActualIncome        domain.Money           `json:"actual_income"`
	ROI                 decimal.Decimal        `json:"roi"`
	Members             []domain.ProjectMember `json:"members"`
	MilestonesCompleted int                    `json:"milestones_completed"`
	MilestonesTotal     int                    `json:"milestones_total"`
}

// ProjectSummary computes borrowing against the project from the loan ledger
// at read time: the principal of every loan that references it.
func (s *Store) ProjectSummary(projectID string) (*ProjectSummary, error) {
	return read(s, func(st *State) (*ProjectSummary, error) {
		p := st.project(projectID)
		if p == nil {
			return nil, fmt.Errorf("ProjectSummary: %w", domain.ErrUnknownProject)
		}
		sum := &ProjectSummary{
			ProjectID:       p.ID,
			Name:            p.Name,
			Status:          p.Status,
			TotalInvestment: p.TotalInvestment,
			CurrentValue:    p.CurrentValue,
			ExpectedIncome:  p.ExpectedIncome,
			ActualIncome:    p.ActualIncome,
			ROI:             p.ROI(),
			Members:         slices.Clone(p.Members),
			MilestonesTotal: len(p.Milestones),
		}
		var acc accumulator
		for _, l := range st.Loans {
			if l.ProjectID != nil && *l.ProjectID == p.ID {
				acc.add(&sum.TotalBorrowed, l.PrincipalAmount)
				sum.LinkedLoans++
			}
		}
		if acc.err != nil {
			return nil, fmt.Errorf("ProjectSummary: %w", acc.err)
		}
		for _, m := range p.Milestones {
			if m.Completed {
				sum.MilestonesCompleted++
			}
		}
		return sum, nil
	})
}

type Totals struct {
	Members                int                       `json:"members"`
	ActiveMembers          int                       `json:"active_members"`
	ConfirmedContributions domain.Money              `json:"confirmed_contributions"`
	PendingContributions   domain.Money              `json:"pending_contributions"`
	LoansDisbursed         domain.Money              `json:"loans_disbursed"`
	LoansOutstanding       domain.Money              `json:"loans_outstanding"`
	LoansRepaid            domain.Money              `json:"loans_repaid"`
	LoansByStatus          map[domain.LoanStatus]int `json:"loans_by_status"`
	FinesCollected         domain.Money              `json:"fines_collected"`
	FinesPending           domain.Money              `json:"fines_pending"`
	ProjectInvestment      domain.Money              `json:"project_investment"`
	ProjectValue           domain.Money              `json:"project_value"`
	TotalShares            int64                     `json:"total_shares"`
}

// Totals aggregates the whole ledger for dashboards. It fails with
// domain.ErrAmountOverflow when a group-wide sum passes domain.MaxMoney.
func (s *Store) Totals() (Totals, error) {
	return read(s, func(st *State) (Totals, error) {
		t := Totals{
			Members:       len(st.Members),
			LoansByStatus: make(map[domain.LoanStatus]int),
		}
		var acc accumulator
		for _, m := range st.Members {
			if m.Status == domain.MemberStatusActive {
				t.ActiveMembers++
			}
			acc.add(&t.LoansOutstanding, m.OutstandingLoans)
			t.TotalShares += m.Shares
		}
		for _, c := range st.Contributions {
			switch c.Status {
			case domain.ContributionStatusConfirmed:
				acc.add(&t.ConfirmedContributions, c.Amount)
			case domain.ContributionStatusPending:
				acc.add(&t.PendingContributions, c.Amount)
			}
		}
		for _, l := range st.Loans {
			t.LoansByStatus[l.Status]++
			if l.Status.WasDisbursed() {
				acc.add(&t.LoansDisbursed, l.PrincipalAmount)
			}
			acc.add(&t.LoansRepaid, l.AmountPaid)
		}
		for _, f := range st.Fines {
			switch f.Status {
			case domain.FineStatusPaid:
				acc.add(&t.FinesCollected, f.Amount)
			case domain.FineStatusPending:
				acc.add(&t.FinesPending, f.Amount)
			}
		}
		for _, p := range st.Projects {
			acc.add(&t.ProjectInvestment, p.TotalInvestment)
			acc.add(&t.ProjectValue, p.CurrentValue)
		}
		if acc.err != nil {
			return Totals{}, fmt.Errorf("Totals: %w", acc.err)
		}
		return t, nil
	})
}

// accumulator adds into running totals and keeps the first overflow.
type accumulator struct {
	err error
}

func (a *accumulator) add(dst *domain.Money, m domain.Money) {
	if a.err != nil {
		return
	}
	sum, err := dst.Add(m)
	if err != nil {
		a.err = err
		return
	}
	*dst = sum
}
