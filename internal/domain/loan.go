package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type InterestPolicy string

const (
	InterestSimple          InterestPolicy = "simple"
	InterestCompound        InterestPolicy = "compound"
	InterestReducingBalance InterestPolicy = "reducing_balance"
)

func (p InterestPolicy) IsValid() bool {
	switch p {
	case InterestSimple, InterestCompound, InterestReducingBalance:
		return true
	}
	return false
}

// LoanType rates are annual percentages: 12 means 12% per year.
type LoanType struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	InterestRate       decimal.Decimal `json:"interest_rate"`
	InterestPolicy     InterestPolicy  `json:"interest_policy"`
	MaxAmount          Money           `json:"max_amount"`
	MaxDurationMonths  int             `json:"max_duration_months"`
	ProcessingFeeRate  decimal.Decimal `json:"processing_fee_rate"`
	RequiresGuarantors bool            `json:"requires_guarantors"`
	MinGuarantors      int             `json:"min_guarantors"`
}

// RequiredGuarantors is zero when the type does not gate on guarantors.
func (t LoanType) RequiredGuarantors() int {
	if !t.RequiresGuarantors {
		return 0
	}
	return t.MinGuarantors
}

type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "pending"
	LoanStatusApproved  LoanStatus = "approved"
	LoanStatusRejected  LoanStatus = "rejected"
	LoanStatusDisbursed LoanStatus = "disbursed"
	LoanStatusRepaying  LoanStatus = "repaying"
	LoanStatusCompleted LoanStatus = "completed"
	LoanStatusDefaulted LoanStatus = "defaulted"
)

var loanTransitions = map[LoanStatus][]LoanStatus{
	LoanStatusPending:   {LoanStatusApproved, LoanStatusRejected},
	LoanStatusApproved:  {LoanStatusDisbursed},
	LoanStatusDisbursed: {LoanStatusRepaying, LoanStatusCompleted, LoanStatusDefaulted},
	LoanStatusRepaying:  {LoanStatusCompleted, LoanStatusDefaulted},
}

func (s LoanStatus) CanTransitionTo(next LoanStatus) bool {
	return allowed(loanTransitions[s], next)
}

func (s LoanStatus) IsTerminal() bool {
	return len(loanTransitions[s]) == 0
}

// AcceptsRepayments reports whether money may be applied to the loan.
func (s LoanStatus) AcceptsRepayments() bool {
	return s == LoanStatusDisbursed || s == LoanStatusRepaying
}

// WasDisbursed is true for every status reachable only through disbursement.
func (s LoanStatus) WasDisbursed() bool {
	switch s {
	case LoanStatusDisbursed, LoanStatusRepaying, LoanStatusCompleted, LoanStatusDefaulted:
		return true
	}
	return false
}

type GuarantorStatus string

const (
	GuarantorStatusPending  GuarantorStatus = "pending"
	GuarantorStatusAccepted GuarantorStatus = "accepted"
	GuarantorStatusDeclined GuarantorStatus = "declined"
)

type LoanGuarantor struct {
	MemberID    string          `json:"member_id"`
	MemberName  string          `json:"member_name"`
	Amount      Money           `json:"amount"`
	Status      GuarantorStatus `json:"status"`
	RespondedAt *time.Time      `json:"responded_at,omitempty"`
}

// LoanRepayment is append-only.
type LoanRepayment struct {
	ID         string        `json:"id"`
	Amount     Money         `json:"amount"`
	Date       time.Time     `json:"date"`
	Method     PaymentMethod `json:"method"`
	Reference  *string       `json:"reference,omitempty"`
	RecordedBy string        `json:"recorded_by"`
	CreatedAt  time.Time     `json:"created_at"`
}

type Loan struct {
	ID         string  `json:"id"`
	MemberID   string  `json:"member_id"`
	MemberName string  `json:"member_name"`
	LoanTypeID string  `json:"loan_type_id"`
	ProjectID  *string `json:"project_id,omitempty"`
	Purpose    string  `json:"purpose"`

	InterestPolicy  InterestPolicy  `json:"interest_policy"`
	InterestRate    decimal.Decimal `json:"interest_rate"`
	PrincipalAmount Money           `json:"principal_amount"`
	InterestAmount  Money           `json:"interest_amount"`
	ProcessingFee   Money           `json:"processing_fee"`
	TotalAmount     Money           `json:"total_amount"`
	AmountPaid      Money           `json:"amount_paid"`
	Balance         Money           `json:"balance"`
	DurationMonths  int             `json:"duration_months"`
	MonthlyPayment  Money           `json:"monthly_payment"`
	FinalPayment    Money           `json:"final_payment"`

	// RequiredGuarantors is fixed from the loan type at application time.
	RequiredGuarantors int `json:"required_guarantors"`

	Status           LoanStatus `json:"status"`
	ApplicationDate  time.Time  `json:"application_date"`
	ApprovedBy       *string    `json:"approved_by,omitempty"`
	ApprovedAt       *time.Time `json:"approved_at,omitempty"`
	RejectionReason  *string    `json:"rejection_reason,omitempty"`
	DisbursementDate *time.Time `json:"disbursement_date,omitempty"`
	DueDate          *time.Time `json:"due_date,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	DefaultedAt      *time.Time `json:"defaulted_at,omitempty"`

	Repayments []LoanRepayment `json:"repayments"`
	Guarantors []LoanGuarantor `json:"guarantors"`
}

func (l *Loan) AcceptedGuarantors() int {
	n := 0
	for _, g := range l.Guarantors {
		if g.Status == GuarantorStatusAccepted {
			n++
		}
	}
	return n
}

func (l *Loan) RepaymentTotal() (Money, error) {
	var total Money
	for _, r := range l.Repayments {
		var err error
		if total, err = total.Add(r.Amount); err != nil {
			return Money{}, fmt.Errorf("loan %s repayments: %w", l.ID, err)
		}
	}
	return total, nil
}

// Reconcile rederives AmountPaid and Balance from the repayment history.
func (l *Loan) Reconcile() error {
	paid, err := l.RepaymentTotal()
	if err != nil {
		return err
	}
	balance, err := l.TotalAmount.Sub(paid)
	if err != nil {
		return fmt.Errorf("loan %s: repayments %s exceed total %s: %w", l.ID, paid, l.TotalAmount, ErrInvariantViolation)
	}
	l.AmountPaid = paid
	l.Balance = balance
	return nil
}

// CheckInvariants verifies the stored fields agree with the repayment history.
func (l *Loan) CheckInvariants() error {
	want, err := SumMoney(l.PrincipalAmount, l.InterestAmount, l.ProcessingFee)
	if err != nil {
		return fmt.Errorf("loan %s: %v: %w", l.ID, err, ErrInvariantViolation)
	}
	if l.TotalAmount != want {
		return fmt.Errorf("loan %s: total %s != principal+interest+fee %s: %w", l.ID, l.TotalAmount, want, ErrInvariantViolation)
	}
	paid, err := l.RepaymentTotal()
	if err != nil {
		return fmt.Errorf("%v: %w", err, ErrInvariantViolation)
	}
	if l.AmountPaid != paid {
		return fmt.Errorf("loan %s: amount paid %s != repayments %s: %w", l.ID, l.AmountPaid, paid, ErrInvariantViolation)
	}
	balance, err := l.TotalAmount.Sub(paid)
	if err != nil {
		return fmt.Errorf("loan %s: repayments exceed total: %w", l.ID, ErrInvariantViolation)
	}
	if l.Balance != balance {
		return fmt.Errorf("loan %s: balance %s != total-paid %s: %w", l.ID, l.Balance, balance, ErrInvariantViolation)
	}
	if l.Status == LoanStatusCompleted && !l.Balance.IsZero() {
		return fmt.Errorf("loan %s: completed with balance %s: %w", l.ID, l.Balance, ErrInvariantViolation)
	}
	if len(l.Repayments) > 0 && !l.Status.WasDisbursed() {
		return fmt.Errorf("loan %s: repayments on %s loan: %w", l.ID, l.Status, ErrInvariantViolation)
	}
	return nil
}

func (l *Loan) FindRepayment(id string) (LoanRepayment, bool) {
	for _, r := range l.Repayments {
		if r.ID == id {
			return r, true
		}
	}
	return LoanRepayment{}, false
}
