package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/interest"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
)

type GuarantorRequest struct {
	MemberID string
	Amount   domain.Money
}

type ApplyLoanRequest struct {
	MemberID       string
	LoanTypeID     string
	Principal      domain.Money
	DurationMonths int
	Purpose        string
	ProjectID      *string
	Guarantors     []GuarantorRequest
	ApplicationDay time.Time
}

// RepaymentRequest.ID makes the repayment idempotent: replaying an id with the
// same amount returns the loan untouched. An empty ID is assigned.
type RepaymentRequest struct {
	LoanID     string
	ID         string
	Amount     domain.Money
	Date       time.Time
	Method     domain.PaymentMethod
	Reference  *string
	RecordedBy string
}

// ApplyLoan prices the loan up front from its type's interest policy and
// files it as pending.
func (s *Store) ApplyLoan(ctx context.Context, req ApplyLoanRequest) (*domain.Loan, error) {
	l, err := commit(ctx, s, "ApplyLoan", func(st *State) (func() *domain.Loan, error) {
		borrower := st.member(req.MemberID)
		if borrower == nil {
			return nil, domain.ErrUnknownMember
		}
		if borrower.Status != domain.MemberStatusActive {
			return nil, fmt.Errorf("borrower is %s: %w", borrower.Status, domain.ErrMemberInactive)
		}
		lt := st.loanType(req.LoanTypeID)
		if lt == nil {
			return nil, domain.ErrUnknownLoanType
		}
		if !req.Principal.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		if req.DurationMonths <= 0 {
			return nil, fmt.Errorf("duration must be at least one month: %w", domain.ErrInvalidRequest)
		}
		if lt.MaxAmount.IsPositive() && req.Principal.GreaterThan(lt.MaxAmount) {
			return nil, fmt.Errorf("principal %s over %s: %w", req.Principal, lt.MaxAmount, domain.ErrExceedsMaxAmount)
		}
		if lt.MaxDurationMonths > 0 && req.DurationMonths > lt.MaxDurationMonths {
			return nil, fmt.Errorf("%d months over %d: %w", req.DurationMonths, lt.MaxDurationMonths, domain.ErrExceedsMaxDuration)
		}
		var projectID *string
		if req.ProjectID != nil && *req.ProjectID != "" {
			if st.project(*req.ProjectID) == nil {
				return nil, domain.ErrUnknownProject
			}
			projectID = ptr(*req.ProjectID)
		}

		guarantors, err := guarantorsFor(st, borrower.ID, req.Guarantors)
		if err != nil {
			return nil, err
		}
		required := lt.RequiredGuarantors()
		if len(guarantors) < required {
			return nil, fmt.Errorf("%d supplied, %d required: %w", len(guarantors), required, domain.ErrInsufficientGuarantors)
		}

		interestAmount, err := interest.Calculate(lt.InterestPolicy, req.Principal, lt.InterestRate, req.DurationMonths)
		if err != nil {
			return nil, err
		}
		fee, err := req.Principal.MulRate(lt.ProcessingFeeRate)
		if err != nil {
			return nil, err
		}
		total, err := domain.SumMoney(req.Principal, interestAmount, fee)
		if err != nil {
			return nil, err
		}
		monthly, final, err := interest.MonthlyPayment(total, req.DurationMonths)
		if err != nil {
			return nil, err
		}

		st.Loans = append(st.Loans, domain.Loan{
			ID:                 s.newID(),
			MemberID:           borrower.ID,
			MemberName:         borrower.Name,
			LoanTypeID:         lt.ID,
			ProjectID:          projectID,
			Purpose:            strings.TrimSpace(req.Purpose),
			InterestPolicy:     lt.InterestPolicy,
			InterestRate:       lt.InterestRate,
			PrincipalAmount:    req.Principal,
			InterestAmount:     interestAmount,
			ProcessingFee:      fee,
			TotalAmount:        total,
			Balance:            total,
			DurationMonths:     req.DurationMonths,
			MonthlyPayment:     monthly,
			FinalPayment:       final,
			RequiredGuarantors: required,
			Status:             domain.LoanStatusPending,
			ApplicationDate:    s.dateOrToday(req.ApplicationDay),
			Repayments:         []domain.LoanRepayment{},
			Guarantors:         guarantors,
		})
		idx := len(st.Loans) - 1
		return func() *domain.Loan { return ptr(cloneLoan(st.Loans[idx])) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("loan applied",
		"loan_id", l.ID,
		"member_id", l.MemberID,
		"loan_type_id", l.LoanTypeID,
		"principal", l.PrincipalAmount.Minor(),
		"interest", l.InterestAmount.Minor(),
		"total", l.TotalAmount.Minor(),
	)
	return l, nil
}

func guarantorsFor(st *State, borrowerID string, reqs []GuarantorRequest) ([]domain.LoanGuarantor, error) {
	out := make([]domain.LoanGuarantor, 0, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for _, g := range reqs {
		m := st.member(g.MemberID)
		switch {
		case m == nil:
			return nil, fmt.Errorf("guarantor %s: %w", g.MemberID, domain.ErrUnknownMember)
		case m.ID == borrowerID:
			return nil, fmt.Errorf("borrower cannot guarantee own loan: %w", domain.ErrInvalidGuarantor)
		case seen[m.ID]:
			return nil, fmt.Errorf("guarantor %s listed twice: %w", m.ID, domain.ErrInvalidGuarantor)
		case m.Status != domain.MemberStatusActive:
			return nil, fmt.Errorf("guarantor %s is %s: %w", m.ID, m.Status, domain.ErrInvalidGuarantor)
		case !g.Amount.IsPositive():
			return nil, fmt.Errorf("guarantor %s: %w", m.ID, domain.ErrInvalidAmount)
		}
		seen[m.ID] = true
		out = append(out, domain.LoanGuarantor{
			MemberID:   m.ID,
			MemberName: m.Name,
			Amount:     g.Amount,
			Status:     domain.GuarantorStatusPending,
		})
	}
	return out, nil
}

// RespondGuarantor records a guarantor's answer. Declines stay on the loan
// but do not count toward approval.
func (s *Store) RespondGuarantor(ctx context.Context, loanID, memberID string, accept bool) (*domain.Loan, error) {
	l, err := commit(ctx, s, "RespondGuarantor", func(st *State) (func() *domain.Loan, error) {
		l := st.loan(loanID)
		if l == nil {
			return nil, domain.ErrUnknownLoan
		}
		if l.Status != domain.LoanStatusPending {
			return nil, statusError(l.Status, "guarantor response")
		}
		var g *domain.LoanGuarantor
		for i := range l.Guarantors {
			if l.Guarantors[i].MemberID == memberID {
				g = &l.Guarantors[i]
				break
			}
		}
		if g == nil {
			return nil, domain.ErrUnknownGuarantor
		}
		if g.Status != domain.GuarantorStatusPending {
			return nil, fmt.Errorf("guarantor already %s: %w", g.Status, domain.ErrAlreadyFinalized)
		}
		now := s.now()
		g.Status = domain.GuarantorStatusDeclined
		if accept {
			g.Status = domain.GuarantorStatusAccepted
		}
		g.RespondedAt = &now
		return func() *domain.Loan { return ptr(cloneLoan(*l)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("guarantor responded",
		"loan_id", l.ID,
		"guarantor_id", memberID,
		"accepted", accept,
		"accepted_count", l.AcceptedGuarantors(),
	)
	return l, nil
}

func (s *Store) ApproveLoan(ctx context.Context, loanID, approvedBy string) (*domain.Loan, error) {
	l, err := commit(ctx, s, "ApproveLoan", func(st *State) (func() *domain.Loan, error) {
		l := st.loan(loanID)
		if l == nil {
			return nil, domain.ErrUnknownLoan
		}
		if err := transition(l, domain.LoanStatusApproved); err != nil {
			return nil, err
		}
		if accepted := l.AcceptedGuarantors(); accepted < l.RequiredGuarantors {
			return nil, fmt.Errorf("%d of %d guarantors accepted: %w", accepted, l.RequiredGuarantors, domain.ErrGuarantorsNotReady)
		}
		now := s.now()
		l.Status = domain.LoanStatusApproved
		l.ApprovedBy = ptr(approvedBy)
		l.ApprovedAt = &now
		return func() *domain.Loan { return ptr(cloneLoan(*l)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("loan approved", "loan_id", l.ID, "member_id", l.MemberID, "approved_by", approvedBy)
	return l, nil
}

func (s *Store) RejectLoan(ctx context.Context, loanID, reason string) (*domain.Loan, error) {
	l, err := commit(ctx, s, "RejectLoan", func(st *State) (func() *domain.Loan, error) {
		l := st.loan(loanID)
		if l == nil {
			return nil, domain.ErrUnknownLoan
		}
		reason = strings.TrimSpace(reason)
		if reason == "" {
			return nil, fmt.Errorf("rejection reason required: %w", domain.ErrInvalidRequest)
		}
		if err := transition(l, domain.LoanStatusRejected); err != nil {
			return nil, err
		}
		l.Status = domain.LoanStatusRejected
		l.RejectionReason = &reason
		return func() *domain.Loan { return ptr(cloneLoan(*l)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("loan rejected", "loan_id", l.ID, "member_id", l.MemberID)
	return l, nil
}

// DisburseLoan opens the loan for repayment. A zero date means today.
func (s *Store) DisburseLoan(ctx context.Context, loanID string, date time.Time) (*domain.Loan, error) {
	l, err := commit(ctx, s, "DisburseLoan", func(st *State) (func() *domain.Loan, error) {
		l := st.loan(loanID)
		if l == nil {
			return nil, domain.ErrUnknownLoan
		}
		if err := transition(l, domain.LoanStatusDisbursed); err != nil {
			return nil, err
		}
		disbursed := s.dateOrToday(date)
		due := disbursed.AddDate(0, l.DurationMonths, 0)
		l.Status = domain.LoanStatusDisbursed
		l.DisbursementDate = &disbursed
		l.DueDate = &due
		return func() *domain.Loan { return ptr(cloneLoan(*l)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("loan disbursed",
		"loan_id", l.ID,
		"member_id", l.MemberID,
		"principal", l.PrincipalAmount.Minor(),
		"due_date", l.DueDate.Format(time.DateOnly),
	)
	return l, nil
}

// RecordRepayment applies money to a disbursed loan. The repayment that
// brings the balance to zero also completes the loan. Amounts over the
// balance are rejected, never capped.
func (s *Store) RecordRepayment(ctx context.Context, req RepaymentRequest) (*domain.Loan, error) {
	var replayed bool
	l, err := commit(ctx, s, "RecordRepayment", func(st *State) (func() *domain.Loan, error) {
		l := st.loan(req.LoanID)
		if l == nil {
			return nil, domain.ErrUnknownLoan
		}
		get := func() *domain.Loan { return ptr(cloneLoan(*l)) }

		if req.ID != "" {
			if prior, ok := l.FindRepayment(req.ID); ok {
				if prior.Amount != req.Amount {
					return nil, fmt.Errorf("repayment %s already recorded for %s: %w", req.ID, prior.Amount, domain.ErrDuplicateRepayment)
				}
				replayed = true
				return get, errUnchanged
			}
		}
		if !req.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		if !l.Status.AcceptsRepayments() {
			return nil, statusError(l.Status, "repayment")
		}
		if req.Amount.GreaterThan(l.Balance) {
			return nil, fmt.Errorf("amount %s exceeds balance %s: %w", req.Amount, l.Balance, domain.ErrOverpaymentRejected)
		}
		method := req.Method
		if method == "" {
			method = domain.PaymentMethodCash
		}
		if !method.IsValid() {
			return nil, fmt.Errorf("payment method %q: %w", method, domain.ErrInvalidRequest)
		}

		id := req.ID
		if id == "" {
			id = s.newID()
		}
		l.Repayments = append(l.Repayments, domain.LoanRepayment{
			ID:         id,
			Amount:     req.Amount,
			Date:       s.dateOrToday(req.Date),
			Method:     method,
			Reference:  trimmed(req.Reference),
			RecordedBy: req.RecordedBy,
			CreatedAt:  s.now(),
		})
		if err := l.Reconcile(); err != nil {
			return nil, err
		}

		switch {
		case l.Balance.IsZero():
			now := s.now()
			l.Status = domain.LoanStatusCompleted
			l.CompletedAt = &now
		case l.Status == domain.LoanStatusDisbursed:
			l.Status = domain.LoanStatusRepaying
		}
		return get, nil
	})
	if err != nil {
		return nil, err
	}

	log := logging.FromContext(ctx)
	if replayed {
		log.Info("repayment replayed, nothing applied", "loan_id", l.ID, "repayment_id", req.ID)
		return l, nil
	}
	log.Info("repayment recorded",
		"loan_id", l.ID,
		"member_id", l.MemberID,
		"amount", req.Amount.Minor(),
		"balance", l.Balance.Minor(),
		"status", l.Status,
	)
	return l, nil
}

// MarkDefaulted is an explicit decision by the caller; nothing defaults a
// loan on a timer.
func (s *Store) MarkDefaulted(ctx context.Context, loanID string) (*domain.Loan, error) {
	l, err := commit(ctx, s, "MarkDefaulted", func(st *State) (func() *domain.Loan, error) {
		l := st.loan(loanID)
		if l == nil {
			return nil, domain.ErrUnknownLoan
		}
		if err := transition(l, domain.LoanStatusDefaulted); err != nil {
			return nil, err
		}
		now := s.now()
		l.Status = domain.LoanStatusDefaulted
		l.DefaultedAt = &now
		return func() *domain.Loan { return ptr(cloneLoan(*l)) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Warn("loan defaulted", "loan_id", l.ID, "member_id", l.MemberID, "balance", l.Balance.Minor())
	return l, nil
}

func (s *Store) Loan(loanID string) (*domain.Loan, error) {
	return read(s, func(st *State) (*domain.Loan, error) {
		l := st.loan(loanID)
		if l == nil {
			return nil, fmt.Errorf("Loan: %w", domain.ErrUnknownLoan)
		}
		return ptr(cloneLoan(*l)), nil
	})
}

// Loans lists loans, optionally for one borrower.
func (s *Store) Loans(memberID string) []domain.Loan {
	out, _ := read(s, func(st *State) ([]domain.Loan, error) {
		var out []domain.Loan
		for _, l := range st.Loans {
			if memberID == "" || l.MemberID == memberID {
				out = append(out, cloneLoan(l))
			}
		}
		return out, nil
	})
	return out
}

func transition(l *domain.Loan, next domain.LoanStatus) error {
	if !l.Status.CanTransitionTo(next) {
		return statusError(l.Status, string(next))
	}
	return nil
}

// statusError distinguishes a finished loan from one that is not there yet.
func statusError(status domain.LoanStatus, action string) error {
	if status.IsTerminal() {
		return fmt.Errorf("%s on %s loan: %w", action, status, domain.ErrAlreadyFinalized)
	}
	return fmt.Errorf("%s on %s loan: %w", action, status, domain.ErrInvalidStateTransition)
}
