package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/interest"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
	"github.com/josh-kwaku/chama-ledger/internal/testutil"
)

// simpleTenPercent adds a no-fee, no-guarantor simple interest type at 10%.
func simpleTenPercent(t *testing.T, s *ledger.Store) *domain.LoanType {
	t.Helper()
	lt, err := s.AddLoanType(context.Background(), domain.LoanType{
		Name:              "Plain simple",
		InterestRate:      decimal.NewFromInt(10),
		InterestPolicy:    domain.InterestSimple,
		MaxAmount:         domain.MustMoney(10_000_000),
		MaxDurationMonths: 24,
	})
	require.NoError(t, err)
	return lt
}

func disbursedSimpleLoan(t *testing.T, s *ledger.Store, memberID string) *domain.Loan {
	t.Helper()
	ctx := context.Background()
	lt := simpleTenPercent(t, s)

	l, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
		MemberID:       memberID,
		LoanTypeID:     lt.ID,
		Principal:      domain.MustMoney(100_000),
		DurationMonths: 12,
		Purpose:        "stock",
	})
	require.NoError(t, err)
	_, err = s.ApproveLoan(ctx, l.ID, "treasurer")
	require.NoError(t, err)
	l, err = s.DisburseLoan(ctx, l.ID, time.Time{})
	require.NoError(t, err)
	return l
}

func TestSimpleInterestLoan_PaidOffInOneRepayment(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Wanjiku")

	l := disbursedSimpleLoan(t, s, m.ID)
	assert.Equal(t, int64(10_000), l.InterestAmount.Minor())
	assert.Equal(t, int64(110_000), l.TotalAmount.Minor())
	assert.Equal(t, int64(9_167), l.MonthlyPayment.Minor())
	assert.Equal(t, int64(9_163), l.FinalPayment.Minor())
	assert.Equal(t, domain.LoanStatusDisbursed, l.Status)
	require.NotNil(t, l.DueDate)
	assert.Equal(t, time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC), *l.DueDate)

	member, err := s.Member(m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(110_000), member.OutstandingLoans.Minor())

	l, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{
		LoanID: l.ID, ID: "rep-1", Amount: domain.MustMoney(110_000), RecordedBy: "treasurer",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusCompleted, l.Status)
	assert.True(t, l.Balance.IsZero())
	assert.Equal(t, int64(110_000), l.AmountPaid.Minor())
	assert.NotNil(t, l.CompletedAt)

	member, err = s.Member(m.ID)
	require.NoError(t, err)
	assert.True(t, member.OutstandingLoans.IsZero())
	assert.Equal(t, int64(100_000), member.TotalLoans.Minor())
}

func TestRecordRepayment_BalanceTracksHistory(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Otieno")
	l := disbursedSimpleLoan(t, s, m.ID)

	for _, amount := range []int64{9_167, 9_167, 50_000} {
		var err error
		l, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(amount)})
		require.NoError(t, err)
		repaid, err := l.RepaymentTotal()
		require.NoError(t, err)
		assert.Equal(t, l.TotalAmount.Minor()-repaid.Minor(), l.Balance.Minor())
		assert.Equal(t, repaid, l.AmountPaid)
	}
	assert.Equal(t, domain.LoanStatusRepaying, l.Status)
	assert.Len(t, l.Repayments, 3)
	assert.Equal(t, int64(110_000-68_334), l.Balance.Minor())
}

func TestRecordRepayment_OverpaymentRejected(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Achieng")
	l := disbursedSimpleLoan(t, s, m.ID)

	_, err := s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(110_001)})
	require.ErrorIs(t, err, domain.ErrOverpaymentRejected)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	after, err := s.Loan(l.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Repayments)
	assert.True(t, after.AmountPaid.IsZero())
	assert.Equal(t, domain.LoanStatusDisbursed, after.Status)

	// The exact remaining balance is accepted.
	after, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: after.Balance})
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusCompleted, after.Status)
}

func TestRecordRepayment_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Kamau")
	l := disbursedSimpleLoan(t, s, m.ID)

	req := ledger.RepaymentRequest{LoanID: l.ID, ID: "mpesa-QK7", Amount: domain.MustMoney(20_000)}
	first, err := s.RecordRepayment(ctx, req)
	require.NoError(t, err)
	version := s.Version()

	replay, err := s.RecordRepayment(ctx, req)
	require.NoError(t, err)
	assert.Len(t, replay.Repayments, 1)
	assert.Equal(t, first.AmountPaid, replay.AmountPaid)
	assert.Equal(t, version, s.Version())

	req.Amount = domain.MustMoney(25_000)
	_, err = s.RecordRepayment(ctx, req)
	require.ErrorIs(t, err, domain.ErrDuplicateRepayment)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	after, err := s.Loan(l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(20_000), after.AmountPaid.Minor())
}

func TestRecordRepayment_StatusErrors(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Njeri")
	lt := simpleTenPercent(t, s)

	pending, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
		MemberID: m.ID, LoanTypeID: lt.ID, Principal: domain.MustMoney(50_000), DurationMonths: 6,
	})
	require.NoError(t, err)

	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: pending.ID, Amount: domain.MustMoney(100)})
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)

	done := disbursedSimpleLoan(t, s, m.ID)
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: done.ID, Amount: done.Balance})
	require.NoError(t, err)
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: done.ID, Amount: domain.MustMoney(1)})
	require.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: "missing", Amount: domain.MustMoney(1)})
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: done.ID, Amount: domain.Money{}})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestApplyLoan_Validation(t *testing.T) {
	s := testutil.NewLedger(t)
	borrower := testutil.SeedMember(t, s, "Mutua")
	guarantor := testutil.SeedMember(t, s, "Chebet")

	tests := []struct {
		name    string
		req     ledger.ApplyLoanRequest
		wantErr error
	}{
		{
			name:    "unknown member",
			req:     ledger.ApplyLoanRequest{MemberID: "ghost", LoanTypeID: "lt-emergency", Principal: domain.MustMoney(1_000), DurationMonths: 3},
			wantErr: domain.ErrUnknownMember,
		},
		{
			name:    "unknown loan type",
			req:     ledger.ApplyLoanRequest{MemberID: borrower.ID, LoanTypeID: "lt-nope", Principal: domain.MustMoney(1_000), DurationMonths: 3},
			wantErr: domain.ErrUnknownLoanType,
		},
		{
			name:    "zero principal",
			req:     ledger.ApplyLoanRequest{MemberID: borrower.ID, LoanTypeID: "lt-emergency", DurationMonths: 3},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "over max amount",
			req:     ledger.ApplyLoanRequest{MemberID: borrower.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(5_000_001), DurationMonths: 3},
			wantErr: domain.ErrExceedsMaxAmount,
		},
		{
			name:    "over max duration",
			req:     ledger.ApplyLoanRequest{MemberID: borrower.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(1_000), DurationMonths: 7},
			wantErr: domain.ErrExceedsMaxDuration,
		},
		{
			name:    "zero duration",
			req:     ledger.ApplyLoanRequest{MemberID: borrower.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(1_000)},
			wantErr: domain.ErrInvalidRequest,
		},
		{
			name:    "too few guarantors",
			req:     ledger.ApplyLoanRequest{MemberID: borrower.ID, LoanTypeID: "lt-normal", Principal: domain.MustMoney(1_000), DurationMonths: 3},
			wantErr: domain.ErrInsufficientGuarantors,
		},
		{
			name: "borrower as own guarantor",
			req: ledger.ApplyLoanRequest{
				MemberID: borrower.ID, LoanTypeID: "lt-normal", Principal: domain.MustMoney(1_000), DurationMonths: 3,
				Guarantors: []ledger.GuarantorRequest{{MemberID: borrower.ID, Amount: domain.MustMoney(1_000)}},
			},
			wantErr: domain.ErrInvalidGuarantor,
		},
		{
			name: "duplicate guarantor",
			req: ledger.ApplyLoanRequest{
				MemberID: borrower.ID, LoanTypeID: "lt-development", Principal: domain.MustMoney(1_000), DurationMonths: 3,
				Guarantors: []ledger.GuarantorRequest{
					{MemberID: guarantor.ID, Amount: domain.MustMoney(500)},
					{MemberID: guarantor.ID, Amount: domain.MustMoney(500)},
				},
			},
			wantErr: domain.ErrInvalidGuarantor,
		},
		{
			name:    "unknown project",
			req:     ledger.ApplyLoanRequest{MemberID: borrower.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(1_000), DurationMonths: 3, ProjectID: ptr("p-x")},
			wantErr: domain.ErrUnknownProject,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.ApplyLoan(context.Background(), tt.req)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Empty(t, s.Loans(""))
}

func TestApplyLoan_TotalOverflowRejected(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	borrower := testutil.SeedMember(t, s, "Ndirangu")
	lt, err := s.AddLoanType(ctx, domain.LoanType{
		Name:           "Uncapped",
		InterestRate:   decimal.NewFromInt(50),
		InterestPolicy: domain.InterestSimple,
	})
	require.NoError(t, err)

	_, err = s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
		MemberID: borrower.ID, LoanTypeID: lt.ID, Principal: domain.MustMoney(domain.MaxMoney), DurationMonths: 12,
	})
	require.ErrorIs(t, err, domain.ErrAmountOverflow)
	assert.Empty(t, s.Loans(""))

	l, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
		MemberID: borrower.ID, LoanTypeID: lt.ID, Principal: domain.MustMoney(domain.MaxMoney / 2), DurationMonths: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MaxMoney/2+domain.MaxMoney/4, l.TotalAmount.Minor())
}

func TestApplyLoan_PricesEveryPolicy(t *testing.T) {
	s := testutil.NewLedger(t)
	borrower := testutil.SeedMember(t, s, "Wafula")
	g1 := testutil.SeedMember(t, s, "Akinyi")
	g2 := testutil.SeedMember(t, s, "Kiprop")
	guarantors := []ledger.GuarantorRequest{
		{MemberID: g1.ID, Amount: domain.MustMoney(500_000)},
		{MemberID: g2.ID, Amount: domain.MustMoney(500_000)},
	}

	for _, typeID := range []string{"lt-normal", "lt-emergency", "lt-development"} {
		t.Run(typeID, func(t *testing.T) {
			l, err := s.ApplyLoan(context.Background(), ledger.ApplyLoanRequest{
				MemberID: borrower.ID, LoanTypeID: typeID, Principal: domain.MustMoney(1_000_000), DurationMonths: 6,
				Guarantors: guarantors,
			})
			require.NoError(t, err)

			want, err := interest.Calculate(l.InterestPolicy, l.PrincipalAmount, l.InterestRate, l.DurationMonths)
			require.NoError(t, err)
			assert.Equal(t, want, l.InterestAmount)
			total, err := domain.SumMoney(l.PrincipalAmount, l.InterestAmount, l.ProcessingFee)
			require.NoError(t, err)
			assert.Equal(t, total, l.TotalAmount)
			assert.Equal(t, l.TotalAmount, l.Balance)
			assert.Equal(t, domain.LoanStatusPending, l.Status)
			assert.Equal(t, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), l.ApplicationDate)
		})
	}

	l, err := s.ApplyLoan(context.Background(), ledger.ApplyLoanRequest{
		MemberID: borrower.ID, LoanTypeID: "lt-development", Principal: domain.MustMoney(1_000_000), DurationMonths: 6,
		Guarantors: guarantors,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(15_000), l.ProcessingFee.Minor(), "1.5% of principal")
}

func TestApproveLoan_GuarantorGating(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	borrower := testutil.SeedMember(t, s, "Mwangi")
	g1 := testutil.SeedMember(t, s, "Atieno")
	g2 := testutil.SeedMember(t, s, "Korir")
	outsider := testutil.SeedMember(t, s, "Nekesa")

	l, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
		MemberID: borrower.ID, LoanTypeID: "lt-development", Principal: domain.MustMoney(2_000_000), DurationMonths: 12,
		Guarantors: []ledger.GuarantorRequest{
			{MemberID: g1.ID, Amount: domain.MustMoney(1_000_000)},
			{MemberID: g2.ID, Amount: domain.MustMoney(1_000_000)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, l.RequiredGuarantors)

	_, err = s.ApproveLoan(ctx, l.ID, "chair")
	require.ErrorIs(t, err, domain.ErrGuarantorsNotReady)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	_, err = s.RespondGuarantor(ctx, l.ID, outsider.ID, true)
	require.ErrorIs(t, err, domain.ErrUnknownGuarantor)

	_, err = s.RespondGuarantor(ctx, l.ID, g1.ID, true)
	require.NoError(t, err)
	_, err = s.RespondGuarantor(ctx, l.ID, g2.ID, false)
	require.NoError(t, err)

	_, err = s.RespondGuarantor(ctx, l.ID, g2.ID, true)
	require.ErrorIs(t, err, domain.ErrAlreadyFinalized)

	_, err = s.ApproveLoan(ctx, l.ID, "chair")
	require.ErrorIs(t, err, domain.ErrGuarantorsNotReady)

	after, err := s.Loan(l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusPending, after.Status)
	assert.Equal(t, 1, after.AcceptedGuarantors())
	assert.Len(t, after.Guarantors, 2, "declined guarantors stay on record")
}

func TestApproveLoan_SucceedsWhenGuarantorsAccept(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	borrower := testutil.SeedMember(t, s, "Ouma")
	g1 := testutil.SeedMember(t, s, "Jepkosgei")

	l, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
		MemberID: borrower.ID, LoanTypeID: "lt-normal", Principal: domain.MustMoney(1_000_000), DurationMonths: 12,
		Guarantors: []ledger.GuarantorRequest{{MemberID: g1.ID, Amount: domain.MustMoney(1_000_000)}},
	})
	require.NoError(t, err)

	_, err = s.RespondGuarantor(ctx, l.ID, g1.ID, true)
	require.NoError(t, err)

	l, err = s.ApproveLoan(ctx, l.ID, "chair")
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusApproved, l.Status)
	require.NotNil(t, l.ApprovedBy)
	assert.Equal(t, "chair", *l.ApprovedBy)

	_, err = s.RespondGuarantor(ctx, l.ID, g1.ID, false)
	require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
}

func TestLoanTransitions(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Barasa")

	apply := func() *domain.Loan {
		l, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
			MemberID: m.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(10_000), DurationMonths: 2,
		})
		require.NoError(t, err)
		return l
	}

	t.Run("disburse before approval", func(t *testing.T) {
		_, err := s.DisburseLoan(ctx, apply().ID, time.Time{})
		require.ErrorIs(t, err, domain.ErrInvalidStateTransition)
	})

	t.Run("reject needs a reason", func(t *testing.T) {
		_, err := s.RejectLoan(ctx, apply().ID, "  ")
		require.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("rejected is final", func(t *testing.T) {
		l := apply()
		l, err := s.RejectLoan(ctx, l.ID, "insufficient savings")
		require.NoError(t, err)
		assert.Equal(t, domain.LoanStatusRejected, l.Status)

		_, err = s.ApproveLoan(ctx, l.ID, "chair")
		require.ErrorIs(t, err, domain.ErrAlreadyFinalized)
	})

	t.Run("default only after disbursement", func(t *testing.T) {
		l := apply()
		_, err := s.MarkDefaulted(ctx, l.ID)
		require.ErrorIs(t, err, domain.ErrInvalidStateTransition)

		l = testutil.SeedDisbursedLoan(t, s, m.ID, 10_000, 2)
		l, err = s.MarkDefaulted(ctx, l.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.LoanStatusDefaulted, l.Status)

		member, err := s.Member(m.ID)
		require.NoError(t, err)
		assert.Equal(t, l.Balance, member.OutstandingLoans, "defaulted balances stay outstanding")
	})

	t.Run("disbursement date sets due date", func(t *testing.T) {
		l := apply()
		_, err := s.ApproveLoan(ctx, l.ID, "chair")
		require.NoError(t, err)
		l, err = s.DisburseLoan(ctx, l.ID, time.Date(2025, time.January, 31, 15, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.January, 31, 0, 0, 0, 0, time.UTC), *l.DisbursementDate)
		assert.Equal(t, time.Date(2025, time.March, 31, 0, 0, 0, 0, time.UTC), *l.DueDate)
	})
}

func ptr[T any](v T) *T { return &v }
