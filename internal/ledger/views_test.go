package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
	"github.com/josh-kwaku/chama-ledger/internal/testutil"
)

func TestMemberStatement(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Jackline")

	c, err := s.RecordContribution(ctx, ledger.RecordContributionRequest{
		MemberID: m.ID, TypeID: "ct-monthly", Amount: domain.MustMoney(500_000),
		Date: time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	_, err = s.ConfirmContribution(ctx, c.ID, "treasurer")
	require.NoError(t, err)

	_, err = s.RecordContribution(ctx, ledger.RecordContributionRequest{MemberID: m.ID, TypeID: "ct-monthly", Amount: domain.MustMoney(500_000)})
	require.NoError(t, err)

	l := testutil.SeedDisbursedLoan(t, s, m.ID, 100_000, 3)
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(50_000)})
	require.NoError(t, err)

	f, err := s.RecordFine(ctx, ledger.RecordFineRequest{MemberID: m.ID, TypeID: "ft-absence"})
	require.NoError(t, err)
	_, err = s.ResolveFine(ctx, ledger.ResolveFineRequest{FineID: f.ID, Resolution: domain.FineStatusPaid, Method: ptr(domain.PaymentMethodCash)})
	require.NoError(t, err)

	stmt, err := s.MemberStatement(m.ID)
	require.NoError(t, err)

	kinds := make([]ledger.EntryKind, len(stmt.Entries))
	for i, e := range stmt.Entries {
		kinds[i] = e.Kind
	}
	assert.Equal(t, []ledger.EntryKind{
		ledger.EntryContribution,
		ledger.EntryLoan,
		ledger.EntryRepayment,
		ledger.EntryFine,
		ledger.EntryFinePayment,
	}, kinds, "pending contributions are left out")

	total := l.TotalAmount.Minor()
	assert.Equal(t, int64(500_000), stmt.Entries[0].Balance)
	assert.Equal(t, 500_000-total, stmt.Entries[1].Balance)
	assert.Equal(t, 550_000-total, stmt.Entries[2].Balance)
	assert.Equal(t, 540_000-total, stmt.Entries[3].Balance)
	assert.Equal(t, 550_000-total, stmt.Balance)
	assert.Equal(t, stmt.TotalCredits.Minor()-stmt.TotalDebits.Minor(), stmt.Balance)

	_, err = s.MemberStatement("nobody")
	require.ErrorIs(t, err, domain.ErrUnknownMember)
}

func TestLoanAmortization(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Kipchoge")
	l := testutil.SeedDisbursedLoan(t, s, m.ID, 100_000, 3)

	am, err := s.LoanAmortization(l.ID)
	require.NoError(t, err)
	require.Len(t, am.Installments, 3)

	var amounts, accrued domain.Money
	for i, inst := range am.Installments {
		amounts, err = amounts.Add(inst.Amount)
		require.NoError(t, err)
		accrued, err = domain.SumMoney(accrued, inst.Principal, inst.Interest, inst.Fee)
		require.NoError(t, err)
		assert.Equal(t, ledger.InstallmentDue, inst.Status)
		require.NotNil(t, inst.DueDate)
		assert.Equal(t, time.Date(2025, time.Month(3+i+1), 3, 0, 0, 0, 0, time.UTC), *inst.DueDate)
	}
	assert.Equal(t, l.TotalAmount, amounts)
	assert.Equal(t, l.TotalAmount, accrued)
	assert.Equal(t, l.MonthlyPayment, am.Installments[0].Amount)
	assert.Equal(t, l.FinalPayment, am.Installments[2].Amount)

	// Compound accrual grows each month while the payment stays level, so an
	// installment's breakdown is not its payment.
	wantInterest := []int64{833, 840, 847}
	wantBreakdown := []int64{34_166, 34_173, 34_181}
	for i, inst := range am.Installments {
		assert.Equal(t, wantInterest[i], inst.Interest.Minor())
		breakdown := inst.Principal.Minor() + inst.Interest.Minor() + inst.Fee.Minor()
		assert.Equal(t, wantBreakdown[i], breakdown, "installment %d", inst.Number)
	}
	assert.Equal(t, []int64{34_173, 34_173, 34_174}, []int64{
		am.Installments[0].Amount.Minor(), am.Installments[1].Amount.Minor(), am.Installments[2].Amount.Minor(),
	})

	first := am.Installments[0].Amount.Minor()
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(first + 1_000)})
	require.NoError(t, err)

	am, err = s.LoanAmortization(l.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.InstallmentPaid, am.Installments[0].Status)
	assert.Equal(t, ledger.InstallmentPartial, am.Installments[1].Status)
	assert.Equal(t, int64(1_000), am.Installments[1].Paid.Minor())
	assert.Equal(t, ledger.InstallmentDue, am.Installments[2].Status)
}

func TestLoanAmortization_PendingLoanHasNoDueDates(t *testing.T) {
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Lilian")
	l, err := s.ApplyLoan(context.Background(), ledger.ApplyLoanRequest{
		MemberID: m.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(30_000), DurationMonths: 3,
	})
	require.NoError(t, err)

	am, err := s.LoanAmortization(l.ID)
	require.NoError(t, err)
	for _, inst := range am.Installments {
		assert.Nil(t, inst.DueDate)
	}
}

func TestProjectSummary_BorrowingComputedOnRead(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Mercy")
	p, err := s.AddProject(ctx, ledger.AddProjectRequest{Name: "Dairy"})
	require.NoError(t, err)

	sum, err := s.ProjectSummary(p.ID)
	require.NoError(t, err)
	assert.True(t, sum.TotalBorrowed.IsZero())
	assert.True(t, sum.ROI.IsZero())

	for _, principal := range []int64{200_000, 300_000} {
		_, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
			MemberID: m.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(principal), DurationMonths: 3, ProjectID: &p.ID,
		})
		require.NoError(t, err)
	}
	_, err = s.ApplyLoan(ctx, ledger.ApplyLoanRequest{MemberID: m.ID, LoanTypeID: "lt-emergency", Principal: domain.MustMoney(999), DurationMonths: 3})
	require.NoError(t, err)

	sum, err = s.ProjectSummary(p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), sum.TotalBorrowed.Minor())
	assert.Equal(t, 2, sum.LinkedLoans)
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	s := testutil.NewLedger(t)
	a := testutil.SeedMember(t, s, "Naliaka")
	b := testutil.SeedMember(t, s, "Onyango")

	for _, id := range []string{a.ID, b.ID} {
		c, err := s.RecordContribution(ctx, ledger.RecordContributionRequest{MemberID: id, TypeID: "ct-monthly", Amount: domain.MustMoney(500_000)})
		require.NoError(t, err)
		_, err = s.ConfirmContribution(ctx, c.ID, "treasurer")
		require.NoError(t, err)
	}
	_, err := s.RecordContribution(ctx, ledger.RecordContributionRequest{MemberID: a.ID, TypeID: "ct-monthly", Amount: domain.MustMoney(500_000)})
	require.NoError(t, err)

	l := testutil.SeedDisbursedLoan(t, s, a.ID, 100_000, 3)
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(2_520)})
	require.NoError(t, err)
	_, err = s.RecordFine(ctx, ledger.RecordFineRequest{MemberID: b.ID, TypeID: "ft-absence"})
	require.NoError(t, err)

	got, err := s.Totals()
	require.NoError(t, err)
	assert.Equal(t, 2, got.Members)
	assert.Equal(t, 2, got.ActiveMembers)
	assert.Equal(t, int64(1_000_000), got.ConfirmedContributions.Minor())
	assert.Equal(t, int64(500_000), got.PendingContributions.Minor())
	assert.Equal(t, int64(100_000), got.LoansDisbursed.Minor())
	assert.Equal(t, l.TotalAmount.Minor()-2_520, got.LoansOutstanding.Minor())
	assert.Equal(t, int64(2_520), got.LoansRepaid.Minor())
	assert.Equal(t, 1, got.LoansByStatus[domain.LoanStatusRepaying])
	assert.Equal(t, int64(10_000), got.FinesPending.Minor())
	assert.Equal(t, int64(10), got.TotalShares)
}
