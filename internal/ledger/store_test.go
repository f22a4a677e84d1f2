package ledger_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
	"github.com/josh-kwaku/chama-ledger/internal/repository"
	"github.com/josh-kwaku/chama-ledger/internal/testutil"
)

// failingStore loads normally and refuses every save while fail is set.
type failingStore struct {
	*repository.MemoryStore
	fail bool
}

var errDiskFull = errors.New("disk full")

func (f *failingStore) Save(ctx context.Context, doc *repository.Document) error {
	if f.fail {
		return errDiskFull
	}
	return f.MemoryStore.Save(ctx, doc)
}

func openLedger(t *testing.T, docs *repository.MemoryStore) *ledger.Store {
	t.Helper()
	opts := testutil.Options("id")
	opts.Docs = docs
	s, err := ledger.Open(context.Background(), opts)
	require.NoError(t, err)
	return s
}

func TestReconcile_NonEmptyPersistedWinsWholesale(t *testing.T) {
	persisted := &ledger.State{
		Members: []domain.Member{
			{ID: "m-1", Name: "Amina"},
			{ID: "m-2", Name: "Baraka"},
			{ID: "m-3", Name: "Chiku"},
		},
		FineTypes: []domain.FineType{{ID: "ft-custom", Name: "Phone ringing", Amount: domain.MustMoney(5_000)}},
	}
	defaults := ledger.DefaultState()
	require.Empty(t, defaults.Members)

	got := ledger.Reconcile(persisted, defaults)

	assert.Len(t, got.Members, 3)
	assert.Equal(t, "m-1", got.Members[0].ID)
	assert.Len(t, got.FineTypes, 1, "persisted fine types replace defaults, no merge")
	assert.Equal(t, "ft-custom", got.FineTypes[0].ID)
	assert.Equal(t, defaults.LoanTypes, got.LoanTypes, "empty persisted collection keeps defaults")
	assert.Equal(t, defaults.ContributionTypes, got.ContributionTypes)

	got.Members[0].Name = "changed"
	assert.Equal(t, "Amina", persisted.Members[0].Name)
}

func TestReconcile_NothingPersisted(t *testing.T) {
	got := ledger.Reconcile(nil, ledger.DefaultState())
	assert.Equal(t, ledger.DefaultState(), got)
}

func TestOpen_LoadsPersistedMembers(t *testing.T) {
	ctx := context.Background()
	docs := repository.NewMemoryStore()

	body, err := json.Marshal(map[string]any{
		"schema_version": 1,
		"members": []domain.Member{
			{ID: "m-1", Name: "Amina", Role: domain.RoleChairman, Status: domain.MemberStatusActive},
			{ID: "m-2", Name: "Baraka", Role: domain.RoleMember, Status: domain.MemberStatusActive},
			{ID: "m-3", Name: "Chiku", Role: domain.RoleTreasurer, Status: domain.MemberStatusActive},
		},
	})
	require.NoError(t, err)
	require.NoError(t, docs.Save(ctx, &repository.Document{Key: ledger.DefaultStorageKey, Version: 1, Data: body}))

	s := openLedger(t, docs)
	assert.Len(t, s.Members(), 3)
	assert.Len(t, s.LoanTypes(), 3, "catalogue falls back to defaults")
	assert.Equal(t, int64(1), s.Version())
}

func TestOpen_MissingDocumentStartsFromDefaults(t *testing.T) {
	s := openLedger(t, repository.NewMemoryStore())
	assert.Empty(t, s.Members())
	assert.Len(t, s.ContributionTypes(), 2)
	assert.Len(t, s.FineTypes(), 3)
	assert.Equal(t, int64(0), s.Version())
}

func TestOpen_RejectsUnknownSchemaVersion(t *testing.T) {
	ctx := context.Background()
	docs := repository.NewMemoryStore()
	require.NoError(t, docs.Save(ctx, &repository.Document{Key: ledger.DefaultStorageKey, Version: 1, Data: []byte(`{"schema_version":99}`)}))

	opts := testutil.Options("id")
	opts.Docs = docs
	_, err := ledger.Open(ctx, opts)
	require.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestOpen_RejectsInconsistentLoan(t *testing.T) {
	ctx := context.Background()
	docs := repository.NewMemoryStore()
	body, err := json.Marshal(map[string]any{
		"schema_version": 1,
		"loans": []domain.Loan{{
			ID: "l-1", PrincipalAmount: domain.MustMoney(1_000), TotalAmount: domain.MustMoney(1_000),
			Balance: domain.MustMoney(10), Status: domain.LoanStatusDisbursed,
		}},
	})
	require.NoError(t, err)
	require.NoError(t, docs.Save(ctx, &repository.Document{Key: ledger.DefaultStorageKey, Version: 1, Data: body}))

	opts := testutil.Options("id")
	opts.Docs = docs
	_, err = ledger.Open(ctx, opts)
	require.ErrorIs(t, err, domain.ErrInvariantViolation)
}

func TestOpen_RoundTrip(t *testing.T) {
	ctx := context.Background()
	docs := repository.NewMemoryStore()

	s := openLedger(t, docs)
	m := testutil.SeedMember(t, s, "Zawadi")
	c, err := s.RecordContribution(ctx, ledger.RecordContributionRequest{
		MemberID: m.ID, TypeID: "ct-monthly", Amount: domain.MustMoney(500_000), Method: domain.PaymentMethodMpesa,
	})
	require.NoError(t, err)
	_, err = s.ConfirmContribution(ctx, c.ID, "treasurer")
	require.NoError(t, err)
	l := testutil.SeedDisbursedLoan(t, s, m.ID, 100_000, 3)
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, ID: "r-1", Amount: domain.MustMoney(40_000)})
	require.NoError(t, err)

	reopened := openLedger(t, docs)
	assert.Equal(t, s.Version(), reopened.Version())

	member, err := reopened.Member(m.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), member.TotalContributions.Minor())
	assert.Equal(t, int64(5), member.Shares)

	loan, err := reopened.Loan(l.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusRepaying, loan.Status)
	assert.Equal(t, int64(40_000), loan.AmountPaid.Minor())
	assert.True(t, loan.InterestRate.Equal(l.InterestRate))
	assert.Equal(t, member.OutstandingLoans, loan.Balance)

	replay, err := reopened.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, ID: "r-1", Amount: domain.MustMoney(40_000)})
	require.NoError(t, err)
	assert.Len(t, replay.Repayments, 1, "repayment ids survive a restart")
}

func TestCommit_SaveFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	docs := &failingStore{MemoryStore: repository.NewMemoryStore()}
	opts := testutil.Options("id")
	opts.Docs = docs
	s, err := ledger.Open(ctx, opts)
	require.NoError(t, err)

	m := testutil.SeedMember(t, s, "Imani")
	l := testutil.SeedDisbursedLoan(t, s, m.ID, 50_000, 2)
	version := s.Version()

	docs.fail = true
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(10_000)})
	require.ErrorIs(t, err, errDiskFull)

	after, err := s.Loan(l.ID)
	require.NoError(t, err)
	assert.Empty(t, after.Repayments)
	assert.Equal(t, domain.LoanStatusDisbursed, after.Status)
	assert.Equal(t, version, s.Version())

	docs.fail = false
	_, err = s.RecordRepayment(ctx, ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(10_000)})
	require.NoError(t, err)
	assert.Equal(t, version+1, s.Version())
}

func TestCommit_ConcurrentWriterConflicts(t *testing.T) {
	ctx := context.Background()
	docs := repository.NewMemoryStore()
	a := openLedger(t, docs)
	b := openLedger(t, docs)

	testutil.SeedMember(t, a, "First")

	_, err := b.AddMember(ctx, ledger.AddMemberRequest{Name: "Second"})
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	// The losing writer picks up the winner's revision.
	require.Len(t, b.Members(), 1)
	assert.Equal(t, "First", b.Members()[0].Name)
	assert.Equal(t, a.Version(), b.Version())

	_, err = b.AddMember(ctx, ledger.AddMemberRequest{Name: "Second"})
	require.NoError(t, err)
	assert.Len(t, b.Members(), 2)

	reopened := openLedger(t, docs)
	assert.Len(t, reopened.Members(), 2)
}

func TestReads_ReturnCopies(t *testing.T) {
	s := testutil.NewLedger(t)
	m := testutil.SeedMember(t, s, "Halima")
	l := testutil.SeedDisbursedLoan(t, s, m.ID, 10_000, 2)
	_, err := s.RecordRepayment(context.Background(), ledger.RepaymentRequest{LoanID: l.ID, Amount: domain.MustMoney(1_000)})
	require.NoError(t, err)

	got, err := s.Loan(l.ID)
	require.NoError(t, err)
	got.Repayments[0].Amount = domain.MustMoney(9_999)
	got.Balance = domain.Money{}

	again, err := s.Loan(l.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_000), again.Repayments[0].Amount.Minor())
	assert.False(t, again.Balance.IsZero())
}
