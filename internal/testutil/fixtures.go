package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/ledger"
)

// Today is the fixed clock reading of ledgers built by NewLedger.
var Today = time.Date(2025, time.March, 3, 9, 30, 0, 0, time.UTC)

// ShareValue is the share price used by fixture ledgers.
var ShareValue = domain.MustMoney(100_000)

// Options returns ledger options with a fixed clock and sequential ids
// (prefix-1, prefix-2, ...).
func Options(prefix string) ledger.Options {
	var seq atomic.Int64
	return ledger.Options{
		ShareValue: ShareValue,
		Now:        func() time.Time { return Today },
		NewID:      func() string { return fmt.Sprintf("%s-%d", prefix, seq.Add(1)) },
	}
}

// NewLedger builds an unpersisted ledger with the default catalogue.
func NewLedger(t *testing.T) *ledger.Store {
	t.Helper()
	return ledger.New(Options("id"))
}

func SeedMember(t *testing.T, s *ledger.Store, name string) *domain.Member {
	t.Helper()

	m, err := s.AddMember(context.Background(), ledger.AddMemberRequest{Name: name})
	if err != nil {
		t.Fatalf("seed member %s: %v", name, err)
	}
	return m
}

// SeedDisbursedLoan files, approves and disburses an emergency loan, the
// default type that needs no guarantors.
func SeedDisbursedLoan(t *testing.T, s *ledger.Store, memberID string, principal int64, months int) *domain.Loan {
	t.Helper()
	ctx := context.Background()

	l, err := s.ApplyLoan(ctx, ledger.ApplyLoanRequest{
		MemberID:       memberID,
		LoanTypeID:     "lt-emergency",
		Principal:      domain.MustMoney(principal),
		DurationMonths: months,
		Purpose:        "fixture",
	})
	if err != nil {
		t.Fatalf("apply loan: %v", err)
	}
	if _, err := s.ApproveLoan(ctx, l.ID, "treasurer"); err != nil {
		t.Fatalf("approve loan: %v", err)
	}
	l, err = s.DisburseLoan(ctx, l.ID, time.Time{})
	if err != nil {
		t.Fatalf("disburse loan: %v", err)
	}
	return l
}
