package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

var fullShare = decimal.NewFromInt(100)

type memberTotals struct {
	contributions domain.Money
	loans         domain.Money
	outstanding   domain.Money
}

// derive recomputes every projection held on members from the contribution
// and loan ledgers.
func (s *Store) derive(st *State) error {
	totals := make(map[string]*memberTotals, len(st.Members))
	for i := range st.Members {
		totals[st.Members[i].ID] = &memberTotals{}
	}

	for _, c := range st.Contributions {
		if t, ok := totals[c.MemberID]; ok && c.Status == domain.ContributionStatusConfirmed {
			var err error
			if t.contributions, err = t.contributions.Add(c.Amount); err != nil {
				return fmt.Errorf("member %s contributions: %w", c.MemberID, err)
			}
		}
	}

	for _, l := range st.Loans {
		t, ok := totals[l.MemberID]
		if !ok || !l.Status.WasDisbursed() {
			continue
		}
		var err error
		if t.loans, err = t.loans.Add(l.PrincipalAmount); err != nil {
			return fmt.Errorf("member %s loans: %w", l.MemberID, err)
		}
		if l.Status != domain.LoanStatusCompleted {
			if t.outstanding, err = t.outstanding.Add(l.Balance); err != nil {
				return fmt.Errorf("member %s outstanding loans: %w", l.MemberID, err)
			}
		}
	}

	for i := range st.Members {
		m := &st.Members[i]
		t := totals[m.ID]
		m.TotalContributions = t.contributions
		m.TotalLoans = t.loans
		m.OutstandingLoans = t.outstanding
		m.Shares = 0
		if s.shareValue.IsPositive() {
			m.Shares = t.contributions.Minor() / s.shareValue.Minor()
		}
	}
	return nil
}

// verify checks every aggregate's own invariants. A failure here is a defect:
// the command that produced st must not be committed.
func verify(st *State) error {
	for i := range st.Loans {
		if err := st.Loans[i].CheckInvariants(); err != nil {
			return err
		}
	}

	for i := range st.Projects {
		p := &st.Projects[i]
		if len(p.Members) == 0 {
			continue
		}
		var invested domain.Money
		sum := decimal.Zero
		for _, m := range p.Members {
			var err error
			if invested, err = invested.Add(m.InvestmentAmount); err != nil {
				return fmt.Errorf("project %s: %v: %w", p.ID, err, domain.ErrInvariantViolation)
			}
			sum = sum.Add(m.SharePercentage)
		}
		if invested.IsPositive() && !sum.Equal(fullShare) {
			return fmt.Errorf("project %s: shares sum to %s: %w", p.ID, sum, domain.ErrInvariantViolation)
		}
	}

	for _, c := range st.Contributions {
		if !c.Amount.IsPositive() {
			return fmt.Errorf("contribution %s: non-positive amount: %w", c.ID, domain.ErrInvariantViolation)
		}
	}
	return nil
}
