package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
)

type RecordContributionRequest struct {
	MemberID  string
	TypeID    string
	Amount    domain.Money
	Date      time.Time
	Method    domain.PaymentMethod
	Reference *string
	Notes     *string
}

// RecordContribution creates a pending contribution. It does not count toward
// the member's totals until it is confirmed.
func (s *Store) RecordContribution(ctx context.Context, req RecordContributionRequest) (*domain.Contribution, error) {
	c, err := commit(ctx, s, "RecordContribution", func(st *State) (func() *domain.Contribution, error) {
		m := st.member(req.MemberID)
		if m == nil {
			return nil, domain.ErrUnknownMember
		}
		ct := st.contributionType(req.TypeID)
		if ct == nil {
			return nil, domain.ErrUnknownContributionType
		}
		if !req.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		method := req.Method
		if method == "" {
			method = domain.PaymentMethodCash
		}
		if !method.IsValid() {
			return nil, fmt.Errorf("payment method %q: %w", method, domain.ErrInvalidRequest)
		}

		st.Contributions = append(st.Contributions, domain.Contribution{
			ID:         s.newID(),
			MemberID:   m.ID,
			MemberName: m.Name,
			TypeID:     ct.ID,
			TypeName:   ct.Name,
			Amount:     req.Amount,
			Date:       s.dateOrToday(req.Date),
			Method:     method,
			Reference:  trimmed(req.Reference),
			Notes:      trimmed(req.Notes),
			Status:     domain.ContributionStatusPending,
			CreatedAt:  s.now(),
		})
		idx := len(st.Contributions) - 1
		return func() *domain.Contribution { return ptr(st.Contributions[idx]) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("contribution recorded",
		"contribution_id", c.ID,
		"member_id", c.MemberID,
		"type_id", c.TypeID,
		"amount", c.Amount.Minor(),
	)
	return c, nil
}

// ConfirmContribution is one-way: confirmed and rejected are terminal.
func (s *Store) ConfirmContribution(ctx context.Context, contributionID, confirmedBy string) (*domain.Contribution, error) {
	c, err := commit(ctx, s, "ConfirmContribution", func(st *State) (func() *domain.Contribution, error) {
		c := st.contribution(contributionID)
		if c == nil {
			return nil, domain.ErrUnknownContribution
		}
		if !c.Status.CanTransitionTo(domain.ContributionStatusConfirmed) {
			return nil, fmt.Errorf("contribution is %s: %w", c.Status, domain.ErrAlreadyFinalized)
		}
		now := s.now()
		c.Status = domain.ContributionStatusConfirmed
		c.ConfirmedBy = ptr(confirmedBy)
		c.ConfirmedAt = &now
		return func() *domain.Contribution { return ptr(*c) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("contribution confirmed",
		"contribution_id", c.ID,
		"member_id", c.MemberID,
		"amount", c.Amount.Minor(),
		"confirmed_by", confirmedBy,
	)
	return c, nil
}

func (s *Store) RejectContribution(ctx context.Context, contributionID string, reason *string) (*domain.Contribution, error) {
	c, err := commit(ctx, s, "RejectContribution", func(st *State) (func() *domain.Contribution, error) {
		c := st.contribution(contributionID)
		if c == nil {
			return nil, domain.ErrUnknownContribution
		}
		if !c.Status.CanTransitionTo(domain.ContributionStatusRejected) {
			return nil, fmt.Errorf("contribution is %s: %w", c.Status, domain.ErrAlreadyFinalized)
		}
		now := s.now()
		c.Status = domain.ContributionStatusRejected
		c.RejectedAt = &now
		c.Reason = trimmed(reason)
		return func() *domain.Contribution { return ptr(*c) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("contribution rejected", "contribution_id", c.ID, "member_id", c.MemberID)
	return c, nil
}

func (s *Store) Contribution(contributionID string) (*domain.Contribution, error) {
	return read(s, func(st *State) (*domain.Contribution, error) {
		c := st.contribution(contributionID)
		if c == nil {
			return nil, fmt.Errorf("Contribution: %w", domain.ErrUnknownContribution)
		}
		return ptr(*c), nil
	})
}

// Contributions lists contributions, optionally for one member.
func (s *Store) Contributions(memberID string) []domain.Contribution {
	out, _ := read(s, func(st *State) ([]domain.Contribution, error) {
		if memberID == "" {
			return slices.Clone(st.Contributions), nil
		}
		var out []domain.Contribution
		for _, c := range st.Contributions {
			if c.MemberID == memberID {
				out = append(out, c)
			}
		}
		return out, nil
	})
	return out
}

// trimmed turns blank optional text into an absent field.
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
