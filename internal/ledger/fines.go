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

type RecordFineRequest struct {
	MemberID string
	TypeID   string
	// Amount defaults to the fine type's amount.
	Amount *domain.Money
	Date   time.Time
	Reason string
}

// ResolveFineRequest settles a pending fine. Resolution is paid or waived;
// Method is required for paid.
type ResolveFineRequest struct {
	FineID     string
	Resolution domain.FineStatus
	Method     *domain.PaymentMethod
	Reference  *string
	Reason     *string
}

func (s *Store) RecordFine(ctx context.Context, req RecordFineRequest) (*domain.Fine, error) {
	f, err := commit(ctx, s, "RecordFine", func(st *State) (func() *domain.Fine, error) {
		m := st.member(req.MemberID)
		if m == nil {
			return nil, domain.ErrUnknownMember
		}
		ft := st.fineType(req.TypeID)
		if ft == nil {
			return nil, domain.ErrUnknownFineType
		}
		amount := ft.Amount
		if req.Amount != nil {
			amount = *req.Amount
		}
		if !amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}

		st.Fines = append(st.Fines, domain.Fine{
			ID:         s.newID(),
			MemberID:   m.ID,
			MemberName: m.Name,
			TypeID:     ft.ID,
			TypeName:   ft.Name,
			Amount:     amount,
			Date:       s.dateOrToday(req.Date),
			Reason:     strings.TrimSpace(req.Reason),
			Status:     domain.FineStatusPending,
			CreatedAt:  s.now(),
		})
		idx := len(st.Fines) - 1
		return func() *domain.Fine { return ptr(st.Fines[idx]) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("fine recorded",
		"fine_id", f.ID,
		"member_id", f.MemberID,
		"type_id", f.TypeID,
		"amount", f.Amount.Minor(),
	)
	return f, nil
}

func (s *Store) ResolveFine(ctx context.Context, req ResolveFineRequest) (*domain.Fine, error) {
	f, err := commit(ctx, s, "ResolveFine", func(st *State) (func() *domain.Fine, error) {
		f := st.fine(req.FineID)
		if f == nil {
			return nil, domain.ErrUnknownFine
		}
		if req.Resolution != domain.FineStatusPaid && req.Resolution != domain.FineStatusWaived {
			return nil, fmt.Errorf("resolution %q: %w", req.Resolution, domain.ErrInvalidRequest)
		}
		if !f.Status.CanTransitionTo(req.Resolution) {
			return nil, fmt.Errorf("fine is %s: %w", f.Status, domain.ErrAlreadyFinalized)
		}

		now := s.now()
		switch req.Resolution {
		case domain.FineStatusPaid:
			if req.Method == nil || !req.Method.IsValid() {
				return nil, fmt.Errorf("payment method required: %w", domain.ErrInvalidRequest)
			}
			f.Method = ptr(*req.Method)
			f.Reference = trimmed(req.Reference)
			f.PaidAt = &now
		case domain.FineStatusWaived:
			f.WaivedAt = &now
			f.WaivedWhy = trimmed(req.Reason)
		}
		f.Status = req.Resolution
		return func() *domain.Fine { return ptr(*f) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("fine resolved", "fine_id", f.ID, "member_id", f.MemberID, "status", f.Status)
	return f, nil
}

func (s *Store) Fine(fineID string) (*domain.Fine, error) {
	return read(s, func(st *State) (*domain.Fine, error) {
		f := st.fine(fineID)
		if f == nil {
			return nil, fmt.Errorf("Fine: %w", domain.ErrUnknownFine)
		}
		return ptr(*f), nil
	})
}

func (s *Store) Fines(memberID string) []domain.Fine {
	out, _ := read(s, func(st *State) ([]domain.Fine, error) {
		if memberID == "" {
			return slices.Clone(st.Fines), nil
		}
		var out []domain.Fine
		for _, f := range st.Fines {
			if f.MemberID == memberID {
				out = append(out, f)
			}
		}
		return out, nil
	})
	return out
}
