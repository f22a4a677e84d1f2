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

type AddMemberRequest struct {
	Name     string
	Email    string
	Phone    string
	Role     domain.Role
	JoinDate time.Time
}

// UpdateMemberRequest carries profile fields only; nil means unchanged.
// Derived totals cannot be set.
type UpdateMemberRequest struct {
	MemberID string
	Name     *string
	Email    *string
	Phone    *string
	Role     *domain.Role
	Status   *domain.MemberStatus
}

func (s *Store) AddMember(ctx context.Context, req AddMemberRequest) (*domain.Member, error) {
	m, err := commit(ctx, s, "AddMember", func(st *State) (func() *domain.Member, error) {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			return nil, fmt.Errorf("name required: %w", domain.ErrInvalidRequest)
		}
		role := req.Role
		if role == "" {
			role = domain.RoleMember
		}
		if !role.IsValid() {
			return nil, fmt.Errorf("role %q: %w", role, domain.ErrInvalidRequest)
		}
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if err := checkEmailFree(st, email, ""); err != nil {
			return nil, err
		}

		now := s.now()
		st.Members = append(st.Members, domain.Member{
			ID:        s.newID(),
			Name:      name,
			Email:     email,
			Phone:     strings.TrimSpace(req.Phone),
			Role:      role,
			Status:    domain.MemberStatusActive,
			JoinDate:  s.dateOrToday(req.JoinDate),
			CreatedAt: now,
			UpdatedAt: now,
		})
		idx := len(st.Members) - 1
		return func() *domain.Member { return ptr(st.Members[idx]) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("member added", "member_id", m.ID, "role", m.Role)
	return m, nil
}

func (s *Store) UpdateMember(ctx context.Context, req UpdateMemberRequest) (*domain.Member, error) {
	m, err := commit(ctx, s, "UpdateMember", func(st *State) (func() *domain.Member, error) {
		m := st.member(req.MemberID)
		if m == nil {
			return nil, domain.ErrUnknownMember
		}
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return nil, fmt.Errorf("name required: %w", domain.ErrInvalidRequest)
			}
			m.Name = name
		}
		if req.Email != nil {
			email := strings.ToLower(strings.TrimSpace(*req.Email))
			if err := checkEmailFree(st, email, m.ID); err != nil {
				return nil, err
			}
			m.Email = email
		}
		if req.Phone != nil {
			m.Phone = strings.TrimSpace(*req.Phone)
		}
		if req.Role != nil {
			if !req.Role.IsValid() {
				return nil, fmt.Errorf("role %q: %w", *req.Role, domain.ErrInvalidRequest)
			}
			m.Role = *req.Role
		}
		if req.Status != nil {
			if !req.Status.IsValid() {
				return nil, fmt.Errorf("status %q: %w", *req.Status, domain.ErrInvalidRequest)
			}
			m.Status = *req.Status
		}
		m.UpdatedAt = s.now()
		return func() *domain.Member { return ptr(*m) }, nil
	})
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("member updated", "member_id", m.ID, "status", m.Status)
	return m, nil
}

// RemoveMember deletes a member with no outstanding obligations. Historical
// records keep their name snapshot.
func (s *Store) RemoveMember(ctx context.Context, memberID string) error {
	_, err := commit(ctx, s, "RemoveMember", func(st *State) (func() struct{}, error) {
		m := st.member(memberID)
		if m == nil {
			return nil, domain.ErrUnknownMember
		}
		if m.OutstandingLoans.IsPositive() {
			return nil, fmt.Errorf("outstanding loans %s: %w", m.OutstandingLoans, domain.ErrOutstandingBalance)
		}
		for _, l := range st.Loans {
			if l.MemberID == memberID && (l.Status == domain.LoanStatusPending || l.Status == domain.LoanStatusApproved) {
				return nil, fmt.Errorf("open loan application %s: %w", l.ID, domain.ErrOutstandingBalance)
			}
		}
		for _, f := range st.Fines {
			if f.MemberID == memberID && f.Status == domain.FineStatusPending {
				return nil, fmt.Errorf("pending fine %s: %w", f.ID, domain.ErrOutstandingBalance)
			}
		}

		st.Members = slices.DeleteFunc(st.Members, func(m domain.Member) bool { return m.ID == memberID })
		return func() struct{} { return struct{}{} }, nil
	})
	if err != nil {
		return err
	}

	logging.FromContext(ctx).Info("member removed", "member_id", memberID)
	return nil
}

func (s *Store) Member(memberID string) (*domain.Member, error) {
	return read(s, func(st *State) (*domain.Member, error) {
		m := st.member(memberID)
		if m == nil {
			return nil, fmt.Errorf("Member: %w", domain.ErrUnknownMember)
		}
		return ptr(*m), nil
	})
}

func (s *Store) Members() []domain.Member {
	out, _ := read(s, func(st *State) ([]domain.Member, error) {
		return slices.Clone(st.Members), nil
	})
	return out
}

func checkEmailFree(st *State, email, exceptID string) error {
	if email == "" {
		return nil
	}
	for _, m := range st.Members {
		if m.ID != exceptID && m.Email == email {
			return fmt.Errorf("%s: %w", email, domain.ErrDuplicateEmail)
		}
	}
	return nil
}
