package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
)

func (s *Store) AddContributionType(ctx context.Context, ct domain.ContributionType) (*domain.ContributionType, error) {
	out, err := commit(ctx, s, "AddContributionType", func(st *State) (func() *domain.ContributionType, error) {
		ct.Name = strings.TrimSpace(ct.Name)
		if ct.Name == "" {
			return nil, fmt.Errorf("name required: %w", domain.ErrInvalidRequest)
		}
		if !ct.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		if !ct.Frequency.IsValid() {
			return nil, fmt.Errorf("frequency %q: %w", ct.Frequency, domain.ErrInvalidRequest)
		}
		ct.ID = s.newID()
		st.ContributionTypes = append(st.ContributionTypes, ct)
		return func() *domain.ContributionType { return ptr(ct) }, nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("contribution type added", "type_id", out.ID, "amount", out.Amount.Minor())
	return out, nil
}

func (s *Store) AddLoanType(ctx context.Context, lt domain.LoanType) (*domain.LoanType, error) {
	out, err := commit(ctx, s, "AddLoanType", func(st *State) (func() *domain.LoanType, error) {
		lt.Name = strings.TrimSpace(lt.Name)
		switch {
		case lt.Name == "":
			return nil, fmt.Errorf("name required: %w", domain.ErrInvalidRequest)
		case !lt.InterestPolicy.IsValid():
			return nil, fmt.Errorf("interest policy %q: %w", lt.InterestPolicy, domain.ErrInvalidRequest)
		case lt.InterestRate.IsNegative(), lt.ProcessingFeeRate.IsNegative():
			return nil, fmt.Errorf("negative rate: %w", domain.ErrInvalidAmount)
		case lt.MaxDurationMonths < 0, lt.MinGuarantors < 0:
			return nil, fmt.Errorf("negative limit: %w", domain.ErrInvalidRequest)
		case lt.RequiresGuarantors && lt.MinGuarantors == 0:
			return nil, fmt.Errorf("guarantor requirement without a minimum: %w", domain.ErrInvalidRequest)
		}
		lt.ID = s.newID()
		st.LoanTypes = append(st.LoanTypes, lt)
		return func() *domain.LoanType { return ptr(lt) }, nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("loan type added", "type_id", out.ID, "policy", out.InterestPolicy, "rate", out.InterestRate)
	return out, nil
}

func (s *Store) AddFineType(ctx context.Context, ft domain.FineType) (*domain.FineType, error) {
	out, err := commit(ctx, s, "AddFineType", func(st *State) (func() *domain.FineType, error) {
		ft.Name = strings.TrimSpace(ft.Name)
		if ft.Name == "" {
			return nil, fmt.Errorf("name required: %w", domain.ErrInvalidRequest)
		}
		if !ft.Amount.IsPositive() {
			return nil, domain.ErrInvalidAmount
		}
		ft.ID = s.newID()
		st.FineTypes = append(st.FineTypes, ft)
		return func() *domain.FineType { return ptr(ft) }, nil
	})
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("fine type added", "type_id", out.ID, "amount", out.Amount.Minor())
	return out, nil
}

func (s *Store) ContributionTypes() []domain.ContributionType {
	out, _ := read(s, func(st *State) ([]domain.ContributionType, error) {
		return slices.Clone(st.ContributionTypes), nil
	})
	return out
}

func (s *Store) LoanTypes() []domain.LoanType {
	out, _ := read(s, func(st *State) ([]domain.LoanType, error) {
		return slices.Clone(st.LoanTypes), nil
	})
	return out
}

func (s *Store) FineTypes() []domain.FineType {
	out, _ := read(s, func(st *State) ([]domain.FineType, error) {
		return slices.Clone(st.FineTypes), nil
	})
	return out
}
