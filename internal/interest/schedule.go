package interest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

const monthsPerYear = 12

var periodDivisor = decimal.NewFromInt(monthsPerYear * 100)

// Period is one month of a loan's interest accrual.
//
// For simple interest the total is spread evenly across periods. For compound
// interest the Interest column is the growth of the compounding balance, which
// starts at the principal and is not reduced by installments. For reducing
// balance it is charged on OpeningPrincipal.
type Period struct {
	Number           int          `json:"number"`
	OpeningPrincipal domain.Money `json:"opening_principal"`
	Interest         domain.Money `json:"interest"`
	PrincipalRepaid  domain.Money `json:"principal_repaid"`
	ClosingPrincipal domain.Money `json:"closing_principal"`
}

// Schedule computes the month-by-month interest accrual for a loan. Each
// period's interest is rounded half-up to the minor unit, so the schedule's
// interest column always sums to Total(schedule).
func Schedule(policy domain.InterestPolicy, principal domain.Money, annualRate decimal.Decimal, months int) ([]Period, error) {
	if err := validate(policy, principal, annualRate, months); err != nil {
		return nil, fmt.Errorf("Schedule: %w", err)
	}

	principalParts, err := Split(principal, months)
	if err != nil {
		return nil, fmt.Errorf("Schedule: %w", err)
	}

	var interestFor func(i int, opening domain.Money) (domain.Money, error)
	switch policy {
	case domain.InterestSimple:
		total, err := simpleTotal(principal, annualRate, months)
		if err != nil {
			return nil, fmt.Errorf("Schedule: %w", err)
		}
		parts, err := Split(total, months)
		if err != nil {
			return nil, fmt.Errorf("Schedule: %w", err)
		}
		interestFor = func(i int, _ domain.Money) (domain.Money, error) {
			return parts[i], nil
		}
	case domain.InterestCompound:
		compounding := principal
		interestFor = func(_ int, _ domain.Money) (domain.Money, error) {
			accrued, err := periodInterest(compounding, annualRate)
			if err != nil {
				return domain.Money{}, err
			}
			if compounding, err = compounding.Add(accrued); err != nil {
				return domain.Money{}, err
			}
			return accrued, nil
		}
	case domain.InterestReducingBalance:
		interestFor = func(_ int, opening domain.Money) (domain.Money, error) {
			return periodInterest(opening, annualRate)
		}
	}

	periods := make([]Period, 0, months)
	outstanding := principal
	for i := range months {
		accrued, err := interestFor(i, outstanding)
		if err != nil {
			return nil, fmt.Errorf("Schedule: period %d: %w", i+1, err)
		}
		closing, err := outstanding.Sub(principalParts[i])
		if err != nil {
			return nil, fmt.Errorf("Schedule: period %d: %w", i+1, err)
		}
		periods = append(periods, Period{
			Number:           i + 1,
			OpeningPrincipal: outstanding,
			Interest:         accrued,
			PrincipalRepaid:  principalParts[i],
			ClosingPrincipal: closing,
		})
		outstanding = closing
	}
	return periods, nil
}

// Total sums the interest column of a schedule.
func Total(periods []Period) (domain.Money, error) {
	var total domain.Money
	for _, p := range periods {
		var err error
		if total, err = total.Add(p.Interest); err != nil {
			return domain.Money{}, fmt.Errorf("Total: %w", err)
		}
	}
	return total, nil
}

// Calculate returns the total interest a loan accrues under the policy.
func Calculate(policy domain.InterestPolicy, principal domain.Money, annualRate decimal.Decimal, months int) (domain.Money, error) {
	periods, err := Schedule(policy, principal, annualRate, months)
	if err != nil {
		return domain.Money{}, fmt.Errorf("Calculate: %w", err)
	}
	total, err := Total(periods)
	if err != nil {
		return domain.Money{}, fmt.Errorf("Calculate: %w", err)
	}
	return total, nil
}

// simpleTotal is principal * rate * months / 12, rounded once.
func simpleTotal(principal domain.Money, annualRate decimal.Decimal, months int) (domain.Money, error) {
	raw := principal.Decimal().Mul(annualRate).Mul(decimal.NewFromInt(int64(months))).Div(periodDivisor)
	return domain.MoneyFromDecimal(raw)
}

func periodInterest(balance domain.Money, annualRate decimal.Decimal) (domain.Money, error) {
	return domain.MoneyFromDecimal(balance.Decimal().Mul(annualRate).Div(periodDivisor))
}

func validate(policy domain.InterestPolicy, principal domain.Money, annualRate decimal.Decimal, months int) error {
	if !policy.IsValid() {
		return fmt.Errorf("unknown interest policy %q: %w", policy, domain.ErrInvalidRequest)
	}
	if !principal.IsPositive() {
		return fmt.Errorf("principal: %w", domain.ErrInvalidAmount)
	}
	if annualRate.IsNegative() {
		return fmt.Errorf("rate %s: %w", annualRate, domain.ErrInvalidAmount)
	}
	if months <= 0 {
		return fmt.Errorf("duration %d months: %w", months, domain.ErrInvalidRequest)
	}
	return nil
}
