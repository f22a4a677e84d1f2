package interest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

// Split divides total into n installments. Every installment but the last is
// total/n rounded half-up; the last absorbs the remainder. When rounding up
// would leave the last installment negative the regular amount is floored
// instead. The parts always sum to total.
func Split(total domain.Money, n int) ([]domain.Money, error) {
	if n <= 0 {
		return nil, nil
	}
	regular, final, err := MonthlyPayment(total, n)
	if err != nil {
		return nil, fmt.Errorf("Split: %w", err)
	}
	parts := make([]domain.Money, n)
	for i := range n - 1 {
		parts[i] = regular
	}
	parts[n-1] = final
	return parts, nil
}

// MonthlyPayment returns the regular installment and the final one.
func MonthlyPayment(total domain.Money, months int) (regular, final domain.Money, err error) {
	if months <= 0 {
		return total, total, nil
	}
	r, f := installment(total.Minor(), int64(months))
	if regular, err = domain.NewMoney(r); err != nil {
		return domain.Money{}, domain.Money{}, fmt.Errorf("MonthlyPayment: regular: %w", err)
	}
	if final, err = domain.NewMoney(f); err != nil {
		return domain.Money{}, domain.Money{}, fmt.Errorf("MonthlyPayment: final: %w", err)
	}
	return regular, final, nil
}

func installment(total, n int64) (regular, final int64) {
	regular = decimal.NewFromInt(total).Div(decimal.NewFromInt(n)).Round(0).IntPart()
	if regular*(n-1) > total {
		regular = total / n
	}
	return regular, total - regular*(n-1)
}
