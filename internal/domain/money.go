package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MaxMoney bounds every amount and every total the ledger holds, in minor
// units. Sums of two amounts at the bound still fit in an int64.
const MaxMoney int64 = 1_000_000_000_000_000

var (
	hundred    = decimal.NewFromInt(100)
	maxDecimal = decimal.NewFromInt(MaxMoney)
)

// Money is an amount in integer minor units (cents) between zero and
// MaxMoney. The zero value is a valid zero amount.
type Money struct {
	minor int64
}

func NewMoney(minor int64) (Money, error) {
	if minor < 0 {
		return Money{}, fmt.Errorf("NewMoney: %d: %w", minor, ErrInvalidAmount)
	}
	if minor > MaxMoney {
		return Money{}, fmt.Errorf("NewMoney: %d: %w", minor, ErrAmountTooLarge)
	}
	return Money{minor: minor}, nil
}

// MustMoney panics on out-of-range input. Intended for constants and tests.
func MustMoney(minor int64) Money {
	m, err := NewMoney(minor)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Minor() int64 { return m.minor }

func (m Money) IsZero() bool { return m.minor == 0 }

func (m Money) IsPositive() bool { return m.minor > 0 }

// Add fails with ErrAmountOverflow when the sum would pass MaxMoney.
func (m Money) Add(o Money) (Money, error) {
	sum := m.minor + o.minor
	if sum > MaxMoney {
		return Money{}, fmt.Errorf("Add: %d + %d: %w", m.minor, o.minor, ErrAmountOverflow)
	}
	return Money{minor: sum}, nil
}

func (m Money) Sub(o Money) (Money, error) {
	if o.minor > m.minor {
		return Money{}, fmt.Errorf("Sub: %d - %d: %w", m.minor, o.minor, ErrNegativeResult)
	}
	return Money{minor: m.minor - o.minor}, nil
}

func (m Money) Cmp(o Money) int {
	switch {
	case m.minor < o.minor:
		return -1
	case m.minor > o.minor:
		return 1
	default:
		return 0
	}
}

func (m Money) LessThan(o Money) bool { return m.minor < o.minor }

func (m Money) GreaterThan(o Money) bool { return m.minor > o.minor }

// MulRate applies a percentage (10 means 10%) and rounds half-up to the
// nearest minor unit. Negative rates are rejected.
func (m Money) MulRate(pct decimal.Decimal) (Money, error) {
	if pct.IsNegative() {
		return Money{}, fmt.Errorf("MulRate: %s: %w", pct, ErrInvalidAmount)
	}
	return MoneyFromDecimal(decimal.NewFromInt(m.minor).Mul(pct).Div(hundred))
}

// MoneyFromDecimal rounds a minor-unit decimal half-up.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	if d.IsNegative() {
		return Money{}, fmt.Errorf("MoneyFromDecimal: %s: %w", d, ErrNegativeResult)
	}
	rounded := d.Round(0)
	if rounded.GreaterThan(maxDecimal) {
		return Money{}, fmt.Errorf("MoneyFromDecimal: %s: %w", rounded, ErrAmountOverflow)
	}
	return Money{minor: rounded.IntPart()}, nil
}

func (m Money) Decimal() decimal.Decimal { return decimal.NewFromInt(m.minor) }

func (m Money) String() string {
	return decimal.New(m.minor, -2).StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.minor)
}

func (m *Money) UnmarshalJSON(b []byte) error {
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("Money: %w", err)
	}
	parsed, err := NewMoney(v)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func SumMoney(ms ...Money) (Money, error) {
	var total Money
	for _, m := range ms {
		var err error
		if total, err = total.Add(m); err != nil {
			return Money{}, err
		}
	}
	return total, nil
}
