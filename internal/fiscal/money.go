package fiscal

import (
	"math"

	"github.com/shopspring/decimal"
)

// Cent is the smallest representable amount.
func Cent() decimal.Decimal {
	return decimal.New(1, -2)
}

// Round2 rounds d to the nearest cent, halves away from zero.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Percent returns round2(base * rate / 100).
func Percent(base, rate decimal.Decimal) decimal.Decimal {
	return Round2(base.Mul(rate).Div(decimal.NewFromInt(100)))
}

// ValidateAmount checks that d is a non-negative amount expressible in cents.
func ValidateAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return NewFieldError(field, d, ErrInvalidAmount)
	}
	if !d.Equal(d.Round(2)) {
		return NewFieldError(field, d, ErrInvalidAmount)
	}
	return nil
}

// AmountFromFloat converts a float into a validated amount. NaN and
// infinities are rejected along with everything ValidateAmount rejects.
func AmountFromFloat(field string, f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, &FieldError{Field: field, Value: "non-finite", Err: ErrInvalidAmount}
	}
	d := decimal.NewFromFloat(f)
	if err := ValidateAmount(field, d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// WithinTolerance reports whether abs(a - b) <= tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// Sum adds amounts. The inputs are already rounded so the sum needs no rounding.
func Sum(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
