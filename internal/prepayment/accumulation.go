// Package prepayment computes the year-to-date figures of the quarterly
// income-tax prepayment (Modelo 130).
//
// Every figure is cumulative from the first quarter of the year. The amount
// already prepaid in earlier quarters is rebuilt by folding over those
// quarters with the same formulas, so the package needs nothing but the four
// quarterly vectors.
package prepayment

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

const ratePercent = 20

// Rate is the prepayment percentage applied to a positive net result.
func Rate() decimal.Decimal {
	return decimal.NewFromInt(ratePercent)
}

// Quarters holds quarter-only sums, index 0 being the first quarter.
// Quarters after the target quarter are ignored.
type Quarters struct {
	Income      [4]decimal.Decimal `json:"income"`
	Expense     [4]decimal.Decimal `json:"expense"`
	Withholding [4]decimal.Decimal `json:"withholding"`
}

// Accumulation is the year-to-date state at the end of a quarter.
type Accumulation struct {
	Quarter        int             `json:"quarter"`
	Income         decimal.Decimal `json:"income"`
	Expense        decimal.Decimal `json:"expense"`
	NetResult      decimal.Decimal `json:"net_result"`
	TentativeQuota decimal.Decimal `json:"tentative_quota"`
	PriorPayments  decimal.Decimal `json:"prior_payments"`
	Withholding    decimal.Decimal `json:"withholding"`
	Result         decimal.Decimal `json:"result"`
}

// Accumulate computes the prepayment figures for quarter q.
func Accumulate(qs Quarters, q int) (Accumulation, error) {
	if err := validate(qs, q); err != nil {
		return Accumulation{}, err
	}

	income, expense, withholding := totals(qs, q)
	net := income.Sub(expense)
	tentative := tentativeQuota(net)
	prior := priorPayments(qs, q)

	return Accumulation{
		Quarter:        q,
		Income:         income,
		Expense:        expense,
		NetResult:      net,
		TentativeQuota: tentative,
		PriorPayments:  prior,
		Withholding:    withholding,
		Result:         tentative.Sub(prior).Sub(withholding),
	}, nil
}

// PriorPositivePayments returns the sum of positive results declared in the
// quarters before q. It is zero for the first quarter.
func PriorPositivePayments(qs Quarters, q int) (decimal.Decimal, error) {
	if err := validate(qs, q); err != nil {
		return decimal.Zero, err
	}
	return priorPayments(qs, q), nil
}

// priorPayments folds over quarters 1..q-1. Each quarter's result is its
// cumulative quota minus what was paid before it and minus cumulative
// withholding; only positive results count as paid. Negative results are
// never carried forward.
func priorPayments(qs Quarters, q int) decimal.Decimal {
	paid := decimal.Zero
	for t := 1; t < q; t++ {
		income, expense, withholding := totals(qs, t)
		result := tentativeQuota(income.Sub(expense)).Sub(paid).Sub(withholding)
		if result.IsPositive() {
			paid = paid.Add(result)
		}
	}
	return paid
}

func totals(qs Quarters, q int) (income, expense, withholding decimal.Decimal) {
	return fiscal.Sum(qs.Income[:q]...), fiscal.Sum(qs.Expense[:q]...), fiscal.Sum(qs.Withholding[:q]...)
}

func tentativeQuota(net decimal.Decimal) decimal.Decimal {
	if !net.IsPositive() {
		return decimal.Zero
	}
	return fiscal.Percent(net, Rate())
}

func validate(qs Quarters, q int) error {
	if q < 1 || q > 4 {
		return fiscal.NewFieldError("quarter", q, fiscal.ErrInvalidPeriod)
	}
	for i := 0; i < q; i++ {
		if err := fiscal.ValidateAmount(fmt.Sprintf("income[%d]", i+1), qs.Income[i]); err != nil {
			return err
		}
		if err := fiscal.ValidateAmount(fmt.Sprintf("expense[%d]", i+1), qs.Expense[i]); err != nil {
			return err
		}
		if err := fiscal.ValidateAmount(fmt.Sprintf("withholding[%d]", i+1), qs.Withholding[i]); err != nil {
			return err
		}
	}
	return nil
}
