// Package socialsecurity computes the monthly self-employed Social Security
// quota, either under the starter flat rate or from a contribution base.
package socialsecurity

import (
	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

// Path names the computation that produced a quota.
type Path string

const (
	PathFlatRate Path = "flat_rate"
	PathStandard Path = "standard"
)

// DefaultBase is the statutory minimum base used when none is chosen.
func DefaultBase() decimal.Decimal { return decimal.New(95098, -2) }

// FlatRateFee is the monthly flat quota during the first enrollment period.
func FlatRateFee() decimal.Decimal { return decimal.New(80, 0) }

// MEIRate is the intergenerational equity charge, due on top of the flat fee.
func MEIRate() decimal.Decimal { return decimal.New(9, -3) }

// TotalRatePercent aggregates common and professional contingencies,
// cessation of activity, training and MEI.
func TotalRatePercent() decimal.Decimal { return decimal.New(315, -1) }

// Input is the user configuration the quota depends on.
type Input struct {
	MonthlyNetIncome decimal.Decimal
	FlatRate         bool
	ChosenBase       *decimal.Decimal
}

// Quota is the computed monthly contribution.
type Quota struct {
	Path       Path            `json:"path"`
	Base       decimal.Decimal `json:"base"`
	Amount     decimal.Decimal `json:"amount"`
	Supplement decimal.Decimal `json:"supplement"`
	// Bracket is the scale row matching the declared income. It is reported
	// for reference and takes no part in the amount.
	Bracket Bracket `json:"bracket"`
}

// Quote computes the monthly quota for in.
func Quote(in Input) (Quota, error) {
	base := DefaultBase()
	if in.ChosenBase != nil {
		if err := fiscal.ValidateAmount("chosen_base", *in.ChosenBase); err != nil {
			return Quota{}, err
		}
		base = *in.ChosenBase
	}

	q := Quota{Base: base, Bracket: BracketFor(in.MonthlyNetIncome)}

	if in.FlatRate {
		q.Path = PathFlatRate
		q.Supplement = fiscal.Round2(base.Mul(MEIRate()))
		q.Amount = FlatRateFee().Add(q.Supplement)
		return q, nil
	}

	q.Path = PathStandard
	q.Supplement = decimal.Zero
	q.Amount = fiscal.Percent(base, TotalRatePercent())
	return q, nil
}
