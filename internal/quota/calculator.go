// Package quota computes VAT and withholding quotas and document totals, and
// re-derives them to check declared figures.
//
// Every result is rounded to the cent before it is returned. Quota validators
// accept a declared figure within one cent of a fresh computation, because
// callers often sum quotas that were rounded line by line.
package quota

import (
	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

// Tolerance is the maximum accepted drift between a declared and a
// recomputed figure.
func Tolerance() decimal.Decimal {
	return fiscal.Cent()
}

// VATQuota returns round2(base * rate / 100).
func VATQuota(base, rate decimal.Decimal) (decimal.Decimal, error) {
	if err := fiscal.ValidateAmount("base", base); err != nil {
		return decimal.Zero, err
	}
	if _, ok := VATTierFor(rate); !ok {
		return decimal.Zero, fiscal.NewFieldError("vat_rate", rate, fiscal.ErrUnsupportedRate)
	}
	return fiscal.Percent(base, rate), nil
}

// WithholdingQuota returns round2(base * rate / 100).
func WithholdingQuota(base, rate decimal.Decimal) (decimal.Decimal, error) {
	if err := fiscal.ValidateAmount("base", base); err != nil {
		return decimal.Zero, err
	}
	if !isWithholdingRate(rate) {
		return decimal.Zero, fiscal.NewFieldError("withholding_rate", rate, fiscal.ErrUnsupportedRate)
	}
	return fiscal.Percent(base, rate), nil
}

// DocumentTotal returns base + vat - withholding.
func DocumentTotal(base, vatQuota, withholdingQuota decimal.Decimal) (decimal.Decimal, error) {
	if err := fiscal.ValidateAmount("base", base); err != nil {
		return decimal.Zero, err
	}
	if err := fiscal.ValidateAmount("vat_quota", vatQuota); err != nil {
		return decimal.Zero, err
	}
	if err := fiscal.ValidateAmount("withholding_quota", withholdingQuota); err != nil {
		return decimal.Zero, err
	}
	return fiscal.Round2(base.Add(vatQuota).Sub(withholdingQuota)), nil
}

// Invoice computes the full breakdown of a one-base invoice. A nil
// withholdingRate means the invoice carries no withholding.
func Invoice(base, vatRate decimal.Decimal, withholdingRate *decimal.Decimal) (Breakdown, error) {
	vat, err := VATQuota(base, vatRate)
	if err != nil {
		return Breakdown{}, err
	}

	wRate, wQuota := decimal.Zero, decimal.Zero
	if withholdingRate != nil {
		wRate = *withholdingRate
		wQuota, err = WithholdingQuota(base, wRate)
		if err != nil {
			return Breakdown{}, err
		}
	}

	total, err := DocumentTotal(base, vat, wQuota)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Base:             base,
		VATRate:          vatRate,
		VATQuota:         vat,
		WithholdingRate:  wRate,
		WithholdingQuota: wQuota,
		Total:            total,
	}, nil
}
