package declaration

import (
	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
	"github.com/autonomo/api/internal/quota"
)

// Model identifies a declaration form.
type Model string

const (
	Model303Code Model = "303"
	Model130Code Model = "130"
	Model115Code Model = "115"
	Model180Code Model = "180"
	Model390Code Model = "390"
)

// Annual reports whether the model summarizes a whole year.
func (m Model) Annual() bool {
	return m == Model180Code || m == Model390Code
}

// Valid reports whether m is a known model.
func (m Model) Valid() bool {
	switch m {
	case Model303Code, Model130Code, Model115Code, Model180Code, Model390Code:
		return true
	}
	return false
}

// ReconciliationTolerance bounds the drift between an annual figure
// recomputed from bases and the sum of the quarterly results.
func ReconciliationTolerance() decimal.Decimal {
	return decimal.New(2, -2)
}

// TierAmounts is the taxable base and quota of one VAT tier.
type TierAmounts struct {
	Base  decimal.Decimal `json:"base"`
	Quota decimal.Decimal `json:"quota"`
}

// VATBreakdown splits VAT figures across the three tiers.
type VATBreakdown struct {
	SuperReduced TierAmounts `json:"super_reduced"`
	Reduced      TierAmounts `json:"reduced"`
	General      TierAmounts `json:"general"`
}

// Tier returns the amounts of tier t.
func (b VATBreakdown) Tier(t quota.Tier) TierAmounts {
	switch t {
	case quota.TierSuperReduced:
		return b.SuperReduced
	case quota.TierReduced:
		return b.Reduced
	default:
		return b.General
	}
}

// Totals returns the summed base and quota across tiers.
func (b VATBreakdown) Totals() (base, quota decimal.Decimal) {
	base = fiscal.Sum(b.SuperReduced.Base, b.Reduced.Base, b.General.Base)
	quota = fiscal.Sum(b.SuperReduced.Quota, b.Reduced.Quota, b.General.Quota)
	return base, quota
}

// Add returns the tier-wise sum of b and o.
func (b VATBreakdown) Add(o VATBreakdown) VATBreakdown {
	return VATBreakdown{
		SuperReduced: b.SuperReduced.add(o.SuperReduced),
		Reduced:      b.Reduced.add(o.Reduced),
		General:      b.General.add(o.General),
	}
}

// recomputedQuota applies each tier rate to its base and sums the results.
func (b VATBreakdown) recomputedQuota() decimal.Decimal {
	total := decimal.Zero
	for _, t := range quota.Tiers() {
		rate, _ := quota.VATRate(t)
		total = total.Add(fiscal.Percent(b.Tier(t).Base, rate))
	}
	return total
}

// TierMismatch is a tier whose declared quota drifts from its base times the
// tier rate by more than ReconciliationTolerance.
type TierMismatch struct {
	Section  string          `json:"section"` // collected or deductible
	Tier     quota.Tier      `json:"tier"`
	Expected decimal.Decimal `json:"expected"`
	Declared decimal.Decimal `json:"declared"`
}

// mismatches checks every tier quota against its base.
func (b VATBreakdown) mismatches(section string) []TierMismatch {
	var out []TierMismatch
	for _, t := range quota.Tiers() {
		rate, _ := quota.VATRate(t)
		amt := b.Tier(t)
		want := fiscal.Percent(amt.Base, rate)
		if !fiscal.WithinTolerance(amt.Quota, want, ReconciliationTolerance()) {
			out = append(out, TierMismatch{Section: section, Tier: t, Expected: want, Declared: amt.Quota})
		}
	}
	return out
}

func (a TierAmounts) add(o TierAmounts) TierAmounts {
	return TierAmounts{Base: a.Base.Add(o.Base), Quota: a.Quota.Add(o.Quota)}
}

// Reconciliation compares an annual figure with the sum of its quarters.
type Reconciliation struct {
	Annual       decimal.Decimal `json:"annual"`
	QuarterlySum decimal.Decimal `json:"quarterly_sum"`
	Difference   decimal.Decimal `json:"difference"`
	Reconciled   bool            `json:"reconciled"`
}

func reconcile(annual, quarterlySum decimal.Decimal) Reconciliation {
	diff := annual.Sub(quarterlySum)
	return Reconciliation{
		Annual:       annual,
		QuarterlySum: quarterlySum,
		Difference:   diff,
		Reconciled:   diff.Abs().LessThanOrEqual(ReconciliationTolerance()),
	}
}
