// Package declaration shapes aggregated and accumulated sums into the box
// sets of the quarterly and annual tax forms.
//
// Builders assume their amounts were validated upstream and never re-check
// them. Annual builders only verify that the quarterly box sets they
// aggregate belong to distinct quarters of the requested year.
package declaration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

// Model303Input holds the period VAT sums per tier: collected on issued
// invoices and deductible on received ones.
type Model303Input struct {
	Collected  VATBreakdown `json:"collected"`
	Deductible VATBreakdown `json:"deductible"`
}

// Model303 is the quarterly VAT return.
type Model303 struct {
	Period              fiscal.Period   `json:"period"`
	Collected           VATBreakdown    `json:"collected"`
	Deductible          VATBreakdown    `json:"deductible"`
	TotalCollectedBase  decimal.Decimal `json:"total_collected_base"`
	TotalCollected      decimal.Decimal `json:"total_collected"`
	TotalDeductibleBase decimal.Decimal `json:"total_deductible_base"`
	TotalDeductible     decimal.Decimal `json:"total_deductible"`
	Result              decimal.Decimal `json:"result"`
	Action              fiscal.Action   `json:"action"`
	DueDate             time.Time       `json:"due_date"`
	// Mismatches lists tiers whose quota does not match base times rate.
	// They are reported, not corrected: the result uses declared quotas.
	Mismatches          []TierMismatch  `json:"mismatches"`
}

// Build303 builds the VAT return of period p.
func Build303(p fiscal.Period, in Model303Input) Model303 {
	collectedBase, collected := in.Collected.Totals()
	deductibleBase, deductible := in.Deductible.Totals()
	result := collected.Sub(deductible)

	mismatches := make([]TierMismatch, 0)
	mismatches = append(mismatches, in.Collected.mismatches("collected")...)
	mismatches = append(mismatches, in.Deductible.mismatches("deductible")...)

	return Model303{
		Period:              p,
		Collected:           in.Collected,
		Deductible:          in.Deductible,
		TotalCollectedBase:  collectedBase,
		TotalCollected:      collected,
		TotalDeductibleBase: deductibleBase,
		TotalDeductible:     deductible,
		Result:              result,
		Action:              fiscal.ActionFor(result),
		DueDate:             p.DueDate(),
		Mismatches:          mismatches,
	}
}
