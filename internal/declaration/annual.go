package declaration

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

// Model180 is the annual summary of rental withholding.
type Model180 struct {
	Year           int             `json:"year"`
	Quarters       []int           `json:"quarters"`
	Payees         int             `json:"payees"`
	PayeeIDs       []string        `json:"payee_ids"`
	Base           decimal.Decimal `json:"base"`
	Withholding    decimal.Decimal `json:"withholding"`
	Reconciliation Reconciliation  `json:"reconciliation"`
	DueDate        time.Time       `json:"due_date"`
}

// Build180 aggregates the rental-withholding returns of year. The annual
// withholding is recomputed from the summed base and reconciled against
// the quarterly box 03 figures.
func Build180(year int, quarters []Model115) (Model180, error) {
	periods := make([]fiscal.Period, len(quarters))
	for i, q := range quarters {
		periods[i] = q.Period
	}
	covered, err := checkQuarters(year, periods)
	if err != nil {
		return Model180{}, err
	}

	base := decimal.Zero
	quarterly := decimal.Zero
	payees := make(map[string]struct{})
	for _, q := range quarters {
		base = base.Add(q.Base)
		quarterly = quarterly.Add(q.Withholding)
		for _, id := range q.PayeeIDs {
			payees[id] = struct{}{}
		}
	}
	annual := fiscal.Percent(base, RentalWithholdingRate())

	return Model180{
		Year:           year,
		Quarters:       covered,
		Payees:         len(payees),
		PayeeIDs:       sortedKeys(payees),
		Base:           base,
		Withholding:    annual,
		Reconciliation: reconcile(annual, quarterly),
		DueDate:        fiscal.AnnualDueDate(year),
	}, nil
}

// Model390 is the annual VAT summary.
type Model390 struct {
	Year                int             `json:"year"`
	Quarters            []int           `json:"quarters"`
	Collected           VATBreakdown    `json:"collected"`
	Deductible          VATBreakdown    `json:"deductible"`
	TotalCollectedBase  decimal.Decimal `json:"total_collected_base"`
	TotalCollected      decimal.Decimal `json:"total_collected"`
	TotalDeductibleBase decimal.Decimal `json:"total_deductible_base"`
	TotalDeductible     decimal.Decimal `json:"total_deductible"`
	Result              decimal.Decimal `json:"result"`
	Action              fiscal.Action   `json:"action"`
	Reconciliation      Reconciliation  `json:"reconciliation"`
	DueDate             time.Time       `json:"due_date"`
}

// Build390 aggregates the VAT returns of year. Tier figures are summed from
// the quarters; the reconciliation recomputes each tier quota from its
// annual base and compares the resulting net against the summed quarterly
// results.
func Build390(year int, quarters []Model303) (Model390, error) {
	periods := make([]fiscal.Period, len(quarters))
	for i, q := range quarters {
		periods[i] = q.Period
	}
	covered, err := checkQuarters(year, periods)
	if err != nil {
		return Model390{}, err
	}

	var collected, deductible VATBreakdown
	quarterly := decimal.Zero
	for _, q := range quarters {
		collected = collected.Add(q.Collected)
		deductible = deductible.Add(q.Deductible)
		quarterly = quarterly.Add(q.Result)
	}

	collectedBase, collectedQuota := collected.Totals()
	deductibleBase, deductibleQuota := deductible.Totals()
	result := collectedQuota.Sub(deductibleQuota)
	annual := collected.recomputedQuota().Sub(deductible.recomputedQuota())

	return Model390{
		Year:                year,
		Quarters:            covered,
		Collected:           collected,
		Deductible:          deductible,
		TotalCollectedBase:  collectedBase,
		TotalCollected:      collectedQuota,
		TotalDeductibleBase: deductibleBase,
		TotalDeductible:     deductibleQuota,
		Result:              result,
		Action:              fiscal.ActionFor(result),
		Reconciliation:      reconcile(annual, quarterly),
		DueDate:             fiscal.AnnualDueDate(year),
	}, nil
}

// checkQuarters verifies that every period belongs to year and that no
// quarter repeats. It returns the covered quarters in ascending order.
func checkQuarters(year int, periods []fiscal.Period) ([]int, error) {
	if err := fiscal.ValidateYear(year); err != nil {
		return nil, err
	}
	if len(periods) > 4 {
		return nil, fiscal.NewFieldError("quarters", len(periods), fiscal.ErrInvalidPeriod)
	}

	var seen [4]bool
	for i, p := range periods {
		field := fmt.Sprintf("quarters[%d]", i)
		if p.Year != year || p.Quarter < 1 || p.Quarter > 4 {
			return nil, fiscal.NewFieldError(field, p, fiscal.ErrInvalidPeriod)
		}
		if seen[p.Quarter-1] {
			return nil, fiscal.NewFieldError(field, p, fiscal.ErrInvalidPeriod)
		}
		seen[p.Quarter-1] = true
	}

	covered := make([]int, 0, len(periods))
	for i, ok := range seen {
		if ok {
			covered = append(covered, i+1)
		}
	}
	return covered, nil
}
