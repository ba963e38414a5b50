package declaration

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

const rentalWithholdingPercent = 19

// RentalWithholdingRate is the withholding on business premises rent.
func RentalWithholdingRate() decimal.Decimal {
	return decimal.NewFromInt(rentalWithholdingPercent)
}

// RentalPayment is one rent invoice paid in the period.
type RentalPayment struct {
	PayeeID string          `json:"payee_id"`
	Base    decimal.Decimal `json:"base"`
}

// Model115Input holds the rent paid in a period. Correction is the amount
// already paid by the filing an amended return replaces.
type Model115Input struct {
	Payments   []RentalPayment `json:"payments"`
	Correction decimal.Decimal `json:"correction"`
}

// Model115 is the quarterly rental-withholding return.
type Model115 struct {
	Period      fiscal.Period   `json:"period"`
	Payees      int             `json:"payees"`      // 01
	Base        decimal.Decimal `json:"base"`        // 02
	Withholding decimal.Decimal `json:"withholding"` // 03
	Correction  decimal.Decimal `json:"correction"`  // 04
	Result      decimal.Decimal `json:"result"`      // 05
	Action      fiscal.Action   `json:"action"`
	PayeeIDs    []string        `json:"payee_ids"`
	DueDate     time.Time       `json:"due_date"`
}

// Build115 builds the rental-withholding return of period p.
func Build115(p fiscal.Period, in Model115Input) Model115 {
	base := decimal.Zero
	payees := make(map[string]struct{})
	for _, pay := range in.Payments {
		base = base.Add(pay.Base)
		payees[pay.PayeeID] = struct{}{}
	}

	withholding := fiscal.Percent(base, RentalWithholdingRate())
	result := withholding.Sub(in.Correction)

	return Model115{
		Period:      p,
		Payees:      len(payees),
		Base:        base,
		Withholding: withholding,
		Correction:  in.Correction,
		Result:      result,
		Action:      fiscal.ActionFor(result),
		PayeeIDs:    sortedKeys(payees),
		DueDate:     p.DueDate(),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
