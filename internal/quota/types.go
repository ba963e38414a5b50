package quota

import "github.com/shopspring/decimal"

// Tier identifies one of the three VAT rates.
type Tier string

// Spanish VAT tiers.
const (
	TierSuperReduced Tier = "super_reduced"
	TierReduced      Tier = "reduced"
	TierGeneral      Tier = "general"
)

// Tiers lists the VAT tiers from lowest to highest rate.
func Tiers() []Tier {
	return []Tier{TierSuperReduced, TierReduced, TierGeneral}
}

var (
	vatRates = map[Tier]decimal.Decimal{
		TierSuperReduced: decimal.NewFromInt(4),
		TierReduced:      decimal.NewFromInt(10),
		TierGeneral:      decimal.NewFromInt(21),
	}

	// 1 and 2: activities under the module regime; 7: first years of activity;
	// 15: professional activities; 19: rent of business premises.
	withholdingRates = []decimal.Decimal{
		decimal.NewFromInt(1),
		decimal.NewFromInt(2),
		decimal.NewFromInt(7),
		decimal.NewFromInt(15),
		decimal.NewFromInt(19),
	}
)

// VATRate returns the rate of a tier.
func VATRate(t Tier) (decimal.Decimal, bool) {
	r, ok := vatRates[t]
	return r, ok
}

// VATTierFor maps a rate percentage back to its tier.
func VATTierFor(rate decimal.Decimal) (Tier, bool) {
	for _, t := range Tiers() {
		if vatRates[t].Equal(rate) {
			return t, true
		}
	}
	return "", false
}

// WithholdingRates returns the permitted withholding percentages.
func WithholdingRates() []decimal.Decimal {
	out := make([]decimal.Decimal, len(withholdingRates))
	copy(out, withholdingRates)
	return out
}

func isWithholdingRate(rate decimal.Decimal) bool {
	for _, r := range withholdingRates {
		if r.Equal(rate) {
			return true
		}
	}
	return false
}

// Breakdown holds the computed figures of a single-base invoice.
type Breakdown struct {
	Base             decimal.Decimal `json:"base"`
	VATRate          decimal.Decimal `json:"vat_rate"`
	VATQuota         decimal.Decimal `json:"vat_quota"`
	WithholdingRate  decimal.Decimal `json:"withholding_rate"`
	WithholdingQuota decimal.Decimal `json:"withholding_quota"`
	Total            decimal.Decimal `json:"total"`
}
