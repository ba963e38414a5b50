package socialsecurity

import "github.com/shopspring/decimal"

// Bracket is one row of the self-employed contribution scale. Income ranges
// are half-open: From <= income < To. The last bracket has no upper bound.
type Bracket struct {
	Number  int              `json:"number"`
	From    decimal.Decimal  `json:"from"`
	To      *decimal.Decimal `json:"to,omitempty"`
	MinBase decimal.Decimal  `json:"min_base"`
	MaxBase decimal.Decimal  `json:"max_base"`
	Reduced bool             `json:"reduced"`
}

type bracketRow struct {
	from, to, minBase, maxBase string
	reduced                    bool
}

// Monthly net income scale, three reduced brackets then twelve general ones.
var scale = [...]bracketRow{
	{"0", "670", "653.59", "718.94", true},
	{"670", "900", "718.95", "900", true},
	{"900", "1166.70", "849.67", "1166.70", true},
	{"1166.70", "1300", "950.98", "1300", false},
	{"1300", "1500", "960.78", "1500", false},
	{"1500", "1700", "960.78", "1700", false},
	{"1700", "1850", "1143.79", "1850", false},
	{"1850", "2030", "1209.15", "2030", false},
	{"2030", "2330", "1274.51", "2330", false},
	{"2330", "2760", "1356.21", "2760", false},
	{"2760", "3190", "1437.91", "3190", false},
	{"3190", "3620", "1519.61", "3620", false},
	{"3620", "4050", "1601.31", "4050", false},
	{"4050", "6000", "1732.03", "4720.50", false},
	{"6000", "", "1928.10", "4720.50", false},
}

var brackets = buildBrackets()

func buildBrackets() []Bracket {
	out := make([]Bracket, len(scale))
	for i, r := range scale {
		b := Bracket{
			Number:  i + 1,
			From:    decimal.RequireFromString(r.from),
			MinBase: decimal.RequireFromString(r.minBase),
			MaxBase: decimal.RequireFromString(r.maxBase),
			Reduced: r.reduced,
		}
		if r.to != "" {
			to := decimal.RequireFromString(r.to)
			b.To = &to
		}
		out[i] = b
	}
	return out
}

// Brackets returns a copy of the contribution scale.
func Brackets() []Bracket {
	out := make([]Bracket, len(brackets))
	for i, b := range brackets {
		out[i] = b.clone()
	}
	return out
}

// BracketFor returns the bracket whose range contains monthlyNetIncome.
// Negative incomes fall in the first bracket.
func BracketFor(monthlyNetIncome decimal.Decimal) Bracket {
	for _, b := range brackets {
		if b.To == nil || monthlyNetIncome.LessThan(*b.To) {
			return b.clone()
		}
	}
	return brackets[len(brackets)-1].clone()
}

// Contains reports whether income falls within the bracket range.
func (b Bracket) Contains(income decimal.Decimal) bool {
	if income.LessThan(b.From) {
		return false
	}
	return b.To == nil || income.LessThan(*b.To)
}

func (b Bracket) clone() Bracket {
	if b.To != nil {
		to := *b.To
		b.To = &to
	}
	return b
}
