package declaration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
	"github.com/autonomo/api/internal/prepayment"
)

// Model130 is the quarterly income-tax prepayment. Boxes follow the form
// order 01 to 07.
type Model130 struct {
	Period         fiscal.Period   `json:"period"`
	Income         decimal.Decimal `json:"income"`          // 01
	Expense        decimal.Decimal `json:"expense"`         // 02
	NetResult      decimal.Decimal `json:"net_result"`      // 03
	TentativeQuota decimal.Decimal `json:"tentative_quota"` // 04
	PriorPayments  decimal.Decimal `json:"prior_payments"`  // 05
	Withholding    decimal.Decimal `json:"withholding"`     // 06
	Result         decimal.Decimal `json:"result"`          // 07
	Action         fiscal.Action   `json:"action"`
	DueDate        time.Time       `json:"due_date"`
}

// Build130 lays out the accumulation of period p.
func Build130(p fiscal.Period, a prepayment.Accumulation) Model130 {
	return Model130{
		Period:         p,
		Income:         a.Income,
		Expense:        a.Expense,
		NetResult:      a.NetResult,
		TentativeQuota: a.TentativeQuota,
		PriorPayments:  a.PriorPayments,
		Withholding:    a.Withholding,
		Result:         a.Result,
		Action:         fiscal.ActionFor(a.Result),
		DueDate:        p.DueDate(),
	}
}

// Boxes returns the box values in form order.
func (m Model130) Boxes() []decimal.Decimal {
	return []decimal.Decimal{
		m.Income,
		m.Expense,
		m.NetResult,
		m.TentativeQuota,
		m.PriorPayments,
		m.Withholding,
		m.Result,
	}
}
