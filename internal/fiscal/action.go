package fiscal

import "github.com/shopspring/decimal"

// Action is how a declaration result must be settled.
type Action string

const (
	ActionToPay      Action = "TO_PAY"
	ActionToOffset   Action = "TO_OFFSET"
	ActionNoActivity Action = "NO_ACTIVITY"
)

// ActionFor interprets the sign of a declaration result.
func ActionFor(result decimal.Decimal) Action {
	switch result.Sign() {
	case 1:
		return ActionToPay
	case -1:
		return ActionToOffset
	default:
		return ActionNoActivity
	}
}
