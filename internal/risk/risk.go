// Package risk scores how exposed a freelancer is to being reclassified as
// an economically dependent worker (TRADE) or to an audit.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/autonomo/api/internal/fiscal"
)

// Tier buckets a score.
type Tier string

const (
	TierLow      Tier = "LOW"
	TierMedium   Tier = "MEDIUM"
	TierHigh     Tier = "HIGH"
	TierCritical Tier = "CRITICAL"
)

// Factor names.
const (
	FactorClientDependency       = "client_dependency"
	FactorSevereClientDependency = "severe_client_dependency"
	FactorMissingIndependence    = "missing_independence_expenses"
	FactorHighRiskExpenses       = "high_risk_expenses"
)

// Scoring thresholds and weights. Thresholds are client dependency
// percentages.
const (
	DependencyThreshold       = 75
	SevereDependencyThreshold = 85
	DependencyPoints          = 40
	SevereDependencyPoints    = 20
	MissingIndependencePoints = 30
	HighRiskExpensePoints     = 5
)

var maxDependency = decimal.NewFromInt(100)

// Input describes the freelancer's current situation.
type Input struct {
	// ClientDependency is the share of billing coming from the largest
	// client, as a percentage between 0 and 100.
	ClientDependency decimal.Decimal `json:"client_dependency"`
	// IndependenceExpenses reports whether the mandatory economic
	// independence expense categories were recorded this month.
	IndependenceExpenses bool `json:"independence_expenses"`
	// HighRiskExpenses counts expenses flagged this year.
	HighRiskExpenses int `json:"high_risk_expenses"`
}

// Factor is one contribution to a score.
type Factor struct {
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Description string `json:"description"`
}

// Score is the additive result of every triggered factor.
type Score struct {
	Points  int      `json:"points"`
	Tier    Tier     `json:"tier"`
	Factors []Factor `json:"factors"`
}

// Evaluate scores in.
func Evaluate(in Input) (Score, error) {
	if in.ClientDependency.IsNegative() || in.ClientDependency.GreaterThan(maxDependency) {
		return Score{}, fiscal.NewFieldError("client_dependency", in.ClientDependency, fiscal.ErrInvalidAmount)
	}
	if in.HighRiskExpenses < 0 {
		return Score{}, fiscal.NewFieldError("high_risk_expenses", in.HighRiskExpenses, fiscal.ErrInvalidAmount)
	}

	factors := make([]Factor, 0, 4)
	if in.ClientDependency.GreaterThanOrEqual(decimal.NewFromInt(DependencyThreshold)) {
		factors = append(factors, Factor{
			Name:        FactorClientDependency,
			Points:      DependencyPoints,
			Description: fmt.Sprintf("%s%% of billing comes from a single client", in.ClientDependency.StringFixed(2)),
		})
	}
	if in.ClientDependency.GreaterThanOrEqual(decimal.NewFromInt(SevereDependencyThreshold)) {
		factors = append(factors, Factor{
			Name:        FactorSevereClientDependency,
			Points:      SevereDependencyPoints,
			Description: fmt.Sprintf("dependency at or above %d%%", SevereDependencyThreshold),
		})
	}
	if !in.IndependenceExpenses {
		factors = append(factors, Factor{
			Name:        FactorMissingIndependence,
			Points:      MissingIndependencePoints,
			Description: "no economic independence expenses recorded this month",
		})
	}
	if in.HighRiskExpenses > 0 {
		factors = append(factors, Factor{
			Name:        FactorHighRiskExpenses,
			Points:      HighRiskExpensePoints * in.HighRiskExpenses,
			Description: fmt.Sprintf("%d high-risk expenses flagged this year", in.HighRiskExpenses),
		})
	}

	points := 0
	for _, f := range factors {
		points += f.Points
	}
	return Score{Points: points, Tier: TierFor(points), Factors: factors}, nil
}

// TierFor buckets points.
func TierFor(points int) Tier {
	switch {
	case points < 25:
		return TierLow
	case points < 50:
		return TierMedium
	case points < 75:
		return TierHigh
	default:
		return TierCritical
	}
}
