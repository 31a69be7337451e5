package core

type (
	Plan string

	// QuotaKind names a counted resource.
	QuotaKind string

	PlanLimits struct {
		MaxTransactionsPerMonth int
		MaxGoals                int
	}
)

const (
	PlanFree      Plan = "FREE"
	PlanEssencial Plan = "ESSENCIAL"
	PlanPro       Plan = "PRO"
	PlanElite     Plan = "ELITE"
	PlanUltimate  Plan = "ULTIMATE"

	QuotaTransactions QuotaKind = "transactions"
	QuotaGoals        QuotaKind = "goals"
)

// Unlimited disables a quota.
const Unlimited = -1

var planLimits = map[Plan]PlanLimits{
	PlanFree:      {MaxTransactionsPerMonth: 10, MaxGoals: 2},
	PlanEssencial: {MaxTransactionsPerMonth: 50, MaxGoals: 5},
	PlanPro:       {MaxTransactionsPerMonth: 200, MaxGoals: 15},
	PlanElite:     {MaxTransactionsPerMonth: Unlimited, MaxGoals: Unlimited},
	PlanUltimate:  {MaxTransactionsPerMonth: Unlimited, MaxGoals: Unlimited},
}

// LimitsFor returns the limits of p. Unknown plans get the FREE limits.
func LimitsFor(p Plan) PlanLimits {
	if l, ok := planLimits[p]; ok {
		return l
	}
	return planLimits[PlanFree]
}

// Limit returns the cap for kind and whether the kind is known.
func (l PlanLimits) Limit(kind QuotaKind) (int, bool) {
	switch kind {
	case QuotaTransactions:
		return l.MaxTransactionsPerMonth, true
	case QuotaGoals:
		return l.MaxGoals, true
	default:
		return 0, false
	}
}
