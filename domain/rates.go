package domain

import "github.com/shopspring/decimal"

// =============================================================================
// RATE TABLE - Commission rate (percent) by agent type
// =============================================================================

// Commissions are a percent of the standardized monthly installment:
// 0.3% for online agents, 3% for field and direct agents.
var (
	rateOnline   = MustDecimal("0.3")
	rateStandard = MustDecimal("3")
)

// RateFor returns the commission rate (as a percentage) for an agent type.
// Unrecognized types fall back to the custom override when present, else
// the standard field rate.
func RateFor(t AgentType, custom *decimal.Decimal) decimal.Decimal {
	switch t {
	case AgentOnline:
		return rateOnline
	case AgentField, AgentDirect:
		return rateStandard
	default:
		if custom != nil {
			return *custom
		}
		return rateStandard
	}
}

// AgentRate is RateFor applied to an agent record.
func AgentRate(a *Agent) decimal.Decimal {
	return RateFor(a.Type, a.CommissionRate)
}
