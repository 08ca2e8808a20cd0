package engine

import (
	"context"

	"binary-options-assistant/internal/logger"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// riskManager caps a single stake at a percentage of the live balance.
type riskManager struct {
	maxStakePct decimal.Decimal
	minAmount   decimal.Decimal
}

func newRiskManager(maxStakePct float64, minAmount decimal.Decimal) *riskManager {
	return &riskManager{
		maxStakePct: decimal.NewFromFloat(maxStakePct),
		minAmount:   minAmount,
	}
}

// belowMinimum reports whether amount is under the configured floor.
func (rm *riskManager) belowMinimum(amount decimal.Decimal) bool {
	return rm.minAmount.IsPositive() && amount.LessThan(rm.minAmount)
}

// validateTrade reports whether amount exceeds the stake cap for the given
// account balance, and the stake as a percentage of that balance.
func (rm *riskManager) validateTrade(ctx context.Context, asset string, amount, balance decimal.Decimal) (exceeded bool, stakePct decimal.Decimal) {
	if !rm.maxStakePct.IsPositive() {
		return false, decimal.Zero
	}
	if !balance.IsPositive() {
		logger.Risk(ctx, asset, "TRADE_BLOCKED_NO_BALANCE",
			"amount", amount.String(),
			"balance", balance.String(),
		)
		return true, decimal.Zero
	}

	stakePct = amount.Div(balance).Mul(hundred)
	exceeded = stakePct.GreaterThan(rm.maxStakePct)

	if exceeded {
		logger.Risk(ctx, asset, "TRADE_BLOCKED_RISK_CAP",
			"amount", amount.String(),
			"stake_pct", stakePct.StringFixed(2),
			"risk_limit_pct", rm.maxStakePct.String(),
			"balance", balance.String(),
		)
	}
	return exceeded, stakePct
}
