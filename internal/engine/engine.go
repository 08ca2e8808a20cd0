package engine

import (
	"context"
	"errors"
	"fmt"

	"binary-options-assistant/internal/candles"
	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/store"
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

type engine struct {
	broker interfaces.Broker
	risk   *riskManager
	exec   *orderExecutor
}

var _ interfaces.Engine = (*engine)(nil)

func newEngine(cfg *store.Config, brk interfaces.Broker) *engine {
	return &engine{
		broker: brk,
		risk:   newRiskManager(cfg.Risk.MaxStakePct, cfg.MinAmount()),
		exec:   newOrderExecutor(brk, cfg.Mode),
	}
}

// Snapshot fetches raw candles at the resolution the timeframe calls for
// and folds them into timeframe buckets, newest first.
func (e *engine) Snapshot(ctx context.Context, asset string, timeframeSeconds int64) (*types.Snapshot, error) {
	if timeframeSeconds <= 0 {
		return nil, candles.ErrInvalidWidth
	}
	res := candles.RawResolution(timeframeSeconds)

	raw, err := e.broker.History(ctx, asset, res)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}

	aggs, err := candles.Aggregate(raw, timeframeSeconds)
	if err != nil {
		return nil, err
	}

	return &types.Snapshot{
		Asset:      asset,
		Timeframe:  timeframeSeconds,
		Resolution: res,
		RawCount:   len(raw),
		Candles:    aggs,
	}, nil
}

func (e *engine) Balance(ctx context.Context) (decimal.Decimal, error) {
	return e.broker.Balance(ctx)
}

// Trade runs the pre-trade checks, places the order and journals the result.
// Every refusal comes back as a *types.TradeError.
func (e *engine) Trade(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if reason := e.precheck(req); reason != "" {
		e.exec.journalRejection(ctx, req, reason)
		return types.OrderResp{}, types.NewTradeError(reason)
	}

	if e.risk.maxStakePct.IsPositive() {
		bal, err := e.broker.Balance(ctx)
		if err != nil {
			return types.OrderResp{}, fmt.Errorf("fetch balance: %w", err)
		}
		if exceeded, _ := e.risk.validateTrade(ctx, req.Asset, req.Amount, bal); exceeded {
			reason := fmt.Sprintf("stake exceeds %s%% of balance", e.risk.maxStakePct.String())
			e.exec.journalRejection(ctx, req, reason)
			return types.OrderResp{}, types.NewTradeError(reason)
		}
	}

	resp, err := e.exec.place(ctx, req)
	if err != nil {
		if errors.Is(err, types.ErrTrade) {
			return types.OrderResp{}, err
		}
		return types.OrderResp{}, &types.TradeError{Reason: "order failed", Err: err}
	}
	return resp, nil
}

func (e *engine) precheck(req types.OrderReq) string {
	switch {
	case !req.Direction.Valid():
		return fmt.Sprintf("invalid direction '%s'", req.Direction)
	case !req.Amount.IsPositive():
		return "amount must be positive"
	case e.risk.belowMinimum(req.Amount):
		return fmt.Sprintf("amount below minimum %s", e.risk.minAmount.String())
	case req.DurationSeconds <= 0:
		return "invalid duration"
	}
	return ""
}
