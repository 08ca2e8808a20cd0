package engineobs

import (
	"context"
	"time"

	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/trace"
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

type observableEngine struct {
	engine interfaces.Engine
}

var _ interfaces.Engine = (*observableEngine)(nil)

func Wrap(eng interfaces.Engine) interfaces.Engine {
	return &observableEngine{
		engine: eng,
	}
}

func (oe *observableEngine) Snapshot(ctx context.Context, asset string, timeframeSeconds int64) (*types.Snapshot, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Snapshot")
	defer span.End()

	start := time.Now()

	snap, err := oe.engine.Snapshot(ctx, asset, timeframeSeconds)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Snapshot failed", err,
			"asset", asset,
			"timeframe", timeframeSeconds,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	logger.InfoSkip(ctx, 1, "Snapshot built",
		"asset", asset,
		"timeframe", timeframeSeconds,
		"resolution", snap.Resolution,
		"raw_candles", snap.RawCount,
		"buckets", len(snap.Candles),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return snap, nil
}

func (oe *observableEngine) Balance(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := trace.StartSpan(ctx, "engine.Balance")
	defer span.End()

	return oe.engine.Balance(ctx)
}

func (oe *observableEngine) Trade(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	timer := logger.StartOperation(ctx, "engine.Trade",
		"asset", req.Asset,
		"direction", string(req.Direction),
		"amount", req.Amount.String(),
	)

	resp, err := oe.engine.Trade(timer.GetContext(), req)
	if err != nil {
		timer.EndWithError(err)
		return types.OrderResp{}, err
	}

	timer.End("order_id", resp.OrderID)
	return resp, nil
}
