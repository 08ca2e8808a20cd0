package brokerobs

import (
	"context"
	"fmt"

	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/trace"
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

// observableBroker wraps a Broker with observability (logging & tracing)
type observableBroker struct {
	broker interfaces.Broker
	name   string
}

var _ interfaces.Broker = (*observableBroker)(nil)

// Wrap wraps a broker with observability middleware
func Wrap(broker interfaces.Broker, name string) interfaces.Broker {
	return &observableBroker{broker: broker, name: name}
}

func (ob *observableBroker) History(ctx context.Context, asset string, resolutionSeconds int64) ([]types.RawCandle, error) {
	ctx, span := trace.StartSpan(ctx, "broker.History")
	defer span.End()

	logger.DebugSkip(ctx, 1, "Fetching candle history", "broker", ob.name, "asset", asset, "resolution", resolutionSeconds)

	raw, err := ob.broker.History(ctx, asset, resolutionSeconds)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch candle history", err, "broker", ob.name, "asset", asset, "resolution", resolutionSeconds)
		return nil, err
	}

	logger.DebugSkip(ctx, 1, "Candle history fetched", "asset", asset, "count", len(raw))
	return raw, nil
}

func (ob *observableBroker) Balance(ctx context.Context) (decimal.Decimal, error) {
	ctx, span := trace.StartSpan(ctx, "broker.Balance")
	defer span.End()

	bal, err := ob.broker.Balance(ctx)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to fetch balance", err, "broker", ob.name)
		return decimal.Zero, err
	}

	logger.DebugSkip(ctx, 1, "Balance fetched", "broker", ob.name, "balance", bal.String())
	return bal, nil
}

// PlaceOrder places an order with observability
func (ob *observableBroker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	ctx, span := trace.StartSpan(ctx, "broker.PlaceOrder")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Placing order",
		"broker", ob.name,
		"asset", req.Asset,
		"direction", string(req.Direction),
		"amount", req.Amount.String(),
		"duration_seconds", req.DurationSeconds,
	)

	resp, err := ob.broker.PlaceOrder(ctx, req)
	if err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to place order", err,
			"asset", req.Asset,
			"direction", string(req.Direction),
			"amount", req.Amount.String(),
		)
		return types.OrderResp{}, err
	}

	logger.InfoSkip(ctx, 1, "Order placed successfully",
		"asset", req.Asset,
		"order_id", resp.OrderID,
		"status", resp.Status,
	)
	return resp, nil
}

// Start initializes the broker with observability
func (ob *observableBroker) Start(ctx context.Context) error {
	ctx, span := trace.StartSpan(ctx, "broker.Start")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Starting broker", "broker", ob.name)

	if err := ob.broker.Start(ctx); err != nil {
		logger.ErrorWithErrSkip(ctx, 1, "Failed to start broker", err, "broker", ob.name)
		return fmt.Errorf("broker start failed: %w", err)
	}

	logger.InfoSkip(ctx, 1, "Broker started successfully", "broker", ob.name)
	return nil
}

// Stop shuts down the broker with observability
func (ob *observableBroker) Stop(ctx context.Context) {
	ctx, span := trace.StartSpan(ctx, "broker.Stop")
	defer span.End()

	logger.InfoSkip(ctx, 1, "Stopping broker", "broker", ob.name)
	ob.broker.Stop(ctx)
}
