package engine

import (
	"context"
	"errors"

	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/tradelog"
	"binary-options-assistant/internal/types"
)

// orderExecutor handles order placement and trade journaling.
type orderExecutor struct {
	broker interfaces.Broker
	mode   string
}

func newOrderExecutor(broker interfaces.Broker, mode string) *orderExecutor {
	return &orderExecutor{broker: broker, mode: mode}
}

// place sends req to the broker and journals the outcome. Broker errors
// that are not already trade rejections are returned unchanged.
func (oe *orderExecutor) place(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	resp, err := oe.broker.PlaceOrder(ctx, req)
	if err != nil {
		var te *types.TradeError
		if errors.As(err, &te) {
			oe.journalRejection(ctx, req, te.Reason)
		} else {
			oe.journalRejection(ctx, req, err.Error())
		}
		return types.OrderResp{}, err
	}

	logger.Trade(ctx, req.Asset, string(req.Direction), req.Amount.String(), req.DurationSeconds, resp.OrderID,
		"status", resp.Status,
		"mode", oe.mode,
	)

	if err := tradelog.Append(tradelog.Entry{
		Asset:           req.Asset,
		Direction:       string(req.Direction),
		Amount:          req.Amount.String(),
		DurationSeconds: req.DurationSeconds,
		OrderID:         resp.OrderID,
		Status:          tradelog.StatusPlaced,
		Mode:            oe.mode,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal trade", err, "order_id", resp.OrderID)
	}
	return resp, nil
}

func (oe *orderExecutor) journalRejection(ctx context.Context, req types.OrderReq, reason string) {
	if err := tradelog.Append(tradelog.Entry{
		Asset:           req.Asset,
		Direction:       string(req.Direction),
		Amount:          req.Amount.String(),
		DurationSeconds: req.DurationSeconds,
		Status:          tradelog.StatusRejected,
		Reason:          reason,
		Mode:            oe.mode,
	}); err != nil {
		logger.ErrorWithErr(ctx, "Failed to journal rejected trade", err, "asset", req.Asset)
	}
}
