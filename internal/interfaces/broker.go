package interfaces

import (
	"context"

	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

// Broker is the remote account the assistant trades through.
type Broker interface {
	// History returns raw candles sampled every resolutionSeconds. Order is
	// not guaranteed.
	History(ctx context.Context, asset string, resolutionSeconds int64) ([]types.RawCandle, error)

	// Balance returns the current account balance.
	Balance(ctx context.Context) (decimal.Decimal, error)

	// PlaceOrder opens a fixed-duration position. Rejections are *types.TradeError.
	PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error)

	// Start connects and authenticates.
	Start(ctx context.Context) error

	// Stop closes the connection.
	Stop(ctx context.Context)
}
