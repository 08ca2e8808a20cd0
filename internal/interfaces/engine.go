package interfaces

import (
	"context"

	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

type Engine interface {
	Snapshot(ctx context.Context, asset string, timeframeSeconds int64) (*types.Snapshot, error)
	Balance(ctx context.Context) (decimal.Decimal, error)
	Trade(ctx context.Context, req types.OrderReq) (types.OrderResp, error)
}
