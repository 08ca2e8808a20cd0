// Package paper is a DRY_RUN broker: synthetic candles, an in-memory
// balance and simulated order ids.
package paper

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"sync"
	"time"

	"binary-options-assistant/internal/catalog"
	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

// AssetSet reports whether a symbol is tradable.
type AssetSet interface {
	Contains(symbol string) bool
}

type Params struct {
	StartingBalance decimal.Decimal
	Seed            int64
	Assets          AssetSet
	Now             func() time.Time
}

// history window generated per raw resolution
var windows = map[int64]time.Duration{
	1:    2 * time.Hour,
	60:   48 * time.Hour,
	3600: 30 * 24 * time.Hour,
}

const defaultWindowSamples = 1000

type Broker struct {
	p Params

	mu      sync.Mutex
	balance decimal.Decimal
	orders  int
}

var _ interfaces.Broker = (*Broker)(nil)

func New(p Params) *Broker {
	if p.Now == nil {
		p.Now = time.Now
	}
	return &Broker{p: p, balance: p.StartingBalance}
}

func (b *Broker) Start(ctx context.Context) error {
	logger.Info(ctx, "Paper broker ready", "balance", b.balance.String())
	return nil
}

func (b *Broker) Stop(ctx context.Context) {}

// History returns a deterministic random walk, ascending in time, whose last
// sample starts in the current resolution slot.
func (b *Broker) History(ctx context.Context, asset string, resolutionSeconds int64) ([]types.RawCandle, error) {
	if resolutionSeconds <= 0 {
		return nil, fmt.Errorf("invalid resolution %d", resolutionSeconds)
	}
	if b.p.Assets != nil && !b.p.Assets.Contains(asset) {
		return nil, fmt.Errorf("%w: %s", catalog.ErrUnknownAsset, asset)
	}

	n := defaultWindowSamples
	if w, ok := windows[resolutionSeconds]; ok {
		n = int(w / (time.Duration(resolutionSeconds) * time.Second))
	}

	res := resolutionSeconds
	nowSec := b.p.Now().UTC().Unix()
	last := nowSec - ((nowSec%res)+res)%res
	first := last - int64(n-1)*res

	rng := rand.New(rand.NewSource(b.seedFor(asset, resolutionSeconds)))
	price := 1 + rng.Float64()*100

	out := make([]types.RawCandle, 0, n)
	for i := 0; i < n; i++ {
		ts := time.Unix(first+int64(i)*res, 0).UTC()
		open := price
		step := (rng.Float64() - 0.5) * price * 0.002
		closePx := open + step
		high := max(open, closePx) + rng.Float64()*price*0.001
		low := min(open, closePx) - rng.Float64()*price*0.001
		price = closePx

		out = append(out, types.RawCandle{
			Time:  ts.Format("2006-01-02T15:04:05Z"),
			Open:  decimal.NewFromFloat(open).Round(5),
			High:  decimal.NewFromFloat(high).Round(5),
			Low:   decimal.NewFromFloat(low).Round(5),
			Close: decimal.NewFromFloat(closePx).Round(5),
		})
	}
	return out, nil
}

func (b *Broker) seedFor(asset string, resolution int64) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(asset))
	return b.p.Seed ^ int64(h.Sum64()) ^ resolution
}

func (b *Broker) Balance(ctx context.Context) (decimal.Decimal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

// PlaceOrder checks the order the way the live venue would and deducts the
// stake. Positions are never settled.
func (b *Broker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	if !req.Direction.Valid() {
		return types.OrderResp{}, types.NewTradeError(fmt.Sprintf("invalid direction '%s'", req.Direction))
	}
	if b.p.Assets != nil && !b.p.Assets.Contains(req.Asset) {
		return types.OrderResp{}, types.NewTradeError("invalid asset")
	}
	if req.DurationSeconds <= 0 {
		return types.OrderResp{}, types.NewTradeError("invalid duration")
	}
	if !req.Amount.IsPositive() {
		return types.OrderResp{}, types.NewTradeError("amount must be positive")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if req.Amount.GreaterThan(b.balance) {
		return types.OrderResp{}, types.NewTradeError("insufficient funds")
	}
	b.balance = b.balance.Sub(req.Amount)
	b.orders++

	resp := types.OrderResp{
		OrderID: fmt.Sprintf("SIM-%d-%d", b.p.Now().UnixNano(), b.orders),
		Status:  "SIMULATED",
		Message: "dry-run",
	}
	logger.Info(ctx, "Simulated order placed",
		"asset", req.Asset,
		"direction", string(req.Direction),
		"amount", req.Amount.String(),
		"duration_seconds", req.DurationSeconds,
		"order_id", resp.OrderID,
	)
	return resp, nil
}
