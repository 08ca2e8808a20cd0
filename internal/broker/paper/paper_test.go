package paper

import (
	"context"
	"testing"
	"time"

	"binary-options-assistant/internal/candles"
	"binary-options-assistant/internal/catalog"
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBroker(t *testing.T) *Broker {
	t.Helper()
	cat, err := catalog.New([]string{"EURUSD_otc", "BTCUSD"})
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC)
	return New(Params{
		StartingBalance: decimal.NewFromInt(100),
		Seed:            7,
		Assets:          cat,
		Now:             func() time.Time { return now },
	})
}

func TestHistoryIsAscendingAndAligned(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	for _, res := range []int64{1, 60, 3600} {
		raw, err := b.History(ctx, "EURUSD_otc", res)
		require.NoError(t, err)
		require.NotEmpty(t, raw)

		var prev time.Time
		for i, c := range raw {
			ts, err := candles.ParseTime(c.Time)
			require.NoError(t, err)
			assert.Zero(t, ts.Unix()%res)
			if i > 0 {
				assert.Equal(t, time.Duration(res)*time.Second, ts.Sub(prev))
			}
			prev = ts
			assert.True(t, c.Low.LessThanOrEqual(c.Open) && c.Open.LessThanOrEqual(c.High))
			assert.True(t, c.Low.LessThanOrEqual(c.Close) && c.Close.LessThanOrEqual(c.High))
		}
		assert.False(t, prev.After(time.Date(2024, 1, 1, 12, 30, 45, 0, time.UTC)))
	}
}

func TestHistoryIsDeterministic(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	first, err := b.History(ctx, "BTCUSD", 60)
	require.NoError(t, err)
	second, err := b.History(ctx, "BTCUSD", 60)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHistoryUnknownAsset(t *testing.T) {
	_, err := newTestBroker(t).History(context.Background(), "XYZ", 60)
	assert.ErrorIs(t, err, catalog.ErrUnknownAsset)
}

func TestPlaceOrderDeductsStake(t *testing.T) {
	b := newTestBroker(t)
	ctx := context.Background()

	resp, err := b.PlaceOrder(ctx, types.OrderReq{Asset: "EURUSD_otc", Direction: types.Buy, Amount: decimal.NewFromInt(30), DurationSeconds: 60})
	require.NoError(t, err)
	assert.Equal(t, "SIMULATED", resp.Status)
	assert.Contains(t, resp.OrderID, "SIM-")

	bal, err := b.Balance(ctx)
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(70)))
}

func TestPlaceOrderRejections(t *testing.T) {
	tests := []struct {
		name   string
		req    types.OrderReq
		reason string
	}{
		{"insufficient funds", types.OrderReq{Asset: "EURUSD_otc", Direction: types.Sell, Amount: decimal.NewFromInt(101), DurationSeconds: 60}, "insufficient funds"},
		{"invalid asset", types.OrderReq{Asset: "XYZ", Direction: types.Buy, Amount: decimal.NewFromInt(1), DurationSeconds: 60}, "invalid asset"},
		{"invalid duration", types.OrderReq{Asset: "BTCUSD", Direction: types.Buy, Amount: decimal.NewFromInt(1)}, "invalid duration"},
		{"zero amount", types.OrderReq{Asset: "BTCUSD", Direction: types.Buy, DurationSeconds: 5}, "amount must be positive"},
		{"bad direction", types.OrderReq{Asset: "BTCUSD", Direction: "hold", Amount: decimal.NewFromInt(1), DurationSeconds: 5}, "invalid direction 'hold'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBroker(t)
			_, err := b.PlaceOrder(context.Background(), tt.req)
			require.ErrorIs(t, err, types.ErrTrade)

			var te *types.TradeError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.reason, te.Reason)

			bal, _ := b.Balance(context.Background())
			assert.True(t, bal.Equal(decimal.NewFromInt(100)))
		})
	}
}
