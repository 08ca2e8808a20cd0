package ta

import (
	"testing"
	"time"

	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decs(vals ...int64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(vals))
	for i, v := range vals {
		out[i] = decimal.NewFromInt(v)
	}
	return out
}

func TestSMA(t *testing.T) {
	v := SMA(decs(1, 2, 3, 4, 5, 6), 5)
	require.NotNil(t, v)
	assert.True(t, v.Equal(decimal.NewFromInt(4)))

	assert.Nil(t, SMA(decs(1, 2), 5))
	assert.Nil(t, SMA(decs(1, 2), 0))
}

func TestRSI(t *testing.T) {
	up := RSI(decs(1, 2, 3, 4), 3)
	require.NotNil(t, up)
	assert.True(t, up.Equal(decimal.NewFromInt(100)))

	// gains 2, losses 2 -> 50
	even := RSI(decs(10, 12, 10), 2)
	require.NotNil(t, even)
	assert.True(t, even.Equal(decimal.NewFromInt(50)), even.String())

	assert.Nil(t, RSI(decs(1, 2), 2))
}

func TestATR(t *testing.T) {
	highs := decs(10, 12, 11)
	lows := decs(8, 9, 7)
	closes := decs(9, 11, 8)
	// true ranges: max(3, 3, 0)=3 ; max(4, 0, 4)=4
	v := ATR(highs, lows, closes, 2)
	require.NotNil(t, v)
	assert.True(t, v.Equal(decimal.RequireFromString("3.5")), v.String())

	assert.Nil(t, ATR(highs, lows[:2], closes, 2))
	assert.Nil(t, ATR(highs, lows, closes, 3))
}

func TestSummarizeSkipsFormingBucket(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var aggs []types.AggregatedCandle
	// newest first; the forming bucket closes at 1000 and must not count
	aggs = append(aggs, types.AggregatedCandle{Start: base.Add(6 * time.Minute), Open: decimal.NewFromInt(1000), High: decimal.NewFromInt(1000), Low: decimal.NewFromInt(1000), Close: decimal.NewFromInt(1000)})
	for i := 5; i >= 0; i-- {
		c := decimal.NewFromInt(int64(i + 1))
		aggs = append(aggs, types.AggregatedCandle{Start: base.Add(time.Duration(i) * time.Minute), Open: c, High: c, Low: c, Close: c})
	}

	s := Summarize(aggs)
	require.NotNil(t, s.SMA)
	// closed closes ascending 1..6, last five average to 4
	assert.True(t, s.SMA.Equal(decimal.NewFromInt(4)), s.SMA.String())
	assert.Nil(t, s.RSI)
	assert.Nil(t, s.ATR)

	assert.Equal(t, Summary{}, Summarize(aggs[:1]))
}
