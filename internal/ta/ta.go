// Package ta computes classic indicators over aggregated candles.
package ta

import (
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

const (
	SMAPeriod = 5
	RSIPeriod = 14
	ATRPeriod = 14
)

var hundred = decimal.NewFromInt(100)

// Summary holds indicator values over closed buckets. A nil field means
// there was not enough history.
type Summary struct {
	SMA *decimal.Decimal
	RSI *decimal.Decimal
	ATR *decimal.Decimal
}

// Summarize takes candles newest first, as the aggregator returns them,
// and ignores the still-forming bucket at index 0.
func Summarize(aggs []types.AggregatedCandle) Summary {
	if len(aggs) < 2 {
		return Summary{}
	}
	closed := aggs[1:]
	n := len(closed)
	highs := make([]decimal.Decimal, n)
	lows := make([]decimal.Decimal, n)
	closes := make([]decimal.Decimal, n)
	for i, c := range closed {
		j := n - 1 - i
		highs[j], lows[j], closes[j] = c.High, c.Low, c.Close
	}

	return Summary{
		SMA: SMA(closes, SMAPeriod),
		RSI: RSI(closes, RSIPeriod),
		ATR: ATR(highs, lows, closes, ATRPeriod),
	}
}

// SMA is the mean of the last n values.
func SMA(vals []decimal.Decimal, n int) *decimal.Decimal {
	if len(vals) < n || n <= 0 {
		return nil
	}
	sum := decimal.Zero
	for _, v := range vals[len(vals)-n:] {
		sum = sum.Add(v)
	}
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	return &avg
}

// RSI uses simple averages of the last period gains and losses.
func RSI(closes []decimal.Decimal, period int) *decimal.Decimal {
	if len(closes) < period+1 || period <= 0 {
		return nil
	}
	gain, loss := decimal.Zero, decimal.Zero
	for i := len(closes) - period; i < len(closes); i++ {
		d := closes[i].Sub(closes[i-1])
		if d.IsPositive() {
			gain = gain.Add(d)
		} else {
			loss = loss.Sub(d)
		}
	}
	if loss.IsZero() {
		v := hundred
		return &v
	}
	rs := gain.Div(loss)
	v := hundred.Sub(hundred.Div(decimal.NewFromInt(1).Add(rs)))
	return &v
}

// ATR averages the true range over the last period candles.
func ATR(highs, lows, closes []decimal.Decimal, period int) *decimal.Decimal {
	if len(highs) != len(lows) || len(lows) != len(closes) {
		return nil
	}
	if len(closes) < period+1 || period <= 0 {
		return nil
	}
	sum := decimal.Zero
	for i := len(closes) - period; i < len(closes); i++ {
		tr := highs[i].Sub(lows[i])
		tr = decimal.Max(tr, highs[i].Sub(closes[i-1]).Abs())
		tr = decimal.Max(tr, lows[i].Sub(closes[i-1]).Abs())
		sum = sum.Add(tr)
	}
	avg := sum.Div(decimal.NewFromInt(int64(period)))
	return &avg
}
