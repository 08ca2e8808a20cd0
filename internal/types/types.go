package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawCandle is one broker sample at a fixed resolution. Time is kept as the
// broker sent it and parsed during aggregation.
type RawCandle struct {
	Time  string          `json:"time"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

// AggregatedCandle is one bucket of raw candles reduced to OHLC.
type AggregatedCandle struct {
	Start time.Time       `json:"start"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

func (d Direction) Valid() bool { return d == Buy || d == Sell }

type OrderReq struct {
	Asset           string
	Direction       Direction
	Amount          decimal.Decimal
	DurationSeconds int
}

type OrderResp struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Snapshot is what the session shows for one asset/timeframe refresh.
type Snapshot struct {
	Asset      string             `json:"asset"`
	Timeframe  int64              `json:"timeframe"`
	Resolution int64              `json:"resolution"`
	RawCount   int                `json:"raw_count"`
	Candles    []AggregatedCandle `json:"candles"`
}
