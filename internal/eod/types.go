package eod

import "github.com/shopspring/decimal"

// aggRow is one asset's totals for the day.
type aggRow struct {
	Asset      string
	BuyCount   int
	BuyAmount  decimal.Decimal
	SellCount  int
	SellAmount decimal.Decimal
	Rejected   int
}
