// Package kite adapts the Zerodha Kite Connect REST API to the broker
// contract for exchange-listed instruments.
package kite

import (
	"context"
	"errors"
	"fmt"
	"time"

	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/types"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"golang.org/x/time/rate"
)

var (
	ErrUnsupportedResolution = errors.New("kite: unsupported resolution")
	ErrUnknownInstrument     = errors.New("kite: no instrument token for asset")
	ErrMissingCredentials    = errors.New("kite: missing API key/access token")
)

// historical API allows three requests per second
const historyRPS = 3

var intervals = map[int64]string{
	60:   "minute",
	3600: "60minute",
}

// kiteAPI is the subset of *kiteconnect.Client the broker uses.
type kiteAPI interface {
	GetHistoricalData(instrumentToken int, interval string, fromDate time.Time, toDate time.Time, continuous bool, OI bool) ([]kiteconnect.HistoricalData, error)
	GetUserMargins() (kiteconnect.AllMargins, error)
	PlaceOrder(variety string, orderParams kiteconnect.OrderParams) (kiteconnect.OrderResponse, error)
}

var _ kiteAPI = (*kiteconnect.Client)(nil)

type Params struct {
	APIKey       string
	AccessToken  string
	Exchange     string
	Product      string
	LookbackDays int
	Instruments  map[string]uint32
	Now          func() time.Time
}

type Kite struct {
	p       Params
	api     kiteAPI
	mapper  *instrumentMapper
	limiter *rate.Limiter
}

var _ interfaces.Broker = (*Kite)(nil)

func New(p Params) *Kite {
	var api kiteAPI
	if p.APIKey != "" {
		c := kiteconnect.New(p.APIKey)
		c.SetAccessToken(p.AccessToken)
		api = c
	}
	return newWithAPI(p, api)
}

func newWithAPI(p Params, api kiteAPI) *Kite {
	if p.Now == nil {
		p.Now = time.Now
	}
	if p.LookbackDays <= 0 {
		p.LookbackDays = 5
	}
	return &Kite{
		p:       p,
		api:     api,
		mapper:  newInstrumentMapper(p.Instruments),
		limiter: rate.NewLimiter(rate.Limit(historyRPS), 1),
	}
}

func (k *Kite) Start(ctx context.Context) error {
	if k.api == nil || k.p.AccessToken == "" {
		return ErrMissingCredentials
	}
	logger.Info(ctx, "Kite broker ready", "exchange", k.p.Exchange, "instruments", k.mapper.symbols())
	return nil
}

func (k *Kite) Stop(ctx context.Context) {}

func (k *Kite) History(ctx context.Context, asset string, resolutionSeconds int64) ([]types.RawCandle, error) {
	interval, ok := intervals[resolutionSeconds]
	if !ok {
		return nil, fmt.Errorf("%w: %ds", ErrUnsupportedResolution, resolutionSeconds)
	}
	token, ok := k.mapper.getToken(asset)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstrument, asset)
	}
	if k.api == nil {
		return nil, ErrMissingCredentials
	}

	to := k.p.Now()
	from := to.AddDate(0, 0, -k.p.LookbackDays)

	var data []kiteconnect.HistoricalData
	op := func() error {
		if err := k.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		var err error
		data, err = k.api.GetHistoricalData(int(token), interval, from, to, false, false)
		return err
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, fmt.Errorf("historical data %s: %w", asset, err)
	}

	out := make([]types.RawCandle, 0, len(data))
	for _, d := range data {
		out = append(out, types.RawCandle{
			Time:  d.Date.Time.UTC().Truncate(time.Second).Format("2006-01-02T15:04:05Z"),
			Open:  decimal.NewFromFloat(d.Open),
			High:  decimal.NewFromFloat(d.High),
			Low:   decimal.NewFromFloat(d.Low),
			Close: decimal.NewFromFloat(d.Close),
		})
	}
	return out, nil
}

func (k *Kite) Balance(ctx context.Context) (decimal.Decimal, error) {
	if k.api == nil {
		return decimal.Zero, ErrMissingCredentials
	}
	m, err := k.api.GetUserMargins()
	if err != nil {
		return decimal.Zero, fmt.Errorf("user margins: %w", err)
	}
	return decimal.NewFromFloat(m.Equity.Net), nil
}

// PlaceOrder sends a MARKET order whose quantity is the integer part of
// the requested amount. Expiry has no meaning on the exchange and is only
// carried in the order tag.
func (k *Kite) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	var side string
	switch req.Direction {
	case types.Buy:
		side = kiteconnect.TransactionTypeBuy
	case types.Sell:
		side = kiteconnect.TransactionTypeSell
	default:
		return types.OrderResp{}, types.NewTradeError(fmt.Sprintf("invalid direction '%s'", req.Direction))
	}
	qty := req.Amount.IntPart()
	if qty <= 0 {
		return types.OrderResp{}, types.NewTradeError("quantity must be at least 1")
	}
	if k.api == nil {
		return types.OrderResp{}, ErrMissingCredentials
	}

	resp, err := k.api.PlaceOrder(kiteconnect.VarietyRegular, kiteconnect.OrderParams{
		Exchange:        k.p.Exchange,
		Tradingsymbol:   req.Asset,
		TransactionType: side,
		Product:         k.p.Product,
		OrderType:       kiteconnect.OrderTypeMarket,
		Validity:        kiteconnect.ValidityDay,
		Quantity:        int(qty),
		Tag:             fmt.Sprintf("bo-%ds", req.DurationSeconds),
	})
	if err != nil {
		return types.OrderResp{}, &types.TradeError{Reason: "order rejected by exchange", Err: err}
	}
	return types.OrderResp{OrderID: resp.OrderID, Status: "PLACED", Message: "ok"}, nil
}
