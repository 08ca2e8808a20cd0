// Package pocketoption talks to the PocketOption Socket.IO API: candle
// history, balance pushes and binary option orders.
package pocketoption

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

const (
	evAuth          = "auth"
	evSuccessAuth   = "successauth"
	evFailAuth      = "failauth"
	evNotAuthorized = "NotAuthorized"
	evBalance       = "successupdateBalance"
	evChangeSymbol  = "changeSymbol"
	evHistory       = "updateHistoryNewFast"
	evOpenOrder     = "openOrder"
	evOrderOK       = "successopenOrder"
	evOrderFail     = "failopenOrder"

	// binary option type for fixed-time trades
	optionTypeFixed = 100
)

type Params struct {
	URL               string
	Origin            string
	SSID              string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	DialAttempts      int
}

type result struct {
	payload json.RawMessage
	err     error
}

type Broker struct {
	p      Params
	isDemo bool
	cli    *client

	mu       sync.Mutex
	waiters  map[string]chan result
	balance  decimal.Decimal
	hasBal   bool
	balReady chan struct{}
	authDone chan error

	nextReq atomic.Int64
}

var _ interfaces.Broker = (*Broker)(nil)

func New(p Params) *Broker {
	if p.RequestTimeout <= 0 {
		p.RequestTimeout = 20 * time.Second
	}
	b := &Broker{
		p:        p,
		isDemo:   demoFromSSID(p.SSID),
		waiters:  map[string]chan result{},
		balReady: make(chan struct{}),
		authDone: make(chan error, 1),
	}
	b.nextReq.Store(time.Now().Unix())
	return b
}

// demoFromSSID reads the isDemo flag out of a 42["auth",{...}] frame.
func demoFromSSID(ssid string) bool {
	f, err := parseFrame([]byte(ssid))
	if err != nil || f.event != evAuth {
		return false
	}
	var body struct {
		IsDemo int `json:"isDemo"`
	}
	if err := json.Unmarshal(f.payload, &body); err != nil {
		return false
	}
	return body.IsDemo == 1
}

// Start connects, authenticates and begins reading pushes. It returns once
// the server accepted or refused the session.
func (b *Broker) Start(ctx context.Context) error {
	if b.p.SSID == "" {
		return fmt.Errorf("%w: empty SSID", ErrAuth)
	}
	b.cli = newClient(b.p, b.dispatch)
	if err := b.cli.dial(ctx); err != nil {
		return err
	}
	if err := b.cli.handshake(ctx, b.p.SSID); err != nil {
		b.cli.shutdown()
		return err
	}
	go b.cli.readLoop(context.WithoutCancel(ctx))
	go b.failWaitersOnClose()

	select {
	case err := <-b.authDone:
		if err != nil {
			b.cli.close()
			return err
		}
	case <-time.After(b.p.RequestTimeout):
		b.cli.close()
		return fmt.Errorf("%w: waiting for auth", ErrTimeout)
	case <-ctx.Done():
		b.cli.close()
		return ctx.Err()
	}
	logger.Info(ctx, "PocketOption session authenticated", "demo", b.isDemo)
	return nil
}

func (b *Broker) Stop(ctx context.Context) {
	if b.cli == nil {
		return
	}
	b.cli.close()
	logger.Info(ctx, "PocketOption session closed")
}

func (b *Broker) dispatch(event string, payload json.RawMessage) {
	switch event {
	case evSuccessAuth:
		b.signalAuth(nil)
	case evFailAuth, evNotAuthorized:
		b.signalAuth(fmt.Errorf("%w: %s", ErrAuth, string(payload)))
	case evBalance:
		var body struct {
			Balance decimal.Decimal `json:"balance"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return
		}
		b.mu.Lock()
		b.balance = body.Balance
		if !b.hasBal {
			b.hasBal = true
			close(b.balReady)
		}
		b.mu.Unlock()
	case evHistory:
		var body struct {
			Asset  string `json:"asset"`
			Period int64  `json:"period"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return
		}
		b.deliver(historyKey(body.Asset, body.Period), result{payload: payload})
	case evOrderOK:
		var body struct {
			RequestID json.Number `json:"requestId"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return
		}
		b.deliver(orderKey(body.RequestID.String()), result{payload: payload})
	case evOrderFail:
		var body struct {
			RequestID json.Number `json:"requestId"`
			Error     string      `json:"error"`
		}
		if err := json.Unmarshal(payload, &body); err != nil {
			return
		}
		reason := body.Error
		if reason == "" {
			reason = "order rejected"
		}
		b.deliver(orderKey(body.RequestID.String()), result{err: types.NewTradeError(reason)})
	}
}

func (b *Broker) signalAuth(err error) {
	select {
	case b.authDone <- err:
	default:
	}
}

func historyKey(asset string, period int64) string {
	return "history|" + asset + "|" + strconv.FormatInt(period, 10)
}

func orderKey(requestID string) string {
	return "order|" + requestID
}

func (b *Broker) register(key string) chan result {
	ch := make(chan result, 1)
	b.mu.Lock()
	b.waiters[key] = ch
	b.mu.Unlock()
	return ch
}

func (b *Broker) unregister(key string) {
	b.mu.Lock()
	delete(b.waiters, key)
	b.mu.Unlock()
}

func (b *Broker) deliver(key string, r result) {
	b.mu.Lock()
	ch, ok := b.waiters[key]
	delete(b.waiters, key)
	b.mu.Unlock()
	if ok {
		ch <- r
	}
}

func (b *Broker) failWaitersOnClose() {
	<-b.cli.closed
	b.signalAuth(ErrNotConnected)
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, ch := range b.waiters {
		ch <- result{err: ErrNotConnected}
		delete(b.waiters, k)
	}
}

// request registers a waiter under key, emits the event and blocks for the
// matching reply.
func (b *Broker) request(ctx context.Context, key, event string, payload any) (json.RawMessage, error) {
	if b.cli == nil || b.cli.isClosed() {
		return nil, ErrNotConnected
	}
	ch := b.register(key)
	defer b.unregister(key)

	if err := b.cli.emit(ctx, event, payload); err != nil {
		return nil, err
	}

	timer := time.NewTimer(b.p.RequestTimeout)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.payload, r.err
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s", ErrTimeout, event)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *Broker) History(ctx context.Context, asset string, resolutionSeconds int64) ([]types.RawCandle, error) {
	payload, err := b.request(ctx, historyKey(asset, resolutionSeconds), evChangeSymbol, map[string]any{
		"asset":  asset,
		"period": resolutionSeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("history %s/%d: %w", asset, resolutionSeconds, err)
	}
	var body struct {
		Candles []types.RawCandle `json:"candles"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("history %s/%d: decode: %w", asset, resolutionSeconds, err)
	}
	if body.Candles == nil {
		body.Candles = []types.RawCandle{}
	}
	return body.Candles, nil
}

// Balance returns the most recently pushed balance.
func (b *Broker) Balance(ctx context.Context) (decimal.Decimal, error) {
	if b.cli == nil {
		return decimal.Zero, ErrNotConnected
	}
	timer := time.NewTimer(b.p.RequestTimeout)
	defer timer.Stop()
	select {
	case <-b.balReady:
	case <-b.cli.closed:
		return decimal.Zero, ErrNotConnected
	case <-timer.C:
		return decimal.Zero, fmt.Errorf("%w: balance", ErrTimeout)
	case <-ctx.Done():
		return decimal.Zero, ctx.Err()
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, nil
}

func (b *Broker) PlaceOrder(ctx context.Context, req types.OrderReq) (types.OrderResp, error) {
	var action string
	switch req.Direction {
	case types.Buy:
		action = "call"
	case types.Sell:
		action = "put"
	default:
		return types.OrderResp{}, types.NewTradeError(fmt.Sprintf("invalid direction '%s'", req.Direction))
	}

	id := strconv.FormatInt(b.nextReq.Add(1), 10)
	isDemo := 0
	if b.isDemo {
		isDemo = 1
	}
	payload, err := b.request(ctx, orderKey(id), evOpenOrder, map[string]any{
		"asset":      req.Asset,
		"amount":     req.Amount.InexactFloat64(),
		"action":     action,
		"isDemo":     isDemo,
		"requestId":  json.Number(id),
		"optionType": optionTypeFixed,
		"time":       req.DurationSeconds,
	})
	if err != nil {
		return types.OrderResp{}, err
	}

	var body struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return types.OrderResp{}, fmt.Errorf("order reply: %w", err)
	}
	return types.OrderResp{
		OrderID: unquote(body.ID),
		Status:  "OPEN",
		Message: "accepted",
	}, nil
}

// unquote accepts ids sent either as JSON strings or numbers.
func unquote(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
