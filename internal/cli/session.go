// Package cli runs the interactive trading session on a terminal.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"binary-options-assistant/internal/candles"
	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/logger"
	"binary-options-assistant/internal/ta"
	"binary-options-assistant/internal/types"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"
)

type state int

const (
	stateSelectAsset state = iota
	stateSelectTimeframe
	stateShowData
	statePlaceTrade
	stateExit
)

func (s state) String() string {
	switch s {
	case stateSelectAsset:
		return "select_asset"
	case stateSelectTimeframe:
		return "select_timeframe"
	case stateShowData:
		return "show_data"
	case statePlaceTrade:
		return "place_trade"
	case stateExit:
		return "exit"
	}
	return "unknown"
}

var tableHeaders = []string{"Offset (# candles ago)", "Time (UTC start)", "High", "Open", "Close", "Low"}

// AssetList is the numbered menu of tradable symbols.
type AssetList interface {
	List() []string
	At(n int) (string, error)
}

type Options struct {
	In             io.Reader
	Out            io.Writer
	Assets         AssetList
	Engine         interfaces.Engine
	Offsets        []int
	ShowIndicators bool
	PostTradePause time.Duration
	Now            func() time.Time
	Sleep          func(ctx context.Context, d time.Duration) error
}

type Session struct {
	opts Options
	in   *bufio.Reader
	out  io.Writer

	asset     string
	timeframe int64
	direction types.Direction
}

func NewSession(opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if len(opts.Offsets) == 0 {
		opts.Offsets = candles.DefaultOffsets
	}
	return &Session{
		opts: opts,
		in:   bufio.NewReader(opts.In),
		out:  opts.Out,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drives the session until the user exits, input ends or ctx is
// cancelled.
func (s *Session) Run(ctx context.Context) error {
	st := stateSelectAsset
	for st != stateExit {
		if ctx.Err() != nil {
			return nil
		}
		next := s.step(ctx, st)
		if next != st {
			logger.Debug(ctx, "Session state change", "from", st.String(), "to", next.String())
		}
		st = next
	}
	return nil
}

func (s *Session) step(ctx context.Context, st state) state {
	switch st {
	case stateSelectAsset:
		return s.selectAsset()
	case stateSelectTimeframe:
		return s.selectTimeframe()
	case stateShowData:
		return s.showDataAndPrompt(ctx)
	case statePlaceTrade:
		return s.placeTrade(ctx)
	}
	return stateExit
}

func (s *Session) printf(format string, args ...any) {
	fmt.Fprintf(s.out, format, args...)
}

// prompt writes label and returns the next input line without its line
// ending. io.EOF is returned only when no further input exists.
func (s *Session) prompt(label string) (string, error) {
	s.printf("%s", label)
	line, err := s.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		s.printf("\n")
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (s *Session) selectAsset() state {
	s.printf("Available Assets:\n")
	for i, a := range s.opts.Assets.List() {
		s.printf("%d. %s\n", i+1, a)
	}

	line, err := s.prompt("Select an asset by number: ")
	if err != nil {
		return stateExit
	}
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		s.printf("Invalid input. Please enter a number.\n")
		return stateExit
	}
	asset, err := s.opts.Assets.At(n)
	if err != nil {
		s.printf("Invalid number, please select a valid asset number.\n")
		return stateExit
	}
	s.asset = asset
	return stateSelectTimeframe
}

func (s *Session) selectTimeframe() state {
	line, err := s.prompt("Enter candle timeframe in seconds (e.g., 5, 15, 60): ")
	if err != nil {
		return stateExit
	}
	tf, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		s.printf("Invalid input for timeframe.\n")
		return stateExit
	}
	if tf <= 0 {
		s.printf("Timeframe must be positive integer.\n")
		return stateExit
	}
	s.timeframe = tf
	return stateShowData
}

func (s *Session) showDataAndPrompt(ctx context.Context) state {
	s.printCandles(ctx)
	s.printBalance(ctx)

	line, err := s.prompt("Do you want to buy, sell, repeat, or exit? (Type 'buy', 'sell', 'repeat', or 'exit'): ")
	if err != nil {
		return stateExit
	}
	action := strings.ToLower(strings.TrimSpace(line))

	left := candles.SecondsUntilClose(s.opts.Now(), s.timeframe)
	s.printf("\nTime until current candle closes: %d seconds\n\n", left)

	switch action {
	case "exit":
		s.printf("Exiting...\n")
		return stateExit
	case "repeat":
		s.printf("\nRepeating candle fetch and balance update...\n\n")
		return stateShowData
	case string(types.Buy), string(types.Sell):
		s.direction = types.Direction(action)
		return statePlaceTrade
	}
	s.printf("Invalid action. Please enter 'buy', 'sell', 'repeat', or 'exit'.\n")
	return stateShowData
}

func (s *Session) printCandles(ctx context.Context) {
	snap, err := s.opts.Engine.Snapshot(ctx, s.asset, s.timeframe)
	if err != nil {
		s.printf("\nError fetching candles: %v\n", err)
		return
	}

	s.printf("\nAggregated candles for asset %s with timeframe %ds:\n\n", s.asset, s.timeframe)
	table := tablewriter.NewWriter(s.out)
	table.SetHeader(tableHeaders)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetRowLine(true)
	table.AppendBulk(offsetRows(snap.Candles, s.opts.Offsets))
	table.Render()

	if s.opts.ShowIndicators {
		sum := ta.Summarize(snap.Candles)
		s.printf("SMA(%d): %s  RSI(%d): %s  ATR(%d): %s\n",
			ta.SMAPeriod, fmtIndicator(sum.SMA),
			ta.RSIPeriod, fmtIndicator(sum.RSI),
			ta.ATRPeriod, fmtIndicator(sum.ATR))
	}
}

func fmtIndicator(v *decimal.Decimal) string {
	if v == nil {
		return "N/A"
	}
	return v.StringFixed(5)
}

func offsetRows(aggs []types.AggregatedCandle, offsets []int) [][]string {
	rows := make([][]string, 0, len(offsets))
	for _, r := range candles.AtOffsets(aggs, offsets) {
		off := strconv.Itoa(r.Offset)
		if r.Candle == nil {
			rows = append(rows, []string{off, "N/A", "N/A", "N/A", "N/A", "N/A"})
			continue
		}
		c := r.Candle
		rows = append(rows, []string{
			off,
			c.Start.UTC().Format(candles.KeyLayout),
			c.High.String(),
			c.Open.String(),
			c.Close.String(),
			c.Low.String(),
		})
	}
	return rows
}

func (s *Session) printBalance(ctx context.Context) {
	bal, err := s.opts.Engine.Balance(ctx)
	if err != nil {
		s.printf("\nError fetching balance: %v\n\n", err)
		return
	}
	s.printf("\nCurrent balance: %s\n\n", bal.String())
}

func (s *Session) placeTrade(ctx context.Context) state {
	amountLine, err := s.prompt("Enter the trade amount: ")
	if err != nil {
		return stateExit
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(amountLine))
	if err != nil {
		s.printf("Invalid input for amount or duration.\n")
		return stateShowData
	}
	durationLine, err := s.prompt("Enter the trade duration in seconds: ")
	if err != nil {
		return stateExit
	}
	duration, err := strconv.Atoi(strings.TrimSpace(durationLine))
	if err != nil {
		s.printf("Invalid input for amount or duration.\n")
		return stateShowData
	}

	req := types.OrderReq{
		Asset:           s.asset,
		Direction:       s.direction,
		Amount:          amount,
		DurationSeconds: duration,
	}
	if _, err := s.opts.Engine.Trade(ctx, req); err != nil {
		s.printf("Error placing trade: %v\n", err)
	} else {
		s.printf("\nTrade placed: %s %s on %s for %d seconds\n\n", s.direction, amount.String(), s.asset, duration)
	}

	s.printf("\nWaiting a few seconds before updating candles...\n\n")
	if err := s.opts.Sleep(ctx, s.opts.PostTradePause); err != nil {
		return stateExit
	}
	return stateShowData
}
