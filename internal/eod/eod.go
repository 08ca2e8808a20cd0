package eod

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/tradelog"
	"binary-options-assistant/internal/types"

	"github.com/shopspring/decimal"
)

type eodSummarizer struct{}

var _ interfaces.EodSummarizer = (*eodSummarizer)(nil)

// SummarizeDay folds the day's journal into a per-asset CSV and returns its
// path, or "" when nothing was journaled that day.
func (s *eodSummarizer) SummarizeDay(t time.Time) (string, error) {
	inPath := tradelog.DailyFilepath(t)
	if _, err := os.Stat(inPath); err != nil {
		return "", nil
	}
	f, err := os.Open(inPath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	aggs := map[string]*aggRow{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e tradelog.Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		row := aggs[e.Asset]
		if row == nil {
			row = &aggRow{Asset: e.Asset}
			aggs[e.Asset] = row
		}
		if e.Status == tradelog.StatusRejected {
			row.Rejected++
			continue
		}
		amount, err := decimal.NewFromString(e.Amount)
		if err != nil {
			continue
		}
		switch types.Direction(e.Direction) {
		case types.Buy:
			row.BuyCount++
			row.BuyAmount = row.BuyAmount.Add(amount)
		case types.Sell:
			row.SellCount++
			row.SellAmount = row.SellAmount.Add(amount)
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(aggs) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(aggs))
	for k := range aggs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	outPath := eodCSVPath(t)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	out, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	w := csv.NewWriter(out)
	headers := []string{"asset", "buy_count", "buy_amount", "sell_count", "sell_amount", "rejected", "total_staked"}
	if err := w.Write(headers); err != nil {
		return "", err
	}
	var totalBuys, totalSells, totalRejected int
	totalStaked := decimal.Zero
	for _, k := range keys {
		r := aggs[k]
		staked := r.BuyAmount.Add(r.SellAmount)
		rec := []string{
			r.Asset,
			strconv.Itoa(r.BuyCount), r.BuyAmount.StringFixed(2),
			strconv.Itoa(r.SellCount), r.SellAmount.StringFixed(2),
			strconv.Itoa(r.Rejected), staked.StringFixed(2),
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
		totalBuys += r.BuyCount
		totalSells += r.SellCount
		totalRejected += r.Rejected
		totalStaked = totalStaked.Add(staked)
	}
	_ = w.Write([]string{"TOTAL", strconv.Itoa(totalBuys), "", strconv.Itoa(totalSells), "", strconv.Itoa(totalRejected), totalStaked.StringFixed(2)})
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return outPath, nil
}

func (s *eodSummarizer) SummarizeToday() (string, error) {
	return s.SummarizeDay(utcNow())
}
