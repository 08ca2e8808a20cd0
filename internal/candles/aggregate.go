// Package candles resamples fixed-resolution broker candles into coarser,
// epoch-aligned buckets.
package candles

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"binary-options-assistant/internal/types"
)

const (
	fractionalLayout = "2006-01-02T15:04:05.999999Z"
	wholeLayout      = "2006-01-02T15:04:05Z"

	// KeyLayout renders a bucket key; keys are always whole seconds.
	KeyLayout = wholeLayout
)

var (
	// ErrFormat matches every *FormatError via errors.Is.
	ErrFormat = errors.New("unparseable candle timestamp")

	ErrInvalidWidth = errors.New("bucket width must be a positive number of seconds")

	timestampShape = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d{1,6})?Z$`)
)

// FormatError reports a timestamp matching neither accepted layout.
type FormatError struct {
	Value string
	Err   error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid candle time %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid candle time %q", e.Value)
}

func (e *FormatError) Unwrap() error { return e.Err }

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// ParseTime accepts YYYY-MM-DDTHH:MM:SS.ffffffZ (1-6 fraction digits) and
// YYYY-MM-DDTHH:MM:SSZ. The result is in UTC.
func ParseTime(s string) (time.Time, error) {
	if !timestampShape.MatchString(s) {
		return time.Time{}, &FormatError{Value: s}
	}
	layout := wholeLayout
	if len(s) > len(wholeLayout) {
		layout = fractionalLayout
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return time.Time{}, &FormatError{Value: s, Err: err}
	}
	return t.UTC(), nil
}

// BucketKey floors t to the nearest lower multiple of widthSeconds counted
// from the UNIX epoch. It is not calendar aware.
func BucketKey(t time.Time, widthSeconds int64) time.Time {
	sec := t.Unix()
	floored := sec - mod(sec, widthSeconds)
	return time.Unix(floored, 0).UTC()
}

// mod is the floor-division remainder, always in [0, w).
func mod(a, w int64) int64 {
	r := a % w
	if r < 0 {
		r += w
	}
	return r
}

type bucket struct {
	key   time.Time
	first types.RawCandle
	last  types.RawCandle
	high  types.RawCandle
	low   types.RawCandle
}

// Aggregate groups raw candles into widthSeconds buckets and reduces each
// bucket to one OHLC record, most recent bucket first.
//
// Open and Close come from the first and last candle of a bucket in input
// order, so callers must pass chronologically ascending candles for those
// two fields to be meaningful. High and Low are order independent.
func Aggregate(raw []types.RawCandle, widthSeconds int64) ([]types.AggregatedCandle, error) {
	if widthSeconds <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidWidth, widthSeconds)
	}

	groups := make(map[int64]*bucket)
	keys := make([]int64, 0)
	for _, c := range raw {
		t, err := ParseTime(c.Time)
		if err != nil {
			return nil, err
		}
		key := BucketKey(t, widthSeconds)
		b, ok := groups[key.Unix()]
		if !ok {
			groups[key.Unix()] = &bucket{key: key, first: c, last: c, high: c, low: c}
			keys = append(keys, key.Unix())
			continue
		}
		b.last = c
		if c.High.GreaterThan(b.high.High) {
			b.high = c
		}
		if c.Low.LessThan(b.low.Low) {
			b.low = c
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] > keys[j] })

	out := make([]types.AggregatedCandle, 0, len(keys))
	for _, k := range keys {
		b := groups[k]
		out = append(out, types.AggregatedCandle{
			Start: b.key,
			Open:  b.first.Open,
			High:  b.high.High,
			Low:   b.low.Low,
			Close: b.last.Close,
		})
	}
	return out, nil
}

// RawResolution picks the broker sampling resolution used to build buckets
// of widthSeconds: hourly samples for day-sized buckets, minute samples for
// hour-sized ones, second samples otherwise.
func RawResolution(widthSeconds int64) int64 {
	switch {
	case widthSeconds >= 86400:
		return 3600
	case widthSeconds >= 3600:
		return 60
	default:
		return 1
	}
}

// SecondsUntilClose is how long the bucket containing now stays open.
func SecondsUntilClose(now time.Time, widthSeconds int64) int64 {
	start := BucketKey(now, widthSeconds)
	passed := now.Sub(start).Seconds()
	return int64(float64(widthSeconds) - passed)
}
