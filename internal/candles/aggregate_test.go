package candles

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binary-options-assistant/internal/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func raw(ts, o, h, l, c string) types.RawCandle {
	return types.RawCandle{Time: ts, Open: d(o), High: d(h), Low: d(l), Close: d(c)}
}

func TestAggregateThreeCandleScenario(t *testing.T) {
	in := []types.RawCandle{
		raw("2024-01-01T00:00:00Z", "1", "2", "0.5", "1.5"),
		raw("2024-01-01T00:00:30Z", "1.5", "2.5", "1", "2"),
		raw("2024-01-01T00:01:00Z", "2", "2.2", "1.8", "2.1"),
	}

	out, err := Aggregate(in, 60)
	require.NoError(t, err)
	require.Len(t, out, 2)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), out[0].Start)
	assert.True(t, out[0].Open.Equal(d("2")))
	assert.True(t, out[0].High.Equal(d("2.2")))
	assert.True(t, out[0].Low.Equal(d("1.8")))
	assert.True(t, out[0].Close.Equal(d("2.1")))

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), out[1].Start)
	assert.True(t, out[1].Open.Equal(d("1")))
	assert.True(t, out[1].High.Equal(d("2.5")))
	assert.True(t, out[1].Low.Equal(d("0.5")))
	assert.True(t, out[1].Close.Equal(d("2")))
}

func TestAggregateEmptyInput(t *testing.T) {
	out, err := Aggregate(nil, 60)
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestAggregateMalformedTimestamp(t *testing.T) {
	in := []types.RawCandle{
		raw("2024-01-01T00:00:00Z", "1", "2", "0.5", "1.5"),
		raw("not-a-time", "1", "1", "1", "1"),
	}

	out, err := Aggregate(in, 60)
	require.Error(t, err)
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrFormat))

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "not-a-time", fe.Value)
}

func TestAggregateRejectsNonPositiveWidth(t *testing.T) {
	_, err := Aggregate([]types.RawCandle{raw("2024-01-01T00:00:00Z", "1", "1", "1", "1")}, 0)
	assert.ErrorIs(t, err, ErrInvalidWidth)

	_, err = Aggregate(nil, -5)
	assert.ErrorIs(t, err, ErrInvalidWidth)
}

func TestAggregateSingleCandleBucket(t *testing.T) {
	out, err := Aggregate([]types.RawCandle{raw("2024-03-10T12:34:56.5Z", "3", "4", "2", "3.5")}, 300)
	require.NoError(t, err)
	require.Len(t, out, 1)

	c := out[0]
	assert.Equal(t, time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC), c.Start)
	assert.True(t, c.Open.Equal(d("3")))
	assert.True(t, c.High.Equal(d("4")))
	assert.True(t, c.Low.Equal(d("2")))
	assert.True(t, c.Close.Equal(d("3.5")))
}

func TestAggregateOutOfOrderHighLow(t *testing.T) {
	in := []types.RawCandle{
		raw("2024-01-01T00:00:40Z", "5", "6", "4", "5.5"),
		raw("2024-01-01T00:00:10Z", "1", "9", "0.1", "2"),
		raw("2024-01-01T00:00:20Z", "2", "3", "1", "2.5"),
	}

	out, err := Aggregate(in, 60)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// open/close follow arrival order, high/low don't depend on it
	assert.True(t, out[0].Open.Equal(d("5")))
	assert.True(t, out[0].Close.Equal(d("2.5")))
	assert.True(t, out[0].High.Equal(d("9")))
	assert.True(t, out[0].Low.Equal(d("0.1")))
}

func TestAggregateDayBucketsAreEpochAligned(t *testing.T) {
	in := []types.RawCandle{
		raw("2024-05-01T23:00:00Z", "1", "1", "1", "1"),
		raw("2024-05-02T00:00:00Z", "2", "2", "2", "2"),
	}

	// two-day buckets floor to even days since 1970-01-01, not to May 1st
	out, err := Aggregate(in, 2*86400)
	require.NoError(t, err)

	for _, c := range out {
		assert.Zero(t, c.Start.Unix()%(2*86400))
	}
}

func TestAggregateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	in := make([]types.RawCandle, 0, 500)
	for i := 0; i < 500; i++ {
		ts := base.Add(time.Duration(i)*7*time.Second + time.Duration(rng.Intn(1000))*time.Millisecond)
		mid := 100 + rng.Float64()*10
		o := decimal.NewFromFloat(mid).Round(4)
		c := decimal.NewFromFloat(mid + rng.Float64() - 0.5).Round(4)
		h := decimal.Max(o, c).Add(decimal.NewFromFloat(rng.Float64()).Round(4))
		l := decimal.Min(o, c).Sub(decimal.NewFromFloat(rng.Float64()).Round(4))
		in = append(in, types.RawCandle{Time: ts.Format("2006-01-02T15:04:05.000000Z"), Open: o, High: h, Low: l, Close: c})
	}

	for _, w := range []int64{1, 5, 60, 300, 3600} {
		first, err := Aggregate(in, w)
		require.NoError(t, err)
		second, err := Aggregate(in, w)
		require.NoError(t, err)
		assert.Equal(t, first, second, "width %d", w)

		for i := 1; i < len(first); i++ {
			assert.True(t, first[i-1].Start.After(first[i].Start), "width %d not strictly descending at %d", w, i)
		}

		byKey := make(map[int64]types.AggregatedCandle, len(first))
		for _, c := range first {
			byKey[c.Start.Unix()] = c
			assert.True(t, c.Low.LessThanOrEqual(c.Open) && c.Open.LessThanOrEqual(c.High))
			assert.True(t, c.Low.LessThanOrEqual(c.Close) && c.Close.LessThanOrEqual(c.High))
		}

		for _, r := range in {
			ts, err := ParseTime(r.Time)
			require.NoError(t, err)
			key := BucketKey(ts, w)
			diff := ts.Sub(key)
			assert.True(t, diff >= 0 && diff < time.Duration(w)*time.Second, "flooring law broken for %s width %d", r.Time, w)

			agg, ok := byKey[key.Unix()]
			require.True(t, ok)
			assert.True(t, r.High.LessThanOrEqual(agg.High))
			assert.True(t, r.Low.GreaterThanOrEqual(agg.Low))
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2024-01-01T00:00:00Z", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-01T00:00:00.123456Z", time.Date(2024, 1, 1, 0, 0, 0, 123456000, time.UTC), true},
		{"2024-01-01T00:00:00.5Z", time.Date(2024, 1, 1, 0, 0, 0, 500000000, time.UTC), true},
		{"2024-01-01T00:00:00.1234567Z", time.Time{}, false},
		{"2024-01-01T00:00:00+00:00", time.Time{}, false},
		{"2024-01-01 00:00:00Z", time.Time{}, false},
		{"2024-13-01T00:00:00Z", time.Time{}, false},
		{"not-a-time", time.Time{}, false},
		{"", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTime(tt.in)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrFormat)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}
}

func TestBucketKeyNegativeEpoch(t *testing.T) {
	ts := time.Unix(-90, 0)
	assert.Equal(t, int64(-120), BucketKey(ts, 60).Unix())

	half := time.Unix(-1, 500_000_000)
	assert.Equal(t, int64(-60), BucketKey(half, 60).Unix())
}

func TestRawResolution(t *testing.T) {
	tests := map[int64]int64{
		1:      1,
		15:     1,
		3599:   1,
		3600:   60,
		14400:  60,
		86399:  60,
		86400:  3600,
		604800: 3600,
	}
	for width, want := range tests {
		assert.Equal(t, want, RawResolution(width), "width %d", width)
	}
}

func TestSecondsUntilClose(t *testing.T) {
	now := time.Date(2024, 1, 1, 10, 2, 15, 400_000_000, time.UTC)
	assert.Equal(t, int64(44), SecondsUntilClose(now, 60))
	assert.Equal(t, int64(164), SecondsUntilClose(now, 300))
}

func TestAtOffsets(t *testing.T) {
	aggs := []types.AggregatedCandle{
		{Start: time.Unix(180, 0).UTC()},
		{Start: time.Unix(120, 0).UTC()},
		{Start: time.Unix(60, 0).UTC()},
	}

	rows := AtOffsets(aggs, []int{3, 2, 1, 0})
	require.Len(t, rows, 4)

	assert.Equal(t, 3, rows[0].Offset)
	assert.Nil(t, rows[0].Candle)
	assert.Equal(t, int64(60), rows[1].Candle.Start.Unix())
	assert.Equal(t, int64(120), rows[2].Candle.Start.Unix())
	assert.Equal(t, int64(180), rows[3].Candle.Start.Unix())
}
