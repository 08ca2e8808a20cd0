package candles

import "binary-options-assistant/internal/types"

// OffsetRow is one aggregated candle addressed by "candles ago". Candle is
// nil when the offset is past the available history.
type OffsetRow struct {
	Offset int
	Candle *types.AggregatedCandle
}

// DefaultOffsets lists the nine most recent closed buckets, oldest first.
var DefaultOffsets = []int{9, 8, 7, 6, 5, 4, 3, 2, 1}

// AtOffsets looks up each offset in a descending candle sequence, where
// offset 0 is the most recent bucket.
func AtOffsets(aggs []types.AggregatedCandle, offsets []int) []OffsetRow {
	rows := make([]OffsetRow, 0, len(offsets))
	for _, off := range offsets {
		row := OffsetRow{Offset: off}
		if off >= 0 && off < len(aggs) {
			c := aggs[off]
			row.Candle = &c
		}
		rows = append(rows, row)
	}
	return rows
}
