package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	fixed := time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)
	prev := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = prev })

	require.NoError(t, Append(Entry{Asset: "EURUSD_otc", Direction: "buy", Amount: "10", DurationSeconds: 60, OrderID: "o-1", Status: StatusPlaced}))
	require.NoError(t, Append(Entry{Asset: "EURUSD_otc", Direction: "sell", Amount: "5", DurationSeconds: 30, Status: StatusRejected, Reason: "closed market"}))

	f, err := os.Open(filepath.Join(dir, "2024-02-03.txt"))
	require.NoError(t, err)
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		entries = append(entries, e)
	}
	require.Len(t, entries, 2)
	assert.Equal(t, "2024-02-03T10:00:00Z", entries[0].Time)
	assert.Equal(t, "o-1", entries[0].OrderID)
	assert.Equal(t, StatusRejected, entries[1].Status)
	assert.Equal(t, "closed market", entries[1].Reason)
}

func TestCompressOlder(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("TRADER_LOG_DIR", dir)

	old := filepath.Join(dir, "2020-01-01.txt")
	fresh := filepath.Join(dir, time.Now().UTC().Format("2006-01-02")+".txt")
	require.NoError(t, os.WriteFile(old, []byte("{}\n"), 0o644))
	require.NoError(t, os.WriteFile(fresh, []byte("{}\n"), 0o644))

	past := time.Now().AddDate(0, 0, -30)
	require.NoError(t, os.Chtimes(old, past, past))

	require.NoError(t, CompressOlder(7))

	_, err := os.Stat(old)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(old + ".gz")
	assert.NoError(t, err)
	_, err = os.Stat(fresh)
	assert.NoError(t, err)
}

func TestCompressOlderDisabled(t *testing.T) {
	assert.NoError(t, CompressOlder(0))
}
