package eod

import (
	"path/filepath"
	"time"

	"binary-options-assistant/internal/tradelog"
)

func utcNow() time.Time {
	return time.Now().UTC()
}

func eodCSVPath(t time.Time) string {
	dateStr := t.UTC().Format("2006-01-02")
	return filepath.Join(tradelog.Dir(), "eod", dateStr+".csv")
}
