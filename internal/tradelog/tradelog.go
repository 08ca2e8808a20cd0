package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	StatusPlaced   = "PLACED"
	StatusRejected = "REJECTED"
)

var (
	mu         sync.Mutex
	defaultDir = "logs"
	now        = func() time.Time { return time.Now().UTC() }
)

type Entry struct {
	Time            string `json:"time"`
	Asset           string `json:"asset"`
	Direction       string `json:"direction"`
	Amount          string `json:"amount"`
	DurationSeconds int    `json:"duration_seconds"`
	OrderID         string `json:"order_id,omitempty"`
	Status          string `json:"status"`
	Reason          string `json:"reason,omitempty"`
	Mode            string `json:"mode,omitempty"`
}

// SetDir sets the journal directory used when TRADER_LOG_DIR is unset.
func SetDir(dir string) {
	mu.Lock()
	defer mu.Unlock()
	if dir != "" {
		defaultDir = dir
	}
}

// Dir is the journal root.
func Dir() string {
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return defaultDir
}

// DailyFilepath is the journal file for the UTC day of t.
func DailyFilepath(t time.Time) string {
	d := t.UTC().Format("2006-01-02")
	return filepath.Join(Dir(), d+".txt")
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	ts := now()
	e.Time = ts.Format(time.RFC3339)
	p := DailyFilepath(ts)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips day files last modified more than retentionDays ago.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(Dir(), func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		// an earlier run already compressed it
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			_ = os.Remove(gz)
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
