package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("mode: DRY_RUN\n"))
	require.NoError(t, err)

	assert.Equal(t, BrokerPocketOption, cfg.Broker)
	assert.Equal(t, []int{9, 8, 7, 6, 5, 4, 3, 2, 1}, cfg.Display.Offsets)
	assert.Equal(t, 5, cfg.Display.PostTradePauseSeconds)
	assert.Equal(t, "PO_SSID", cfg.PocketOption.SSIDEnv)
	assert.Equal(t, 20, cfg.PocketOption.RequestTimeoutSeconds)
	assert.Equal(t, "logs", cfg.LogDir)
	assert.Equal(t, 10000.0, cfg.Paper.StartingBalance)
}

func TestParseConfigLivePocketOption(t *testing.T) {
	yml := `
mode: LIVE
broker: POCKETOPTION
pocketoption:
  url: wss://demo-api-eu.po.market/socket.io/?EIO=4&transport=websocket
  requests_per_second: 5
display:
  offsets: [3, 2, 1, 0]
risk:
  max_stake_pct: 10
`
	cfg, err := ParseConfig([]byte(yml))
	require.NoError(t, err)

	assert.Equal(t, ModeLive, cfg.Mode)
	assert.Equal(t, []int{3, 2, 1, 0}, cfg.Display.Offsets)
	assert.Equal(t, 5.0, cfg.PocketOption.RequestsPerSecond)
	assert.Equal(t, 10.0, cfg.Risk.MaxStakePct)
}

func TestValidateFailures(t *testing.T) {
	tests := map[string]string{
		"bad mode":           "mode: PAPER\n",
		"bad broker":         "mode: LIVE\nbroker: IQ\n",
		"live without url":   "mode: LIVE\nbroker: POCKETOPTION\n",
		"kite without token": "mode: LIVE\nbroker: KITE\n",
		"negative offset":    "display:\n  offsets: [1, -1]\n",
		"stake pct too high": "risk:\n  max_stake_pct: 150\n",
	}

	for name, yml := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseConfig([]byte(yml))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yml := "mode: LIVE\nbroker: KITE\nkite:\n  instruments:\n    INFY: 408065\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(408065), cfg.Kite.Instruments["INFY"])
	assert.Equal(t, "NSE", cfg.Kite.Exchange)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
