package broker

import (
	"context"
	"testing"

	"binary-options-assistant/internal/catalog"
	"binary-options-assistant/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDryRunUsesPaper(t *testing.T) {
	cfg, err := store.ParseConfig([]byte("mode: DRY_RUN\npaper:\n  starting_balance: 500\n"))
	require.NoError(t, err)

	b, err := New(cfg, catalog.Default())
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))

	bal, err := b.Balance(context.Background())
	require.NoError(t, err)
	assert.True(t, bal.Equal(decimal.NewFromInt(500)))

	raw, err := b.History(context.Background(), "EURUSD_otc", 60)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestNewLiveRequiresCredentials(t *testing.T) {
	t.Setenv("PO_SSID", "")
	cfg, err := store.ParseConfig([]byte("mode: LIVE\nbroker: POCKETOPTION\npocketoption:\n  url: wss://example.invalid/socket.io/?EIO=4&transport=websocket\n"))
	require.NoError(t, err)
	_, err = New(cfg, catalog.Default())
	assert.ErrorContains(t, err, "PO_SSID")

	t.Setenv("KITE_API_KEY", "")
	cfg, err = store.ParseConfig([]byte("mode: LIVE\nbroker: KITE\nkite:\n  instruments:\n    RELIANCE: 738561\n"))
	require.NoError(t, err)
	_, err = New(cfg, catalog.Default())
	assert.ErrorContains(t, err, "KITE_API_KEY")
}

func TestNewLiveBuildsConfiguredBroker(t *testing.T) {
	t.Setenv("KITE_API_KEY", "key")
	t.Setenv("KITE_ACCESS_TOKEN", "token")
	cfg, err := store.ParseConfig([]byte("mode: LIVE\nbroker: KITE\nkite:\n  instruments:\n    RELIANCE: 738561\n"))
	require.NoError(t, err)

	b, err := New(cfg, catalog.Default())
	require.NoError(t, err)
	assert.NotNil(t, b)
}
