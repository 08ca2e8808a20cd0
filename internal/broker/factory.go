// Package broker selects the market-data/order venue for the configured
// mode.
package broker

import (
	"fmt"
	"os"
	"time"

	"binary-options-assistant/internal/broker/brokerobs"
	"binary-options-assistant/internal/broker/kite"
	"binary-options-assistant/internal/broker/paper"
	"binary-options-assistant/internal/broker/pocketoption"
	"binary-options-assistant/internal/interfaces"
	"binary-options-assistant/internal/store"

	"github.com/shopspring/decimal"
)

// New returns the venue for cfg wrapped with tracing and logging. DRY_RUN
// always simulates; LIVE picks the configured broker and reads its
// credentials from the environment.
func New(cfg *store.Config, assets paper.AssetSet) (interfaces.Broker, error) {
	if cfg.Mode == store.ModeDryRun {
		b := paper.New(paper.Params{
			StartingBalance: decimal.NewFromFloat(cfg.Paper.StartingBalance),
			Seed:            cfg.Paper.Seed,
			Assets:          assets,
		})
		return brokerobs.Wrap(b, "paper"), nil
	}

	switch cfg.Broker {
	case store.BrokerPocketOption:
		ssid := os.Getenv(cfg.PocketOption.SSIDEnv)
		if ssid == "" {
			return nil, fmt.Errorf("%s is not set", cfg.PocketOption.SSIDEnv)
		}
		b := pocketoption.New(pocketoption.Params{
			URL:               cfg.PocketOption.URL,
			Origin:            cfg.PocketOption.Origin,
			SSID:              ssid,
			RequestTimeout:    time.Duration(cfg.PocketOption.RequestTimeoutSeconds) * time.Second,
			RequestsPerSecond: cfg.PocketOption.RequestsPerSecond,
			DialAttempts:      cfg.PocketOption.DialAttempts,
		})
		return brokerobs.Wrap(b, "pocketoption"), nil
	case store.BrokerKite:
		apiKey := os.Getenv(cfg.Kite.APIKeyEnv)
		token := os.Getenv(cfg.Kite.AccessTokenEnv)
		if apiKey == "" || token == "" {
			return nil, fmt.Errorf("%s and %s must be set", cfg.Kite.APIKeyEnv, cfg.Kite.AccessTokenEnv)
		}
		b := kite.New(kite.Params{
			APIKey:       apiKey,
			AccessToken:  token,
			Exchange:     cfg.Kite.Exchange,
			Product:      cfg.Kite.Product,
			LookbackDays: cfg.Kite.LookbackDays,
			Instruments:  cfg.Kite.Instruments,
		})
		return brokerobs.Wrap(b, "kite"), nil
	}
	return nil, fmt.Errorf("unknown broker %q", cfg.Broker)
}
