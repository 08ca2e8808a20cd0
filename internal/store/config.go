package store

import (
	"errors"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	ModeDryRun = "DRY_RUN"
	ModeLive   = "LIVE"

	BrokerPocketOption = "POCKETOPTION"
	BrokerKite         = "KITE"
)

type Config struct {
	Mode       string `yaml:"mode"`
	Broker     string `yaml:"broker"`
	AssetsFile string `yaml:"assets_file"`
	Display    struct {
		Offsets               []int `yaml:"offsets"`
		PostTradePauseSeconds int   `yaml:"post_trade_pause_seconds"`
		Indicators            bool  `yaml:"indicators"`
	} `yaml:"display"`
	Risk struct {
		MaxStakePct float64 `yaml:"max_stake_pct"`
		MinAmount   float64 `yaml:"min_amount"`
	} `yaml:"risk"`
	PocketOption struct {
		URL                   string  `yaml:"url"`
		Origin                string  `yaml:"origin"`
		SSIDEnv               string  `yaml:"ssid_env"`
		RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
		RequestsPerSecond     float64 `yaml:"requests_per_second"`
		DialAttempts          int     `yaml:"dial_attempts"`
	} `yaml:"pocketoption"`
	Kite struct {
		APIKeyEnv      string            `yaml:"api_key_env"`
		AccessTokenEnv string            `yaml:"access_token_env"`
		Exchange       string            `yaml:"exchange"`
		Product        string            `yaml:"product"`
		LookbackDays   int               `yaml:"lookback_days"`
		Instruments    map[string]uint32 `yaml:"instruments"`
	} `yaml:"kite"`
	Paper struct {
		StartingBalance float64 `yaml:"starting_balance"`
		Seed            int64   `yaml:"seed"`
	} `yaml:"paper"`
	LogDir           string `yaml:"log_dir"`
	LogRetentionDays int    `yaml:"log_retention_days"`
}

func (c *Config) Validate() error {
	if c.Mode != ModeDryRun && c.Mode != ModeLive {
		return fmt.Errorf("invalid mode '%s': must be 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if c.Mode == ModeLive && c.Broker != BrokerPocketOption && c.Broker != BrokerKite {
		return fmt.Errorf("invalid broker '%s': must be 'POCKETOPTION' or 'KITE'", c.Broker)
	}
	if len(c.Display.Offsets) == 0 {
		return errors.New("display.offsets cannot be empty")
	}
	for _, off := range c.Display.Offsets {
		if off < 0 {
			return fmt.Errorf("display.offsets must be non-negative, got %d", off)
		}
	}
	if c.Display.PostTradePauseSeconds < 0 {
		return fmt.Errorf("display.post_trade_pause_seconds cannot be negative, got %d", c.Display.PostTradePauseSeconds)
	}
	if c.Risk.MaxStakePct < 0 || c.Risk.MaxStakePct > 100 {
		return fmt.Errorf("risk.max_stake_pct must be between 0-100, got %.2f", c.Risk.MaxStakePct)
	}
	if c.Risk.MinAmount < 0 {
		return fmt.Errorf("risk.min_amount cannot be negative, got %.2f", c.Risk.MinAmount)
	}
	if c.Mode == ModeLive && c.Broker == BrokerPocketOption && c.PocketOption.URL == "" {
		return errors.New("pocketoption.url cannot be empty in LIVE mode")
	}
	if c.Mode == ModeLive && c.Broker == BrokerKite && len(c.Kite.Instruments) == 0 {
		return errors.New("kite.instruments cannot be empty in LIVE mode")
	}
	if c.Paper.StartingBalance < 0 {
		return fmt.Errorf("paper.starting_balance cannot be negative, got %.2f", c.Paper.StartingBalance)
	}
	return nil
}

// MinAmount is the smallest accepted stake.
func (c *Config) MinAmount() decimal.Decimal {
	return decimal.NewFromFloat(c.Risk.MinAmount)
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseConfig(b)
}

func ParseConfig(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDryRun
	}
	if c.Broker == "" {
		c.Broker = BrokerPocketOption
	}
	if len(c.Display.Offsets) == 0 {
		c.Display.Offsets = []int{9, 8, 7, 6, 5, 4, 3, 2, 1}
	}
	if c.Display.PostTradePauseSeconds == 0 {
		c.Display.PostTradePauseSeconds = 5
	}
	if c.PocketOption.SSIDEnv == "" {
		c.PocketOption.SSIDEnv = "PO_SSID"
	}
	if c.PocketOption.RequestTimeoutSeconds == 0 {
		c.PocketOption.RequestTimeoutSeconds = 20
	}
	if c.PocketOption.RequestsPerSecond == 0 {
		c.PocketOption.RequestsPerSecond = 2
	}
	if c.PocketOption.DialAttempts == 0 {
		c.PocketOption.DialAttempts = 5
	}
	if c.Kite.APIKeyEnv == "" {
		c.Kite.APIKeyEnv = "KITE_API_KEY"
	}
	if c.Kite.AccessTokenEnv == "" {
		c.Kite.AccessTokenEnv = "KITE_ACCESS_TOKEN"
	}
	if c.Kite.Exchange == "" {
		c.Kite.Exchange = "NSE"
	}
	if c.Kite.Product == "" {
		c.Kite.Product = "MIS"
	}
	if c.Kite.LookbackDays == 0 {
		c.Kite.LookbackDays = 5
	}
	if c.Paper.StartingBalance == 0 {
		c.Paper.StartingBalance = 10000
	}
	if c.LogDir == "" {
		c.LogDir = "logs"
	}
}
