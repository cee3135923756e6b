package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Server struct {
	Addr string `yaml:"addr"`
}

type Gate struct {
	OpenET  string `yaml:"open_et"`  // "HH:MM"
	CloseET string `yaml:"close_et"` // "HH:MM", inclusive
}

type RegimeControls struct {
	RiskScale    float64 `yaml:"risk_scale"`
	MaxPositions int     `yaml:"max_positions"`
}

type Policy struct {
	Version        string         `yaml:"version"`
	VIXModerate    float64        `yaml:"vix_moderate"`
	VIXHigh        float64        `yaml:"vix_high"`
	GapModerate    float64        `yaml:"gap_moderate"`
	GapHigh        float64        `yaml:"gap_high"`
	BreadthRiskOff float64        `yaml:"breadth_risk_off"`
	Normal         RegimeControls `yaml:"normal"`
	Moderate       RegimeControls `yaml:"moderate_risk"`
	High           RegimeControls `yaml:"high_risk"`
}

type Perf struct {
	StartingEquity  float64 `yaml:"starting_equity"`
	ProfitFactorCap float64 `yaml:"profit_factor_cap"`
}

type Journal struct {
	Path string `yaml:"path"`
}

type Alpaca struct {
	BaseURL            string `yaml:"base_url"`
	KeyID              string `yaml:"key_id"`     // ALPACA_KEY_ID overrides
	SecretKey          string `yaml:"secret_key"` // ALPACA_SECRET_KEY overrides
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
	DailyCap           int    `yaml:"daily_cap"`
}

type Yahoo struct {
	BaseURL            string `yaml:"base_url"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type MarketData struct {
	Alpaca              Alpaca `yaml:"alpaca"`
	Yahoo               Yahoo  `yaml:"yahoo"`
	CacheHighVolumeSecs int    `yaml:"cache_high_volume_seconds"`
	CacheNormalSecs     int    `yaml:"cache_normal_seconds"`
}

type Alerts struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"` // DISCORD_WEBHOOK_URL overrides
	Username          string `yaml:"username"`
	DedupeWindowSecs  int    `yaml:"dedupe_window_seconds"`
	RateLimitPerMin   int    `yaml:"rate_limit_per_minute"`
}

type Report struct {
	WeeklyCron string `yaml:"weekly_cron"`
	DailyCron  string `yaml:"daily_cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

type Entitlement struct {
	DefaultTier string   `yaml:"default_tier"` // "free" | "pro"
	ProAPIKeys  []string `yaml:"pro_api_keys"`
}

type Root struct {
	Server      Server      `yaml:"server"`
	Gate        Gate        `yaml:"gate"`
	Policy      Policy      `yaml:"policy"`
	Perf        Perf        `yaml:"perf"`
	Journal     Journal     `yaml:"journal"`
	MarketData  MarketData  `yaml:"market_data"`
	Alerts      Alerts      `yaml:"alerts"`
	Report      Report      `yaml:"report"`
	Entitlement Entitlement `yaml:"entitlement"`
}

// Load reads the YAML config, applies defaults, and pulls secrets from the
// environment. A missing file yields the full default config.
func Load(path string) (Root, error) {
	var c Root
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return c, err
		}
		if err == nil {
			if err := yaml.Unmarshal(b, &c); err != nil {
				return c, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}

	if c.Gate.OpenET == "" {
		c.Gate.OpenET = "10:00"
	}
	if c.Gate.CloseET == "" {
		c.Gate.CloseET = "15:55"
	}

	if c.Policy.Version == "" {
		c.Policy.Version = "v1"
	}
	if c.Policy.VIXModerate == 0 {
		c.Policy.VIXModerate = 18
	}
	if c.Policy.VIXHigh == 0 {
		c.Policy.VIXHigh = 25
	}
	if c.Policy.GapModerate == 0 {
		c.Policy.GapModerate = 0.8
	}
	if c.Policy.GapHigh == 0 {
		c.Policy.GapHigh = 1.5
	}
	if c.Policy.BreadthRiskOff == 0 {
		c.Policy.BreadthRiskOff = -0.5
	}
	if c.Policy.Normal.RiskScale == 0 {
		c.Policy.Normal.RiskScale = 1.0
	}
	if c.Policy.Moderate.RiskScale == 0 {
		c.Policy.Moderate.RiskScale = 0.5
	}
	if c.Policy.Moderate.MaxPositions == 0 {
		c.Policy.Moderate.MaxPositions = 3
	}

	if c.Perf.StartingEquity == 0 {
		c.Perf.StartingEquity = 100000
	}
	if c.Perf.ProfitFactorCap == 0 {
		c.Perf.ProfitFactorCap = 99
	}

	if c.Journal.Path == "" {
		c.Journal.Path = "data/journal.db"
	}

	if c.MarketData.CacheHighVolumeSecs == 0 {
		c.MarketData.CacheHighVolumeSecs = 300
	}
	if c.MarketData.CacheNormalSecs == 0 {
		c.MarketData.CacheNormalSecs = 600
	}

	if c.Alerts.Username == "" {
		c.Alerts.Username = "tradegate"
	}
	if c.Alerts.DedupeWindowSecs == 0 {
		c.Alerts.DedupeWindowSecs = 300
	}
	if c.Alerts.RateLimitPerMin == 0 {
		c.Alerts.RateLimitPerMin = 20
	}

	if c.Entitlement.DefaultTier == "" {
		c.Entitlement.DefaultTier = "free"
	}

	// Secrets come from the environment, never the file on disk.
	if v := os.Getenv("ALPACA_KEY_ID"); v != "" {
		c.MarketData.Alpaca.KeyID = v
	}
	if v := os.Getenv("ALPACA_SECRET_KEY"); v != "" {
		c.MarketData.Alpaca.SecretKey = v
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		c.Alerts.DiscordWebhookURL = v
	}

	return c, nil
}

// ParseHourMinute splits "HH:MM" into its components.
func ParseHourMinute(s string) (int, int, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, minute, nil
}
