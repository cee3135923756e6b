package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// AlpacaConfig holds configuration for the Alpaca data API client.
type AlpacaConfig struct {
	BaseURL            string
	KeyID              string
	SecretKey          string
	RateLimitPerMinute int
	DailyCap           int
	TimeoutSeconds     int
}

// AlpacaProvider implements Provider against the Alpaca market data API.
type AlpacaProvider struct {
	cfg         AlpacaConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter

	mu              sync.Mutex
	requestsToday   int
	budgetResetTime time.Time
}

// alpacaSnapshot is the subset of /v2/stocks/{symbol}/snapshot we consume.
type alpacaSnapshot struct {
	LatestTrade struct {
		Price float64 `json:"p"`
		Time  string  `json:"t"`
	} `json:"latestTrade"`
	DailyBar struct {
		Volume int64 `json:"v"`
	} `json:"dailyBar"`
	PrevDailyBar struct {
		Close float64 `json:"c"`
	} `json:"prevDailyBar"`
}

func NewAlpacaProvider(cfg AlpacaConfig) (*AlpacaProvider, error) {
	if cfg.KeyID == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("alpaca credentials are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://data.alpaca.markets"
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 200
	}
	if cfg.DailyCap <= 0 {
		cfg.DailyCap = 10000
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	return &AlpacaProvider{
		cfg:             cfg,
		httpClient:      &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		rateLimiter:     rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), 1),
		budgetResetTime: time.Now().Add(24 * time.Hour),
	}, nil
}

func (p *AlpacaProvider) Name() string { return "alpaca" }

func (p *AlpacaProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if err := p.spendBudget(); err != nil {
		return nil, err
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v2/stocks/%s/snapshot", p.cfg.BaseURL, symbol)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("APCA-API-KEY-ID", p.cfg.KeyID)
	req.Header.Set("APCA-API-SECRET-KEY", p.cfg.SecretKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alpaca request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("alpaca status %d for %s: %s", resp.StatusCode, symbol, strings.TrimSpace(string(body)))
	}

	var snap alpacaSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode alpaca snapshot for %s: %w", symbol, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, snap.LatestTrade.Time)
	if err != nil {
		ts = time.Now().UTC()
	}
	quote := &Quote{
		Symbol:        symbol,
		Last:          snap.LatestTrade.Price,
		PreviousClose: snap.PrevDailyBar.Close,
		Volume:        snap.DailyBar.Volume,
		Timestamp:     ts,
		Source:        p.Name(),
	}
	deriveChange(quote)
	if err := ValidateQuote(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (p *AlpacaProvider) HealthCheck(ctx context.Context) error {
	_, err := p.GetQuote(ctx, "SPY")
	return err
}

func (p *AlpacaProvider) Close() error { return nil }

// spendBudget enforces the daily request cap, resetting every 24h.
func (p *AlpacaProvider) spendBudget() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if time.Now().After(p.budgetResetTime) {
		p.requestsToday = 0
		p.budgetResetTime = time.Now().Add(24 * time.Hour)
	}
	if p.requestsToday >= p.cfg.DailyCap {
		return fmt.Errorf("alpaca daily request budget exhausted (%d)", p.cfg.DailyCap)
	}
	p.requestsToday++
	return nil
}
