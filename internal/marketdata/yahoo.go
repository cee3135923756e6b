package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// YahooConfig holds configuration for the Yahoo Finance chart API client.
// Yahoo needs no credentials, which is what makes it the fallback provider.
type YahooConfig struct {
	BaseURL            string
	RateLimitPerMinute int
	TimeoutSeconds     int
}

// YahooProvider implements Provider against the public chart endpoint.
type YahooProvider struct {
	cfg         YahooConfig
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// yahooChart mirrors the chart response fields we read. Price and previous
// close come from meta; history arrays are not requested.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				RegularMarketVol   int64   `json:"regularMarketVolume"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func NewYahooProvider(cfg YahooConfig) *YahooProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com"
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 60
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	return &YahooProvider{
		cfg:         cfg,
		httpClient:  &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(float64(cfg.RateLimitPerMinute)/60), 1),
	}
}

func (p *YahooProvider) Name() string { return "yahoo" }

func (p *YahooProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("empty symbol")
	}
	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?range=1d&interval=1d", p.cfg.BaseURL, url.PathEscape(symbol))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "tradegate/1.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("yahoo status %d for %s: %s", resp.StatusCode, symbol, strings.TrimSpace(string(body)))
	}

	var chart yahooChart
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, fmt.Errorf("decode yahoo chart for %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo error for %s: %s", symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo returned no result for %s", symbol)
	}

	meta := chart.Chart.Result[0].Meta
	ts := time.Now().UTC()
	if meta.RegularMarketTime > 0 {
		ts = time.Unix(meta.RegularMarketTime, 0).UTC()
	}
	quote := &Quote{
		Symbol:        symbol,
		Last:          meta.RegularMarketPrice,
		PreviousClose: meta.PreviousClose,
		Volume:        meta.RegularMarketVol,
		Timestamp:     ts,
		Source:        p.Name(),
	}
	deriveChange(quote)
	if err := ValidateQuote(quote); err != nil {
		return nil, err
	}
	return quote, nil
}

func (p *YahooProvider) HealthCheck(ctx context.Context) error {
	_, err := p.GetQuote(ctx, "SPY")
	return err
}

func (p *YahooProvider) Close() error { return nil }
