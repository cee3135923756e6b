package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuote(t *testing.T) {
	q := &Quote{Symbol: " nvda ", Last: 123.4, PreviousClose: 120, Timestamp: time.Now()}
	require.NoError(t, ValidateQuote(q))
	assert.Equal(t, "NVDA", q.Symbol)

	assert.Error(t, ValidateQuote(nil))
	assert.Error(t, ValidateQuote(&Quote{Symbol: "NVDA", Last: 0}))
	assert.Error(t, ValidateQuote(&Quote{Symbol: "NVDA", Last: 10, Volume: -1}))
}

func TestCacheTiers(t *testing.T) {
	cache := NewQuoteCache(DefaultCacheConfig())
	assert.Equal(t, 5*time.Minute, cache.TTL("AAPL"))
	assert.Equal(t, 5*time.Minute, cache.TTL("^VIX"))
	assert.Equal(t, 10*time.Minute, cache.TTL("XYZ"))
}

func TestCacheGetPut(t *testing.T) {
	cache := NewQuoteCache(DefaultCacheConfig())
	if _, ok := cache.Get("SPY"); ok {
		t.Fatal("empty cache should miss")
	}
	cache.Put(Quote{Symbol: "SPY", Last: 500})
	got, ok := cache.Get("SPY")
	require.True(t, ok)
	assert.Equal(t, 500.0, got.Last)
}

func TestManagerFallback(t *testing.T) {
	primary := NewMockProvider()
	primary.SetFailing(true)
	fallback := NewMockProvider()
	fallback.SetQuote("SPY", 500, 495)

	mgr := NewManager(primary, fallback, NewQuoteCache(DefaultCacheConfig()))
	q, err := mgr.GetQuote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, 500.0, q.Last)
	assert.InDelta(t, 1.0101, q.ChangePct, 0.001)

	// Second call is served from cache: neither provider is hit again.
	primaryCalls, fallbackCalls := primary.Calls(), fallback.Calls()
	_, err = mgr.GetQuote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, primaryCalls, primary.Calls())
	assert.Equal(t, fallbackCalls, fallback.Calls())
}

func TestManagerBothProvidersFail(t *testing.T) {
	primary := NewMockProvider()
	primary.SetFailing(true)
	fallback := NewMockProvider()
	fallback.SetFailing(true)

	mgr := NewManager(primary, fallback, NewQuoteCache(DefaultCacheConfig()))
	_, err := mgr.GetQuote(context.Background(), "SPY")
	require.Error(t, err)
}

func TestYahooProviderParsesChart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "/v8/finance/chart/SPY")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"chart":{"result":[{"meta":{
			"symbol":"SPY",
			"regularMarketPrice":512.34,
			"chartPreviousClose":508.00,
			"regularMarketVolume":1000000,
			"regularMarketTime":1741100000
		}}],"error":null}}`))
	}))
	defer srv.Close()

	p := NewYahooProvider(YahooConfig{BaseURL: srv.URL})
	q, err := p.GetQuote(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "SPY", q.Symbol)
	assert.Equal(t, 512.34, q.Last)
	assert.Equal(t, 508.0, q.PreviousClose)
	assert.InDelta(t, 0.854, q.ChangePct, 0.001)
	assert.Equal(t, "yahoo", q.Source)
}

func TestYahooProviderSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`))
	}))
	defer srv.Close()

	p := NewYahooProvider(YahooConfig{BaseURL: srv.URL})
	_, err := p.GetQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data found")
}

func TestAlpacaProviderParsesSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))
		_, _ = w.Write([]byte(`{
			"latestTrade":{"p":190.25,"t":"2025-03-04T15:30:00.000Z"},
			"dailyBar":{"v":5000000},
			"prevDailyBar":{"c":188.00}
		}`))
	}))
	defer srv.Close()

	p, err := NewAlpacaProvider(AlpacaConfig{BaseURL: srv.URL, KeyID: "key", SecretKey: "secret"})
	require.NoError(t, err)
	q, err := p.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.25, q.Last)
	assert.Equal(t, int64(5000000), q.Volume)
	assert.Equal(t, "alpaca", q.Source)
}

func TestAlpacaProviderRequiresCredentials(t *testing.T) {
	_, err := NewAlpacaProvider(AlpacaConfig{})
	require.Error(t, err)
}

func TestAlpacaDailyBudget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"latestTrade":{"p":1,"t":"2025-03-04T15:30:00Z"},"dailyBar":{"v":1},"prevDailyBar":{"c":1}}`))
	}))
	defer srv.Close()

	p, err := NewAlpacaProvider(AlpacaConfig{BaseURL: srv.URL, KeyID: "k", SecretKey: "s", DailyCap: 2, RateLimitPerMinute: 6000})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = p.GetQuote(context.Background(), "SPY")
		require.NoError(t, err)
	}
	_, err = p.GetQuote(context.Background(), "SPY")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget")
}

func TestBuildSnapshot(t *testing.T) {
	provider := NewMockProvider()
	provider.SetQuote("^VIX", 22.5, 21.0)
	provider.SetQuote("ES=F", 5050, 5000)

	mgr := NewManager(provider, nil, NewQuoteCache(DefaultCacheConfig()))
	snap, err := mgr.BuildSnapshot(context.Background(), SnapshotInputs{BreadthRiskOff: -0.2})
	require.NoError(t, err)
	assert.Equal(t, 22.5, snap.VIX)
	assert.InDelta(t, 1.0, snap.FuturesGapPct, 1e-9)
	assert.Equal(t, -0.2, snap.BreadthRiskOff)
	assert.False(t, snap.AsOf.IsZero())
}
