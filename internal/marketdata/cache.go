package marketdata

import (
	"sync"
	"time"

	"github.com/pennantlabs/tradegate/internal/observ"
)

// Popular tickers trade on much tighter caching than the long tail.
var highVolumeTickers = map[string]bool{
	"AAPL": true, "MSFT": true, "GOOGL": true, "AMZN": true, "META": true,
	"TSLA": true, "NVDA": true, "BTC-USD": true, "ETH-USD": true,
	"^GSPC": true, "^IXIC": true, "^DJI": true, "^VIX": true,
}

// CacheConfig holds the tiered TTLs.
type CacheConfig struct {
	HighVolumeTTL time.Duration // default 5m
	NormalTTL     time.Duration // default 10m
}

// DefaultCacheConfig mirrors the product's tiered quote caching.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{HighVolumeTTL: 5 * time.Minute, NormalTTL: 10 * time.Minute}
}

type cachedQuote struct {
	quote    Quote
	cachedAt time.Time
}

// QuoteCache is a thread-safe TTL cache with per-symbol tiering.
type QuoteCache struct {
	mu     sync.RWMutex
	quotes map[string]cachedQuote
	cfg    CacheConfig
}

func NewQuoteCache(cfg CacheConfig) *QuoteCache {
	if cfg.HighVolumeTTL <= 0 {
		cfg.HighVolumeTTL = 5 * time.Minute
	}
	if cfg.NormalTTL <= 0 {
		cfg.NormalTTL = 10 * time.Minute
	}
	return &QuoteCache{quotes: make(map[string]cachedQuote), cfg: cfg}
}

// TTL returns the cache duration applied to symbol.
func (c *QuoteCache) TTL(symbol string) time.Duration {
	if highVolumeTickers[symbol] {
		return c.cfg.HighVolumeTTL
	}
	return c.cfg.NormalTTL
}

// Get returns a cached quote that is still within its TTL.
func (c *QuoteCache) Get(symbol string) (Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cached, ok := c.quotes[symbol]
	if !ok || time.Since(cached.cachedAt) > c.TTL(symbol) {
		observ.IncCounter("quote_cache_misses_total", map[string]string{"symbol": symbol})
		return Quote{}, false
	}
	observ.IncCounter("quote_cache_hits_total", map[string]string{"symbol": symbol})
	return cached.quote, true
}

// Put stores a quote with the current time as its cache timestamp.
func (c *QuoteCache) Put(q Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.quotes[q.Symbol] = cachedQuote{quote: q, cachedAt: time.Now()}
	observ.SetGauge("quote_cache_size", float64(len(c.quotes)), nil)
}
