package marketdata

import (
	"context"
	"fmt"

	"github.com/pennantlabs/tradegate/internal/observ"
)

// Manager serves quotes from the cache, the primary provider, and a fallback
// provider, in that order. Provider failures degrade instead of surfacing:
// the fallback result is cached and returned like any other quote.
type Manager struct {
	primary  Provider
	fallback Provider // may be nil
	cache    *QuoteCache
}

func NewManager(primary, fallback Provider, cache *QuoteCache) *Manager {
	return &Manager{primary: primary, fallback: fallback, cache: cache}
}

// GetQuote returns a quote for symbol, consulting cache then providers.
func (m *Manager) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	if cached, ok := m.cache.Get(symbol); ok {
		return &cached, nil
	}

	observ.IncCounter("quote_requests_total", map[string]string{"symbol": symbol})

	quote, err := m.primary.GetQuote(ctx, symbol)
	if err != nil {
		observ.IncCounter("quote_errors_total", map[string]string{"provider": m.primary.Name()})
		observ.SetGauge("provider_health_status", 1, map[string]string{"provider": m.primary.Name()})

		if m.fallback == nil {
			return nil, fmt.Errorf("quote for %s: %w", symbol, err)
		}
		observ.Error("quote_primary_failed", err, map[string]any{
			"symbol": symbol, "provider": m.primary.Name(), "fallback": m.fallback.Name(),
		})
		observ.IncCounter("quote_fallbacks_total", map[string]string{"symbol": symbol})

		quote, err = m.fallback.GetQuote(ctx, symbol)
		if err != nil {
			observ.IncCounter("quote_errors_total", map[string]string{"provider": m.fallback.Name()})
			return nil, fmt.Errorf("quote for %s (both providers failed): %w", symbol, err)
		}
	} else {
		observ.SetGauge("provider_health_status", 2, map[string]string{"provider": m.primary.Name()})
	}

	m.cache.Put(*quote)
	return quote, nil
}

// GetQuotes fan-outs over symbols sequentially; partial results are returned
// with the first error encountered.
func (m *Manager) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	out := make(map[string]*Quote, len(symbols))
	var firstErr error
	for _, s := range symbols {
		q, err := m.GetQuote(ctx, s)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		out[s] = q
	}
	return out, firstErr
}

func (m *Manager) Close() error {
	err := m.primary.Close()
	if m.fallback != nil {
		if ferr := m.fallback.Close(); err == nil {
			err = ferr
		}
	}
	return err
}
