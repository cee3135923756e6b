package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockProvider serves canned quotes for tests and dry runs.
type MockProvider struct {
	mu     sync.Mutex
	quotes map[string]Quote
	fail   bool
	calls  int
}

func NewMockProvider() *MockProvider {
	return &MockProvider{quotes: map[string]Quote{}}
}

// SetQuote registers a canned quote for symbol.
func (p *MockProvider) SetQuote(symbol string, last, previousClose float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	q := Quote{
		Symbol:        symbol,
		Last:          last,
		PreviousClose: previousClose,
		Timestamp:     time.Now().UTC(),
		Source:        p.Name(),
	}
	deriveChange(&q)
	p.quotes[symbol] = q
}

// SetFailing makes every subsequent call return an error.
func (p *MockProvider) SetFailing(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

// Calls returns how many GetQuote calls the mock has served.
func (p *MockProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return nil, fmt.Errorf("mock provider failing")
	}
	q, ok := p.quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("mock has no quote for %s", symbol)
	}
	return &q, nil
}

func (p *MockProvider) HealthCheck(ctx context.Context) error {
	if p.fail {
		return fmt.Errorf("mock provider failing")
	}
	return nil
}

func (p *MockProvider) Close() error { return nil }
