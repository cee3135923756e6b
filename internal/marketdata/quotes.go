package marketdata

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Provider fetches quotes from one upstream source.
type Provider interface {
	Name() string
	GetQuote(ctx context.Context, symbol string) (*Quote, error)
	HealthCheck(ctx context.Context) error
	Close() error
}

// Quote is normalized market data from any provider.
type Quote struct {
	Symbol        string    `json:"symbol"`
	Last          float64   `json:"last"`
	PreviousClose float64   `json:"previous_close"`
	Change        float64   `json:"change"`
	ChangePct     float64   `json:"change_pct"`
	Volume        int64     `json:"volume"`
	Timestamp     time.Time `json:"timestamp"`
	Source        string    `json:"source"` // "alpaca" | "yahoo" | "mock"
}

// ValidateQuote rejects quotes that would poison downstream computations.
func ValidateQuote(q *Quote) error {
	if q == nil {
		return fmt.Errorf("quote is nil")
	}
	q.Symbol = strings.ToUpper(strings.TrimSpace(q.Symbol))
	if q.Symbol == "" {
		return fmt.Errorf("empty symbol")
	}
	if q.Last <= 0 {
		return fmt.Errorf("invalid last price %.4f for %s", q.Last, q.Symbol)
	}
	if q.PreviousClose < 0 {
		return fmt.Errorf("negative previous close %.4f for %s", q.PreviousClose, q.Symbol)
	}
	if q.Volume < 0 {
		return fmt.Errorf("negative volume %d for %s", q.Volume, q.Symbol)
	}
	if q.Timestamp.After(time.Now().Add(5 * time.Minute)) {
		return fmt.Errorf("quote timestamp in the future: %v", q.Timestamp)
	}
	return nil
}

// deriveChange fills Change/ChangePct from last and previous close.
func deriveChange(q *Quote) {
	if q.PreviousClose > 0 {
		q.Change = q.Last - q.PreviousClose
		q.ChangePct = q.Change / q.PreviousClose * 100
	}
}
