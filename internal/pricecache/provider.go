package pricecache

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is a single day's OHLCV bar for a symbol, as returned by
// a MarketDataProvider before it is persisted as a models.PricePoint.
type PricePoint struct {
	Date   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}

// MarketDataProvider fetches full daily price history for a symbol.
type MarketDataProvider interface {
	// FetchDailySeries returns the full available daily OHLCV history for
	// symbol. Implementations classify upstream failures as RateLimitedError
	// or TransientFailError so callers can decide whether to retry.
	FetchDailySeries(ctx context.Context, symbol string) ([]PricePoint, error)

	// IsAvailable reports whether the provider is configured (has an API key).
	IsAvailable() bool
}

// RateLimitedError indicates the upstream provider throttled the request.
// Callers should stop issuing further requests this cycle rather than retry.
type RateLimitedError struct {
	Symbol  string
	Message string
}

func (e *RateLimitedError) Error() string {
	return "rate limited fetching " + e.Symbol + ": " + e.Message
}

// TransientFailError indicates a retryable failure (server error, network
// blip) distinct from a permanent download error.
type TransientFailError struct {
	Symbol  string
	Message string
}

func (e *TransientFailError) Error() string {
	return "transient failure fetching " + e.Symbol + ": " + e.Message
}
