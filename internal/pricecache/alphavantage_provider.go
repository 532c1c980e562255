package pricecache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageProvider implements MarketDataProvider using Alpha Vantage's
// TIME_SERIES_DAILY endpoint requested at full output size.
type AlphaVantageProvider struct {
	apiKey     string
	httpClient *http.Client
}

// NewAlphaVantageProvider creates a new Alpha Vantage market data provider.
func NewAlphaVantageProvider(apiKey string) *AlphaVantageProvider {
	return &AlphaVantageProvider{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// IsAvailable checks if the provider is configured with an API key.
func (p *AlphaVantageProvider) IsAvailable() bool {
	return p.apiKey != ""
}

// FetchDailySeries downloads the full daily OHLCV history for symbol,
// making up to 3 attempts with exponential backoff on transient failures
// (5xx responses, network errors). Rate limit and other download errors
// are returned without a retry.
func (p *AlphaVantageProvider) FetchDailySeries(ctx context.Context, symbol string) ([]PricePoint, error) {
	if !p.IsAvailable() {
		return nil, &TransientFailError{Symbol: symbol, Message: "alpha vantage API key not configured"}
	}

	const retries = 3

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		series, err := p.fetchOnce(ctx, symbol)
		if err == nil {
			return series, nil
		}

		if isRateLimited(err) {
			return nil, err
		}
		if _, transient := err.(*TransientFailError); !transient {
			return nil, err
		}

		lastErr = err
		if attempt < retries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(1<<attempt) * time.Second):
			}
		}
	}

	return nil, &TransientFailError{Symbol: symbol, Message: lastErr.Error()}
}

func isRateLimited(err error) bool {
	_, ok := err.(*RateLimitedError)
	return ok
}

func (p *AlphaVantageProvider) fetchOnce(ctx context.Context, symbol string) ([]PricePoint, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", "full")
	params.Set("apikey", p.apiKey)

	reqURL := fmt.Sprintf("%s?%s", alphaVantageBaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &TransientFailError{Symbol: symbol, Message: err.Error()}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, &RateLimitedError{Symbol: symbol, Message: "HTTP 429: too many requests"}
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &TransientFailError{Symbol: symbol, Message: fmt.Sprintf("server error: %d", resp.StatusCode)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alpha vantage returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var result struct {
		TimeSeriesDaily map[string]struct {
			Open   string `json:"1. open"`
			High   string `json:"2. high"`
			Low    string `json:"3. low"`
			Close  string `json:"4. close"`
			Volume string `json:"5. volume"`
		} `json:"Time Series (Daily)"`
		ErrorMessage string `json:"Error Message"`
		Note         string `json:"Note"`
		Information  string `json:"Information"`
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if result.ErrorMessage != "" {
		return nil, fmt.Errorf("API error: %s", result.ErrorMessage)
	}
	if result.Note != "" {
		if strings.Contains(strings.ToLower(result.Note), "call frequency") ||
			strings.Contains(strings.ToLower(result.Note), "rate limit") {
			return nil, &RateLimitedError{Symbol: symbol, Message: result.Note}
		}
	}
	if result.Information != "" {
		info := strings.ToLower(result.Information)
		if strings.Contains(info, "premium") || strings.Contains(info, "limit") {
			return nil, &RateLimitedError{Symbol: symbol, Message: result.Information}
		}
	}
	if len(result.TimeSeriesDaily) == 0 {
		return nil, fmt.Errorf("no data found for symbol %s", symbol)
	}

	series := make([]PricePoint, 0, len(result.TimeSeriesDaily))
	for dateStr, data := range result.TimeSeriesDaily {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			continue
		}

		open, err := decimal.NewFromString(data.Open)
		if err != nil {
			continue
		}
		close, err := decimal.NewFromString(data.Close)
		if err != nil {
			continue
		}
		high, _ := decimal.NewFromString(data.High)
		low, _ := decimal.NewFromString(data.Low)
		volume, _ := decimal.NewFromString(data.Volume)

		series = append(series, PricePoint{
			Date:   date,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: volume.IntPart(),
		})
	}

	return series, nil
}
