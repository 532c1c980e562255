// Package pricecache handles on-demand price downloads and coverage
// tracking: which dates have complete data across a tracked symbol
// universe, which symbols are missing data, and downloading the missing
// symbols in priority order until the upstream provider rate limits.
package pricecache

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

// Cache coordinates a MarketDataProvider with the price point and coverage
// repositories to keep a requested date range populated.
type Cache struct {
	provider MarketDataProvider
	points   repository.PricePointRepository
	coverage repository.CoverageRepository
	symbols  []string
	logger   zerolog.Logger
}

// NewCache constructs a Cache over the tracked symbol universe.
func NewCache(provider MarketDataProvider, points repository.PricePointRepository, coverage repository.CoverageRepository, trackedSymbols []string, logger zerolog.Logger) *Cache {
	return &Cache{
		provider: provider,
		points:   points,
		coverage: coverage,
		symbols:  trackedSymbols,
		logger:   logger,
	}
}

// DownloadResult summarizes a priority-ordered download pass, mirroring the
// original implementation's on-demand fetch report.
type DownloadResult struct {
	Downloaded    []string
	Failed        []string
	RateLimited   bool
	DatesComplete []time.Time
}

// EnsureCoverage downloads whatever symbols are missing data across
// requestedDates, in priority order (symbols that would complete the most
// requested dates first), stopping as soon as the provider rate-limits.
func (c *Cache) EnsureCoverage(ctx context.Context, requestedDates []time.Time) (*DownloadResult, error) {
	missing, err := c.missingCoverage(requestedDates)
	if err != nil {
		return nil, err
	}

	prioritized := prioritize(missing, requestedDates)

	result := &DownloadResult{}

	for i, symbol := range prioritized {
		series, err := c.provider.FetchDailySeries(ctx, symbol)
		if err != nil {
			if _, ok := err.(*RateLimitedError); ok {
				c.logger.Warn().Str("symbol", symbol).Int("downloaded", len(result.Downloaded)).Msg("price provider rate limited, stopping download pass")
				result.RateLimited = true
				result.Failed = append(result.Failed, prioritized[i:]...)
				break
			}
			c.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to download price series")
			result.Failed = append(result.Failed, symbol)
			continue
		}

		stored, err := c.store(symbol, series, requestedDates)
		if err != nil {
			return nil, err
		}

		result.Downloaded = append(result.Downloaded, symbol)
		c.logger.Info().Str("symbol", symbol).Int("stored", stored).Msg("downloaded price series")
	}

	if err := c.recalculateCoverage(requestedDates); err != nil {
		return nil, err
	}

	completed, err := c.coverage.FindCompletedDates(requestedDates[0], requestedDates[len(requestedDates)-1])
	if err != nil {
		return nil, err
	}
	result.DatesComplete = completed

	return result, nil
}

// Symbols returns the tracked symbol universe.
func (c *Cache) Symbols() []string {
	return c.symbols
}

// AvailableTradingDates returns, in order, the dates within [start, end]
// whose coverage is complete across the full tracked-symbol universe.
func (c *Cache) AvailableTradingDates(start, end time.Time) ([]time.Time, error) {
	return c.coverage.FindCompletedDates(start, end)
}

// GetOpenPrices returns the opening price of each requested symbol on date,
// used by the ledger to value trades executed at the session's open.
func (c *Cache) GetOpenPrices(date time.Time, symbols []string) (map[string]decimal.Decimal, error) {
	return c.points.GetOpenPrices(date, symbols)
}

// store persists only the symbol's daily points that fall within requestedDates.
func (c *Cache) store(symbol string, series []PricePoint, requestedDates []time.Time) (int, error) {
	wanted := make(map[time.Time]bool, len(requestedDates))
	for _, d := range requestedDates {
		wanted[d] = true
	}

	stored := 0
	for _, p := range series {
		if !wanted[p.Date] {
			continue
		}
		point := &models.PricePoint{
			Symbol: symbol,
			Date:   p.Date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		}
		if point.Open.IsZero() {
			point.Open = p.Close
		}
		if err := c.points.Upsert(point); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// missingCoverage maps each tracked symbol to the requested dates it has no
// cached price for.
func (c *Cache) missingCoverage(requestedDates []time.Time) (map[string][]time.Time, error) {
	if len(requestedDates) == 0 {
		return nil, nil
	}

	start, end := requestedDates[0], requestedDates[0]
	for _, d := range requestedDates {
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}

	missing := make(map[string][]time.Time)
	for _, symbol := range c.symbols {
		cached, err := c.points.FindDatesForSymbol(symbol, start, end)
		if err != nil {
			return nil, err
		}

		var gaps []time.Time
		for _, d := range requestedDates {
			if !cached[d] {
				gaps = append(gaps, d)
			}
		}
		if len(gaps) > 0 {
			missing[symbol] = gaps
		}
	}

	return missing, nil
}

// prioritize orders symbols by how many requested dates each would complete,
// highest impact first — the same impact-score ordering as the original
// download prioritization.
func prioritize(missing map[string][]time.Time, requestedDates []time.Time) []string {
	type impact struct {
		symbol string
		score  int
	}

	requested := make(map[time.Time]bool, len(requestedDates))
	for _, d := range requestedDates {
		requested[d] = true
	}

	impacts := make([]impact, 0, len(missing))
	for symbol, gaps := range missing {
		score := 0
		for _, d := range gaps {
			if requested[d] {
				score++
			}
		}
		if score > 0 {
			impacts = append(impacts, impact{symbol: symbol, score: score})
		}
	}

	sort.Slice(impacts, func(i, j int) bool {
		if impacts[i].score != impacts[j].score {
			return impacts[i].score > impacts[j].score
		}
		return impacts[i].symbol < impacts[j].symbol
	})

	symbols := make([]string, len(impacts))
	for i, imp := range impacts {
		symbols[i] = imp.symbol
	}
	return symbols
}

// recalculateCoverage updates each requested date's CoverageSpan based on
// how many tracked symbols now have a price point for it.
func (c *Cache) recalculateCoverage(requestedDates []time.Time) error {
	total := len(c.symbols)

	for _, date := range requestedDates {
		present := 0
		for _, symbol := range c.symbols {
			if _, err := c.points.FindBySymbolAndDate(symbol, date); err == nil {
				present++
			}
		}

		span := &models.CoverageSpan{Date: date, SymbolsPresent: present, SymbolsTotal: total}
		span.Recalculate()
		if err := c.coverage.Upsert(span); err != nil {
			return err
		}
	}

	return nil
}
