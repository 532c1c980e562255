package pnl

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculate_FirstDay(t *testing.T) {
	result, err := Calculate(Input{
		Previous:      nil,
		CurrentDate:   time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		CurrentPrices: map[string]decimal.Decimal{},
		InitialCash:   decimal.NewFromInt(10000),
	})

	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10000).Equal(result.StartingPortfolioValue))
	assert.True(t, decimal.Zero.Equal(result.DailyProfit))
	assert.True(t, decimal.Zero.Equal(result.DailyReturnPct))
	assert.Equal(t, 0, result.DaysSinceLastTrading)
}

func TestCalculate_RevaluesHoldingsAtCurrentOpen(t *testing.T) {
	previous := &PreviousSession{
		Date:                 time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndingCash:           decimal.NewFromInt(9000),
		EndingPortfolioValue: decimal.NewFromInt(10000),
		Holdings:             map[string]int{"AAPL": 10},
	}

	result, err := Calculate(Input{
		Previous:      previous,
		CurrentDate:   time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
		CurrentPrices: map[string]decimal.Decimal{"AAPL": decimal.NewFromInt(105)},
		InitialCash:   decimal.NewFromInt(10000),
	})

	assert.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10050).Equal(result.StartingPortfolioValue))
	assert.True(t, decimal.NewFromInt(50).Equal(result.DailyProfit))
	assert.True(t, decimal.NewFromFloat(0.5).Equal(result.DailyReturnPct))
	assert.Equal(t, 1, result.DaysSinceLastTrading)
}

func TestCalculate_ZeroPreviousPortfolioValueAvoidsDivideByZero(t *testing.T) {
	previous := &PreviousSession{
		Date:                 time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndingCash:           decimal.Zero,
		EndingPortfolioValue: decimal.Zero,
		Holdings:             map[string]int{},
	}

	result, err := Calculate(Input{
		Previous:      previous,
		CurrentDate:   time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
		CurrentPrices: map[string]decimal.Decimal{},
		InitialCash:   decimal.NewFromInt(10000),
	})

	assert.NoError(t, err)
	assert.True(t, decimal.Zero.Equal(result.DailyReturnPct))
}

func TestCalculate_MissingPriceForHeldSymbol(t *testing.T) {
	previous := &PreviousSession{
		Date:                 time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC),
		EndingCash:           decimal.NewFromInt(9000),
		EndingPortfolioValue: decimal.NewFromInt(10000),
		Holdings:             map[string]int{"AAPL": 10},
	}

	_, err := Calculate(Input{
		Previous:      previous,
		CurrentDate:   time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
		CurrentPrices: map[string]decimal.Decimal{},
		InitialCash:   decimal.NewFromInt(10000),
	})

	assert.Error(t, err)
	missing, ok := err.(*MissingPriceError)
	assert.True(t, ok)
	assert.Equal(t, "AAPL", missing.Symbol)
}
