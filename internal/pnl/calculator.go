// Package pnl computes the profit-and-loss figures that open each trading
// session: starting portfolio value, daily profit, daily return percentage,
// and days since the model last traded. It is a pure function package with
// no Store or PriceCache dependency, grounded on the original agent's
// pnl_calculator.
package pnl

import (
	"time"

	"github.com/shopspring/decimal"
)

// PreviousSession carries the prior trading day state a new session is
// revalued against. Nil means there is no prior session for the model.
type PreviousSession struct {
	Date                 time.Time
	EndingCash           decimal.Decimal
	EndingPortfolioValue decimal.Decimal
	Holdings             map[string]int
}

// Input is everything Calculate needs to produce one session's opening P&L.
type Input struct {
	Previous      *PreviousSession
	CurrentDate   time.Time
	CurrentPrices map[string]decimal.Decimal
	InitialCash   decimal.Decimal
}

// Result is the opening P&L figures for a session.
type Result struct {
	StartingPortfolioValue decimal.Decimal
	DailyProfit            decimal.Decimal
	DailyReturnPct         decimal.Decimal
	DaysSinceLastTrading   int
}

// MissingPriceError reports that a held symbol has no price on the current
// date, making revaluation impossible.
type MissingPriceError struct {
	Symbol string
}

func (e *MissingPriceError) Error() string {
	return "missing price for held symbol " + e.Symbol
}

// Calculate computes the opening P&L for a session. On the first-ever day
// for a model (Previous == nil), starting_portfolio_value is the initial
// cash constant and every other figure is zero, per the first-day invariant.
func Calculate(in Input) (Result, error) {
	if in.Previous == nil {
		return Result{
			StartingPortfolioValue: in.InitialCash,
			DailyProfit:            decimal.Zero,
			DailyReturnPct:         decimal.Zero,
			DaysSinceLastTrading:   0,
		}, nil
	}

	startingValue := in.Previous.EndingCash
	for symbol, qty := range in.Previous.Holdings {
		price, ok := in.CurrentPrices[symbol]
		if !ok {
			return Result{}, &MissingPriceError{Symbol: symbol}
		}
		startingValue = startingValue.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}

	dailyProfit := startingValue.Sub(in.Previous.EndingPortfolioValue)

	dailyReturnPct := decimal.Zero
	if !in.Previous.EndingPortfolioValue.IsZero() {
		dailyReturnPct = dailyProfit.Div(in.Previous.EndingPortfolioValue).Mul(decimal.NewFromInt(100))
	}

	daysSince := daysBetween(in.Previous.Date, in.CurrentDate)

	return Result{
		StartingPortfolioValue: startingValue,
		DailyProfit:            dailyProfit,
		DailyReturnPct:         dailyReturnPct,
		DaysSinceLastTrading:   daysSince,
	}, nil
}

// daysBetween returns the whole calendar days between two UTC-midnight dates.
func daysBetween(earlier, later time.Time) int {
	d := later.Sub(earlier)
	days := int(d.Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
