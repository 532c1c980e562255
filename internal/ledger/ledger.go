// Package ledger holds the in-memory, per-session portfolio a DayExecutor
// mutates as the agent runtime issues trades. It is confined to a single
// DayExecutor on a single goroutine: no internal locking is needed, and
// nothing is persisted until Finish runs its one atomic batch write.
//
// Grounded on the teacher's Holding.AddShares/RemoveShares bookkeeping,
// adapted from lot-based tax accounting to simple buy/sell cash-and-qty
// accounting.
package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/repository"
)

// PriceLookup resolves the open price of a symbol for the session's date.
// It returns models.ErrMissingPrice when no price is available.
type PriceLookup func(symbol string) (decimal.Decimal, error)

// Snapshot is the portfolio state returned to the caller after a trade.
type Snapshot struct {
	Cash     decimal.Decimal
	Holdings map[string]int
}

// FinishResult is what a DayExecutor receives once a session's trades are
// persisted.
type FinishResult struct {
	EndingCash           decimal.Decimal
	EndingPortfolioValue decimal.Decimal
	TradeCount           int
}

// Ledger is the mutable portfolio of one (model, date) session.
type Ledger struct {
	db           *gorm.DB
	tradingDayID uuid.UUID
	cash         decimal.Decimal
	holdings     map[string]int
	actions      []*models.Action
	priceLookup  PriceLookup
}

// New constructs a Ledger for a session, seeded from the prior session's
// ending state (or initial cash and empty holdings on a model's first day).
func New(db *gorm.DB, tradingDayID uuid.UUID, startingCash decimal.Decimal, startingHoldings map[string]int, priceLookup PriceLookup) *Ledger {
	holdings := make(map[string]int, len(startingHoldings))
	for symbol, qty := range startingHoldings {
		if qty > 0 {
			holdings[symbol] = qty
		}
	}
	return &Ledger{
		db:           db,
		tradingDayID: tradingDayID,
		cash:         startingCash,
		holdings:     holdings,
		priceLookup:  priceLookup,
	}
}

// Cash returns the ledger's current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// Holdings returns a copy of the ledger's current holdings.
func (l *Ledger) Holdings() map[string]int {
	out := make(map[string]int, len(l.holdings))
	for symbol, qty := range l.holdings {
		out[symbol] = qty
	}
	return out
}

// Buy executes a purchase of qty shares of symbol at the session's open
// price, failing with models.ErrInsufficientCash if cash does not cover it.
func (l *Ledger) Buy(symbol string, qty int) (Snapshot, error) {
	if qty < 1 {
		return Snapshot{}, models.ErrInvalidQuantity
	}

	price, err := l.priceLookup(symbol)
	if err != nil {
		return Snapshot{}, err
	}

	cost := price.Mul(decimal.NewFromInt(int64(qty)))
	if l.cash.LessThan(cost) {
		return Snapshot{}, models.ErrInsufficientCash
	}

	l.cash = l.cash.Sub(cost)
	l.holdings[symbol] += qty

	l.actions = append(l.actions, &models.Action{
		Type:           models.ActionTypeBuy,
		Symbol:         symbol,
		Quantity:       qty,
		ExecutionPrice: price,
	})

	return l.snapshot(), nil
}

// Sell executes a sale of qty shares of symbol at the session's open price,
// failing with models.ErrInsufficientShares if the position cannot cover it.
func (l *Ledger) Sell(symbol string, qty int) (Snapshot, error) {
	if qty < 1 {
		return Snapshot{}, models.ErrInvalidQuantity
	}
	if l.holdings[symbol] < qty {
		return Snapshot{}, models.ErrInsufficientShares
	}

	price, err := l.priceLookup(symbol)
	if err != nil {
		return Snapshot{}, err
	}

	l.holdings[symbol] -= qty
	if l.holdings[symbol] == 0 {
		delete(l.holdings, symbol)
	}
	l.cash = l.cash.Add(price.Mul(decimal.NewFromInt(int64(qty))))

	l.actions = append(l.actions, &models.Action{
		Type:           models.ActionTypeSell,
		Symbol:         symbol,
		Quantity:       qty,
		ExecutionPrice: price,
	})

	return l.snapshot(), nil
}

func (l *Ledger) snapshot() Snapshot {
	return Snapshot{Cash: l.cash, Holdings: l.Holdings()}
}

// Finish revalues remaining holdings, then persists the session's actions
// and closing holdings in one transaction alongside the trading day's final
// state. Nothing is written before this call: a crash mid-session leaves no
// partial record, only the JobDetail's failed status.
func (l *Ledger) Finish(day *models.TradingDay, reasoningSummary string, reasoningFull models.ReasoningList, sessionDuration float64) (FinishResult, error) {
	portfolioValue := l.cash
	for symbol, qty := range l.holdings {
		price, err := l.priceLookup(symbol)
		if err != nil {
			return FinishResult{}, fmt.Errorf("revaluing final holdings: %w", err)
		}
		portfolioValue = portfolioValue.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	}

	result := FinishResult{
		EndingCash:           l.cash,
		EndingPortfolioValue: portfolioValue,
		TradeCount:           len(l.actions),
	}

	now := time.Now().UTC()
	err := l.db.Transaction(func(tx *gorm.DB) error {
		txActions := repository.NewActionRepository(tx)
		txHoldings := repository.NewHoldingRepository(tx)
		txDays := repository.NewTradingDayRepository(tx)

		for _, action := range l.actions {
			action.TradingDayID = l.tradingDayID
		}
		if err := txActions.CreateBatch(l.actions); err != nil {
			return err
		}

		var holdingRows []*models.Holding
		for symbol, qty := range l.holdings {
			if qty <= 0 {
				continue
			}
			holdingRows = append(holdingRows, &models.Holding{
				TradingDayID: l.tradingDayID,
				Symbol:       symbol,
				Quantity:     qty,
			})
		}
		if err := txHoldings.CreateBatch(holdingRows); err != nil {
			return err
		}

		day.EndingCash = result.EndingCash
		day.EndingPortfolioVal = result.EndingPortfolioValue
		day.ReasoningSummary = reasoningSummary
		day.ReasoningFull = reasoningFull
		day.TotalActions = result.TradeCount
		day.SessionDurationSecs = sessionDuration
		day.CompletedAt = &now
		return txDays.Update(day)
	})

	if err != nil {
		return FinishResult{}, fmt.Errorf("failed to finish ledger session: %w", err)
	}
	return result, nil
}
