package agentruntime

import (
	"context"
	"fmt"
	"time"

	"github.com/lucasmv/backtestsim/internal/models"
	"github.com/lucasmv/backtestsim/internal/runtimectx"
)

// stockRotation mirrors the original mock provider's fixed rotation, used so
// tests can assert a concrete trade sequence without a real LLM call.
var stockRotation = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
	"META", "TSLA", "UNH", "JNJ", "JPM",
}

// epoch anchors the rotation's day offset, matching the original provider's
// fixed reference date.
var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// MockAgentRuntime deterministically buys a small quantity of one rotating
// symbol per session, selected by the day offset from epoch. cmd/api wires
// it as the agent runtime for every model in every DEPLOYMENT_MODE; there
// is no per-model runtime selection.
type MockAgentRuntime struct {
	tradeQty int
}

// NewMockAgentRuntime constructs a mock runtime that buys tradeQty shares of
// the day's rotated symbol each session.
func NewMockAgentRuntime(tradeQty int) *MockAgentRuntime {
	if tradeQty <= 0 {
		tradeQty = 5
	}
	return &MockAgentRuntime{tradeQty: tradeQty}
}

// Execute picks today's rotated symbol and attempts a single buy, recording
// the decision (and any tool-level rejection) in the returned transcript.
func (m *MockAgentRuntime) Execute(_ context.Context, rc runtimectx.Context, trader Trader, _ int) (models.ReasoningList, CompletionMetadata, error) {
	dayOffset := int(rc.Date.Sub(epoch).Hours() / 24)
	if dayOffset < 0 {
		dayOffset = -dayOffset
	}
	symbol := stockRotation[dayOffset%len(stockRotation)]

	transcript := models.ReasoningList{
		{Role: "assistant", Content: fmt.Sprintf("Let me analyze the market for today (%s).", rc.Date.Format("2006-01-02"))},
		{Role: "assistant", Content: fmt.Sprintf("I'll check the current price for %s.", symbol)},
	}

	meta := CompletionMetadata{StepsUsed: 1}

	_, err := trader.Buy(symbol, m.tradeQty)
	meta.ToolCallCount++
	switch err {
	case nil:
		meta.TradeCount++
		transcript = append(transcript, models.ReasoningMessage{
			Role:    "tool",
			Content: fmt.Sprintf("bought %d %s", m.tradeQty, symbol),
		})
	default:
		transcript = append(transcript, models.ReasoningMessage{
			Role:    "tool",
			Content: fmt.Sprintf("buy rejected: %v", err),
		})
	}

	transcript = append(transcript, models.ReasoningMessage{Role: "assistant", Content: "I've completed today's trading session."})

	return transcript, meta, nil
}
