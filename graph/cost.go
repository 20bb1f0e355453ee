package graph

import (
	"fmt"
	"sync"
	"time"
)

// ModelPricing defines input and output token costs for LLM models.
// Prices are in USD per 1M tokens.
type ModelPricing struct {
	InputPer1M  float64 // Cost per 1M input tokens in USD
	OutputPer1M float64 // Cost per 1M output tokens in USD
}

// Static pricing map for the providers the assistant uses (as of
// 2025-01-01). Prices are in USD per 1M tokens.
//
// Sources:
//   - OpenAI: https://openai.com/pricing
//   - Anthropic: https://anthropic.com/pricing
//   - Google: https://cloud.google.com/vertex-ai/pricing
//
// Note: Prices subject to change. Update this map as providers adjust pricing.
var defaultModelPricing = map[string]ModelPricing{
	// OpenAI GPT-4o
	"gpt-4o": {
		InputPer1M:  2.50,
		OutputPer1M: 10.00,
	},
	"gpt-4o-mini": {
		InputPer1M:  0.15,
		OutputPer1M: 0.60,
	},

	// Anthropic Claude 3.5 Sonnet
	"claude-3-5-sonnet-20241022": {
		InputPer1M:  3.00,
		OutputPer1M: 15.00,
	},
	"claude-3-5-haiku-20241022": {
		InputPer1M:  0.80,
		OutputPer1M: 4.00,
	},
	"claude-3-haiku-20240307": {
		InputPer1M:  0.25,
		OutputPer1M: 1.25,
	},

	// Google Gemini 1.5, used for video analysis
	"gemini-1.5-pro": {
		InputPer1M:  1.25,
		OutputPer1M: 5.00,
	},
	"gemini-1.5-flash": {
		InputPer1M:  0.075,
		OutputPer1M: 0.30,
	},
}

// ModelCall represents a single LLM API invocation with token usage and cost.
type ModelCall struct {
	Model        string    // Model identifier (e.g., "gpt-4o", "gemini-1.5-flash")
	InputTokens  int       // Number of input tokens consumed
	OutputTokens int       // Number of output tokens generated
	CostUSD      float64   // Calculated cost in USD
	Timestamp    time.Time // When the call was made
	NodeID       string    // Node that made the call (optional)
}

// CostTracker accumulates token usage and spend across the model calls of a
// run. A video-question run fans out over several clips, so per-node
// attribution matters: the tracker keeps a per-model breakdown and the full
// call history.
//
// Usage:
//
//	tracker := NewCostTracker("run-123", "USD")
//	tracker.RecordModelCall("gemini-1.5-flash", 1000, 500, "analyze_videos")
//	total := tracker.TotalCost()
//
// Thread-safe: all methods use mutex protection.
type CostTracker struct {
	// RunID associates costs with a specific workflow execution
	RunID string

	// Currency is the cost unit (e.g., "USD")
	Currency string

	// Pricing maps model names to their input/output token costs
	Pricing map[string]ModelPricing

	calls        []ModelCall
	totalCost    float64
	modelCosts   map[string]float64
	inputTokens  int64
	outputTokens int64

	// CreatedAt marks when cost tracking began
	CreatedAt time.Time

	mu sync.RWMutex

	// enabled controls whether cost tracking is active
	enabled bool
}

// NewCostTracker creates a cost tracker with the default pricing table.
func NewCostTracker(runID, currency string) *CostTracker {
	return &CostTracker{
		RunID:      runID,
		Currency:   currency,
		Pricing:    defaultModelPricing,
		calls:      make([]ModelCall, 0, 32),
		modelCosts: make(map[string]float64),
		CreatedAt:  time.Now(),
		enabled:    true,
	}
}

// RecordModelCall records one LLM invocation and updates cumulative totals.
// A model missing from the pricing table is still recorded, at zero cost.
func (ct *CostTracker) RecordModelCall(model string, inputTokens, outputTokens int, nodeID string) {
	if !ct.enabled {
		return
	}

	ct.mu.Lock()
	defer ct.mu.Unlock()

	pricing := ct.Pricing[model]

	inputCost := (float64(inputTokens) / 1_000_000.0) * pricing.InputPer1M
	outputCost := (float64(outputTokens) / 1_000_000.0) * pricing.OutputPer1M
	cost := inputCost + outputCost

	ct.calls = append(ct.calls, ModelCall{
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      cost,
		Timestamp:    time.Now(),
		NodeID:       nodeID,
	})

	ct.totalCost += cost
	ct.modelCosts[model] += cost
	ct.inputTokens += int64(inputTokens)
	ct.outputTokens += int64(outputTokens)
}

// TotalCost returns the cumulative cost across all recorded calls.
func (ct *CostTracker) TotalCost() float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.totalCost
}

// CostByModel returns a per-model cost breakdown. The returned map is a
// copy.
func (ct *CostTracker) CostByModel() map[string]float64 {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	costs := make(map[string]float64, len(ct.modelCosts))
	for model, cost := range ct.modelCosts {
		costs[model] = cost
	}
	return costs
}

// CallHistory returns all recorded calls in chronological order. The
// returned slice is a copy.
func (ct *CostTracker) CallHistory() []ModelCall {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	calls := make([]ModelCall, len(ct.calls))
	copy(calls, ct.calls)
	return calls
}

// TokenUsage returns total input and output token counts.
func (ct *CostTracker) TokenUsage() (inputTokens, outputTokens int64) {
	ct.mu.RLock()
	defer ct.mu.RUnlock()
	return ct.inputTokens, ct.outputTokens
}

// SetCustomPricing overrides pricing for a model. Useful for enterprise
// rates or price updates.
func (ct *CostTracker) SetCustomPricing(model string, inputPer1M, outputPer1M float64) {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	if ct.Pricing == nil {
		ct.Pricing = make(map[string]ModelPricing)
	}
	ct.Pricing[model] = ModelPricing{
		InputPer1M:  inputPer1M,
		OutputPer1M: outputPer1M,
	}
}

// Disable temporarily disables cost tracking (useful for testing).
func (ct *CostTracker) Disable() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.enabled = false
}

// Enable re-enables cost tracking after Disable().
func (ct *CostTracker) Enable() {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	ct.enabled = true
}

// Reset clears all recorded data. Preserves pricing configuration.
func (ct *CostTracker) Reset() {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	ct.calls = ct.calls[:0]
	ct.totalCost = 0
	ct.modelCosts = make(map[string]float64)
	ct.inputTokens = 0
	ct.outputTokens = 0
}

// String returns a human-readable summary of cost tracking.
func (ct *CostTracker) String() string {
	ct.mu.RLock()
	defer ct.mu.RUnlock()

	return fmt.Sprintf(
		"CostTracker{RunID: %s, Calls: %d, TotalCost: $%.4f %s, InputTokens: %d, OutputTokens: %d}",
		ct.RunID,
		len(ct.calls),
		ct.totalCost,
		ct.Currency,
		ct.inputTokens,
		ct.outputTokens,
	)
}
