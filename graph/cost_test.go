package graph

import (
	"math"
	"testing"
)

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCostTracker(t *testing.T) {
	t.Run("records calls and accumulates cost", func(t *testing.T) {
		ct := NewCostTracker("run-1", "USD")
		ct.RecordModelCall("gemini-1.5-flash", 1_000_000, 1_000_000, "analyze")

		// 0.075 for input plus 0.30 for output at 1M tokens each.
		if !approxEqual(ct.TotalCost(), 0.375) {
			t.Errorf("TotalCost = %f, want 0.375", ct.TotalCost())
		}

		calls := ct.CallHistory()
		if len(calls) != 1 {
			t.Fatalf("CallHistory = %d calls, want 1", len(calls))
		}
		if calls[0].NodeID != "analyze" || calls[0].Model != "gemini-1.5-flash" {
			t.Errorf("call = %+v", calls[0])
		}
	})

	t.Run("unknown model is recorded at zero cost", func(t *testing.T) {
		ct := NewCostTracker("run-2", "USD")
		ct.RecordModelCall("mystery-model", 500, 500, "pick")

		if ct.TotalCost() != 0 {
			t.Errorf("TotalCost = %f, want 0", ct.TotalCost())
		}
		if len(ct.CallHistory()) != 1 {
			t.Error("unknown model call must still be recorded")
		}
	})

	t.Run("per-model breakdown", func(t *testing.T) {
		ct := NewCostTracker("run-3", "USD")
		ct.RecordModelCall("gpt-4o-mini", 1_000_000, 0, "compose")
		ct.RecordModelCall("gpt-4o-mini", 1_000_000, 0, "refine")
		ct.RecordModelCall("claude-3-5-haiku-20241022", 1_000_000, 0, "identify")

		byModel := ct.CostByModel()
		if !approxEqual(byModel["gpt-4o-mini"], 0.30) {
			t.Errorf("gpt-4o-mini cost = %f, want 0.30", byModel["gpt-4o-mini"])
		}
		if !approxEqual(byModel["claude-3-5-haiku-20241022"], 0.80) {
			t.Errorf("haiku cost = %f, want 0.80", byModel["claude-3-5-haiku-20241022"])
		}
	})

	t.Run("token usage totals", func(t *testing.T) {
		ct := NewCostTracker("run-4", "USD")
		ct.RecordModelCall("gpt-4o", 100, 50, "a")
		ct.RecordModelCall("gpt-4o", 200, 75, "b")

		in, out := ct.TokenUsage()
		if in != 300 || out != 125 {
			t.Errorf("TokenUsage = (%d, %d), want (300, 125)", in, out)
		}
	})

	t.Run("custom pricing overrides the table", func(t *testing.T) {
		ct := NewCostTracker("run-5", "USD")
		ct.SetCustomPricing("house-model", 1.00, 2.00)
		ct.RecordModelCall("house-model", 1_000_000, 1_000_000, "analyze")

		if !approxEqual(ct.TotalCost(), 3.00) {
			t.Errorf("TotalCost = %f, want 3.00", ct.TotalCost())
		}
	})

	t.Run("disabled tracker records nothing", func(t *testing.T) {
		ct := NewCostTracker("run-6", "USD")
		ct.Disable()
		ct.RecordModelCall("gpt-4o", 1000, 1000, "a")

		if len(ct.CallHistory()) != 0 {
			t.Error("disabled tracker must not record calls")
		}

		ct.Enable()
		ct.RecordModelCall("gpt-4o", 1000, 1000, "a")
		if len(ct.CallHistory()) != 1 {
			t.Error("re-enabled tracker must record again")
		}
	})

	t.Run("reset clears data but keeps pricing", func(t *testing.T) {
		ct := NewCostTracker("run-7", "USD")
		ct.SetCustomPricing("house-model", 1.00, 2.00)
		ct.RecordModelCall("house-model", 1_000_000, 0, "a")
		ct.Reset()

		if ct.TotalCost() != 0 || len(ct.CallHistory()) != 0 {
			t.Error("Reset must clear recorded data")
		}

		ct.RecordModelCall("house-model", 1_000_000, 0, "a")
		if !approxEqual(ct.TotalCost(), 1.00) {
			t.Error("custom pricing must survive Reset")
		}
	})
}
