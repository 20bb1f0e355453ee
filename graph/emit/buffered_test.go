package emit

import (
	"sync"
	"testing"
)

func TestBufferedEmitter(t *testing.T) {
	t.Run("history preserves emission order per run", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{RunID: "r1", Step: 1, NodeID: "a", Msg: "node_start"})
		b.Emit(Event{RunID: "r2", Step: 1, NodeID: "x", Msg: "node_start"})
		b.Emit(Event{RunID: "r1", Step: 1, NodeID: "a", Msg: "node_end"})

		history := b.History("r1")
		if len(history) != 2 {
			t.Fatalf("History(r1) = %d events, want 2", len(history))
		}
		if history[0].Msg != "node_start" || history[1].Msg != "node_end" {
			t.Errorf("order wrong: %v", history)
		}
	})

	t.Run("unknown run has empty history", func(t *testing.T) {
		b := NewBufferedEmitter()
		if got := b.History("ghost"); len(got) != 0 {
			t.Errorf("History(ghost) = %v, want empty", got)
		}
	})

	t.Run("filter combines criteria", func(t *testing.T) {
		b := NewBufferedEmitter()
		for step := 1; step <= 5; step++ {
			b.Emit(Event{RunID: "r", Step: step, NodeID: "a", Msg: "node_start"})
			b.Emit(Event{RunID: "r", Step: step, NodeID: "a", Msg: "node_end"})
		}

		min, max := 2, 4
		got := b.HistoryWithFilter("r", HistoryFilter{
			Msg:     "node_end",
			MinStep: &min,
			MaxStep: &max,
		})
		if len(got) != 3 {
			t.Fatalf("filtered = %d events, want 3", len(got))
		}
		for _, ev := range got {
			if ev.Msg != "node_end" || ev.Step < 2 || ev.Step > 4 {
				t.Errorf("event outside filter: %+v", ev)
			}
		}
	})

	t.Run("clear removes one run only", func(t *testing.T) {
		b := NewBufferedEmitter()
		b.Emit(Event{RunID: "keep", Step: 1})
		b.Emit(Event{RunID: "drop", Step: 1})

		b.Clear("drop")
		if len(b.History("drop")) != 0 {
			t.Error("cleared run still has events")
		}
		if len(b.History("keep")) != 1 {
			t.Error("other run affected by Clear")
		}

		b.ClearAll()
		if len(b.History("keep")) != 0 {
			t.Error("ClearAll left events behind")
		}
	})

	t.Run("concurrent emits are safe", func(t *testing.T) {
		b := NewBufferedEmitter()
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					b.Emit(Event{RunID: "r", Step: j})
				}
			}()
		}
		wg.Wait()

		if got := len(b.History("r")); got != 1000 {
			t.Errorf("History = %d events, want 1000", got)
		}
	})
}
