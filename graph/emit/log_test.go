package emit

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestLogEmitter(t *testing.T) {
	t.Run("text mode", func(t *testing.T) {
		var buf strings.Builder
		e := NewLogEmitter(&buf, false)

		e.Emit(Event{RunID: "run-1", Step: 2, NodeID: "compose", Msg: "node_start"})

		got := buf.String()
		if !strings.Contains(got, "[node_start]") {
			t.Errorf("output missing message tag: %q", got)
		}
		if !strings.Contains(got, "runID=run-1") || !strings.Contains(got, "step=2") || !strings.Contains(got, "nodeID=compose") {
			t.Errorf("output missing fields: %q", got)
		}
	})

	t.Run("text mode includes meta", func(t *testing.T) {
		var buf strings.Builder
		e := NewLogEmitter(&buf, false)

		e.Emit(Event{RunID: "r", Step: 1, NodeID: "n", Msg: "node_end",
			Meta: map[string]interface{}{"duration_ms": 42}})

		if !strings.Contains(buf.String(), "duration_ms") {
			t.Errorf("output missing meta: %q", buf.String())
		}
	})

	t.Run("json mode emits one object per line", func(t *testing.T) {
		var buf strings.Builder
		e := NewLogEmitter(&buf, true)

		e.Emit(Event{RunID: "run-1", Step: 1, NodeID: "a", Msg: "node_start"})
		e.Emit(Event{RunID: "run-1", Step: 2, NodeID: "b", Msg: "node_start"})

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2", len(lines))
		}

		var decoded struct {
			RunID  string `json:"runID"`
			Step   int    `json:"step"`
			NodeID string `json:"nodeID"`
			Msg    string `json:"msg"`
		}
		if err := json.Unmarshal([]byte(lines[1]), &decoded); err != nil {
			t.Fatalf("line not valid JSON: %v", err)
		}
		if decoded.NodeID != "b" || decoded.Step != 2 {
			t.Errorf("decoded = %+v", decoded)
		}
	})
}
