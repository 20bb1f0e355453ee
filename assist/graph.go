package assist

import (
	"github.com/dayroom-ai/dayroom/catalog"
	"github.com/dayroom-ai/dayroom/graph"
	"github.com/dayroom-ai/dayroom/graph/emit"
	"github.com/dayroom-ai/dayroom/graph/model"
	"github.com/dayroom-ai/dayroom/graph/store"
)

// Node IDs of the workflow graph.
const (
	NodeIdentify         = "identify"
	NodePick             = "pick"
	NodeRefine           = "refine"
	NodeTranscriptRoute  = "transcript_route"
	NodeTranscriptAnswer = "transcript_answer"
	NodeAnalyze          = "analyze"
	NodeCompose          = "compose"
	NodeFollowup         = "followup"
)

// Config holds the collaborators the workflow needs. Text and Video may
// be the same model; they are separate so the expensive multimodal model
// is only paid for on the analysis path.
type Config struct {
	Text    model.ChatModel
	Video   model.ChatModel
	Catalog *catalog.Catalog
	Store   store.Store[State]
	Emitter emit.Emitter
	Cost    *graph.CostTracker
	Options []graph.Option
}

// NewEngine assembles and validates the full workflow graph.
//
// The shape: identify (may suspend for child info) feeds clip selection
// and question refinement, then the transcript router. The transcript
// answer node's gate decides between composing directly from the day log
// and fanning out per-clip analysis. Compose routes to the follow-up
// advisor once the conversation has an earlier exchange, otherwise the
// run ends.
func NewEngine(cfg Config) (*graph.Engine[State], error) {
	opts := cfg.Options
	if cfg.Cost != nil {
		opts = append(opts, graph.WithCostTracker(cfg.Cost))
	}

	e := graph.New[State](Reduce, cfg.Store, cfg.Emitter, opts...)

	if err := e.Add(NodeIdentify, &IdentifyNode{Model: cfg.Text, Cost: cfg.Cost}); err != nil {
		return nil, err
	}
	if err := e.Add(NodePick, &PickNode{Model: cfg.Text, Catalog: cfg.Catalog, Cost: cfg.Cost}); err != nil {
		return nil, err
	}
	if err := e.Add(NodeRefine, &RefineNode{Model: cfg.Text, Cost: cfg.Cost}); err != nil {
		return nil, err
	}
	if err := e.Add(NodeTranscriptRoute, &TranscriptRouteNode{Model: cfg.Text, Cost: cfg.Cost}); err != nil {
		return nil, err
	}
	if err := e.Add(NodeTranscriptAnswer, &TranscriptAnswerNode{Model: cfg.Text, Cost: cfg.Cost}); err != nil {
		return nil, err
	}
	if err := e.AddItems(NodeAnalyze, &AnalyzeNode{Model: cfg.Video, Catalog: cfg.Catalog, Cost: cfg.Cost}); err != nil {
		return nil, err
	}
	if err := e.Add(NodeCompose, &ComposeNode{Model: cfg.Text, Cost: cfg.Cost}); err != nil {
		return nil, err
	}
	if err := e.Add(NodeFollowup, &FollowupNode{Model: cfg.Text, Cost: cfg.Cost}); err != nil {
		return nil, err
	}

	if err := e.StartAt(NodeIdentify); err != nil {
		return nil, err
	}

	gate := transcriptGate()
	edges := []struct {
		from, to  string
		predicate graph.Predicate[State]
	}{
		{NodeIdentify, NodePick, nil},
		{NodePick, NodeRefine, nil},
		{NodeRefine, NodeTranscriptRoute, nil},
		{NodeTranscriptRoute, NodeTranscriptAnswer, nil},
		// Transcript-only mode never falls through to video analysis,
		// even when the gate fails; compose then yields the fixed
		// no-evidence reply.
		{NodeTranscriptAnswer, NodeCompose, func(s State) bool {
			return s.TranscriptOnly || gate.Pass(s)
		}},
		{NodeTranscriptAnswer, NodeAnalyze, nil},
		{NodeAnalyze, NodeCompose, nil},
		// The composed exchange for the first question makes one user
		// turn; a second user turn means this run is a follow-up.
		{NodeCompose, NodeFollowup, func(s State) bool {
			return userTurns(s) >= 2
		}},
		{NodeFollowup, graph.End, nil},
	}
	for _, edge := range edges {
		if err := e.Connect(edge.from, edge.to, edge.predicate); err != nil {
			return nil, err
		}
	}
	if err := e.Connect(NodeCompose, graph.End, nil); err != nil {
		return nil, err
	}

	if err := e.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}
