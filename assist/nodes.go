package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dayroom-ai/dayroom/catalog"
	"github.com/dayroom-ai/dayroom/graph"
	"github.com/dayroom-ai/dayroom/graph/model"
)

// maxTargetVideos caps how many clips one question may analyze.
const maxTargetVideos = 5

// fallbackVideoCount is how many clips to take, in catalog order, when
// selection produces nothing usable.
const fallbackVideoCount = 3

// answerWordCap bounds the composed reply length.
const answerWordCap = 140

// IdentifyNode classifies whether the question needs a named child and
// suspends the run for child info when it does. Classification failure
// defaults to needing the child: asking once too often beats answering
// about the wrong child.
//
// The node is the workflow's suspension point: it implements
// graph.Suspender so a resume without ChildInfo suspends again.
type IdentifyNode struct {
	Model model.ChatModel
	Cost  *graph.CostTracker
}

func (n *IdentifyNode) Reads() []string {
	return []string{"question", "child_info", "original_question"}
}

func (n *IdentifyNode) Writes() []string {
	return []string{"original_question", "awaiting_child_info", "missing_inputs", "conversation"}
}

// RequiredInput implements graph.Suspender.
func (n *IdentifyNode) RequiredInput(s State) []string {
	if s.ChildInfo == "" {
		return []string{"child_info"}
	}
	return nil
}

func (n *IdentifyNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	if s.ChildInfo != "" {
		return graph.NodeResult[State]{}
	}

	needsChild := true
	// OriginalQuestion set means an earlier pass already classified this
	// question; don't spend a model call to re-ask.
	if s.OriginalQuestion == "" {
		out, err := n.Model.Chat(ctx, []model.Message{
			{Role: model.RoleSystem, Content: identifySystem},
			{Role: model.RoleUser, Content: s.Question},
		})
		if err == nil {
			recordCost(n.Cost, n.Model, out, NodeIdentify)
			var v struct {
				NeedsChild bool `json:"needs_child"`
			}
			if perr := parseJSONReply(out.Text, &v); perr == nil {
				needsChild = v.NeedsChild
			}
		}
	}

	if !needsChild {
		return graph.NodeResult[State]{}
	}

	delta := State{
		OriginalQuestion:  s.Question,
		AwaitingChildInfo: true,
		MissingInputs:     []string{"child_info"},
		Conversation: []Turn{
			{Role: "assistant", Content: childInfoPrompt, Time: time.Now()},
		},
	}
	return graph.NodeResult[State]{Delta: delta, Route: graph.Suspend("child_info")}
}

// PickNode selects up to five catalog clips relevant to the question.
// Invalid IDs in the model's reply are filtered out; an unusable reply
// falls back to the first clips in catalog order.
type PickNode struct {
	Model   model.ChatModel
	Catalog *catalog.Catalog
	Cost    *graph.CostTracker
}

func (n *PickNode) Reads() []string {
	return []string{"question", "child_info"}
}

func (n *PickNode) Writes() []string {
	return []string{"target_videos"}
}

func (n *PickNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	prompt := fmt.Sprintf("Catalog of today's clips:\n%s\nQuestion: %s",
		n.Catalog.PromptListing(), questionWithChild(s))

	picked := n.fallback()
	out, err := n.Model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: pickSystem},
		{Role: model.RoleUser, Content: prompt},
	})
	if err == nil {
		recordCost(n.Cost, n.Model, out, NodePick)
		var v struct {
			VideoIDs []string `json:"video_ids"`
		}
		if perr := parseJSONReply(out.Text, &v); perr == nil {
			valid := make([]string, 0, len(v.VideoIDs))
			for _, id := range v.VideoIDs {
				if n.Catalog.Has(id) && len(valid) < maxTargetVideos {
					valid = append(valid, id)
				}
			}
			if len(valid) > 0 {
				picked = valid
			}
		}
	}

	return graph.NodeResult[State]{Delta: State{TargetVideos: picked}}
}

func (n *PickNode) fallback() []string {
	ids := n.Catalog.IDs()
	if len(ids) > fallbackVideoCount {
		ids = ids[:fallbackVideoCount]
	}
	return ids
}

// RefineNode rewrites the question into one self-contained sentence a
// per-clip analyzer can answer without conversation context. Fallback is
// the original question.
type RefineNode struct {
	Model model.ChatModel
	Cost  *graph.CostTracker
}

func (n *RefineNode) Reads() []string {
	return []string{"question", "child_info"}
}

func (n *RefineNode) Writes() []string {
	return []string{"target_question"}
}

func (n *RefineNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	refined := s.Question
	out, err := n.Model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: refineSystem},
		{Role: model.RoleUser, Content: questionWithChild(s)},
	})
	if err == nil {
		recordCost(n.Cost, n.Model, out, NodeRefine)
		if line := firstLine(out.Text); line != "" {
			refined = line
		}
	}

	return graph.NodeResult[State]{Delta: State{TargetQuestion: refined}}
}

// TranscriptRouteNode classifies whether the question type is best served
// by the caregiver's day log. Classification failure defaults to no
// preference, leaving the decision to the confidence gate.
type TranscriptRouteNode struct {
	Model model.ChatModel
	Cost  *graph.CostTracker
}

func (n *TranscriptRouteNode) Reads() []string {
	return []string{"question"}
}

func (n *TranscriptRouteNode) Writes() []string {
	return []string{"transcript_prefer"}
}

func (n *TranscriptRouteNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	prefer := false
	out, err := n.Model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: transcriptRouteSystem},
		{Role: model.RoleUser, Content: s.Question},
	})
	if err == nil {
		recordCost(n.Cost, n.Model, out, NodeTranscriptRoute)
		var v struct {
			PreferTranscript bool `json:"prefer_transcript"`
		}
		if perr := parseJSONReply(out.Text, &v); perr == nil {
			prefer = v.PreferTranscript
		}
	}

	return graph.NodeResult[State]{Delta: State{TranscriptPrefer: prefer}}
}

// TranscriptAnswerNode is the cheap path: it asks the model whether the
// cached day log answers the refined question and stages the log's answer
// as evidence when the confidence gate passes. A missing or unreadable
// log scores as cannot-answer rather than failing the run.
type TranscriptAnswerNode struct {
	Model model.ChatModel
	Cost  *graph.CostTracker
}

func (n *TranscriptAnswerNode) Reads() []string {
	return []string{"target_question", "transcript_path", "transcript_prefer", "transcript_only"}
}

func (n *TranscriptAnswerNode) Writes() []string {
	return []string{"transcript_can_answer", "transcript_confidence", "per_video_answers", "used_transcript"}
}

func (n *TranscriptAnswerNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	var (
		canAnswer  bool
		confidence float64
		answer     string
	)

	if s.TranscriptPath != "" {
		if data, err := os.ReadFile(s.TranscriptPath); err == nil {
			prompt := fmt.Sprintf("Day log:\n%s\n\nQuestion: %s", data, effectiveQuestion(s))
			out, err := n.Model.Chat(ctx, []model.Message{
				{Role: model.RoleSystem, Content: transcriptAnswerSystem},
				{Role: model.RoleUser, Content: prompt},
			})
			if err == nil {
				recordCost(n.Cost, n.Model, out, NodeTranscriptAnswer)
				var v struct {
					CanAnswer  bool    `json:"can_answer"`
					Confidence float64 `json:"confidence"`
					Answer     string  `json:"answer"`
				}
				if perr := parseJSONReply(out.Text, &v); perr == nil {
					canAnswer = v.CanAnswer
					confidence = v.Confidence
					answer = strings.TrimSpace(v.Answer)
				}
			}
		}
	}

	delta := State{
		TranscriptCanAnswer:  canAnswer,
		TranscriptConfidence: confidence,
	}

	// Stage the evidence only when the gate passes; routing re-evaluates
	// the same gate on the merged state. A failed gate in transcript-only
	// mode stages nothing, so compose yields the fixed no-evidence reply.
	merged := Reduce(s, delta)
	if transcriptGate().Pass(merged) && answer != "" {
		delta.PerVideoAnswers = map[string]string{"transcript": answer}
		delta.UsedTranscript = true
	}

	return graph.NodeResult[State]{Delta: delta}
}

// AnalyzeNode is the expensive fallback: per-clip fan-out of multimodal
// model calls. The engine bounds concurrency, applies the per-item
// timeout, and records the sentinel for failed clips; Merge only folds the
// complete mapping into the state.
type AnalyzeNode struct {
	Model   model.ChatModel
	Catalog *catalog.Catalog
	Cost    *graph.CostTracker
}

func (n *AnalyzeNode) Reads() []string {
	return []string{"target_videos", "target_question"}
}

func (n *AnalyzeNode) Writes() []string {
	return []string{"per_video_answers"}
}

func (n *AnalyzeNode) Items(s State) []string {
	return s.TargetVideos
}

func (n *AnalyzeNode) RunItem(ctx context.Context, s State, item string) (string, error) {
	entry, ok := n.Catalog.Get(item)
	if !ok {
		return "", fmt.Errorf("video %s not in catalog", item)
	}

	out, err := n.Model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: analyzeSystem},
		{
			Role:    model.RoleUser,
			Content: effectiveQuestion(s),
			Media:   []model.MediaRef{{URI: entry.URI, MIMEType: entry.MIMEType}},
		},
	})
	if err != nil {
		return "", err
	}
	recordCost(n.Cost, n.Model, out, NodeAnalyze)

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", errors.New("empty model response")
	}
	return text, nil
}

func (n *AnalyzeNode) Merge(s State, results map[string]string) graph.NodeResult[State] {
	return graph.NodeResult[State]{Delta: State{PerVideoAnswers: results}}
}

// ComposeNode synthesizes the final reply from the staged evidence and
// appends the exchange to the conversation. With no usable evidence it
// returns the fixed no-evidence reply without a model call; a failed
// synthesis call falls back to concatenating the usable answers.
type ComposeNode struct {
	Model model.ChatModel
	Cost  *graph.CostTracker
}

func (n *ComposeNode) Reads() []string {
	return []string{"per_video_answers", "question", "target_question"}
}

func (n *ComposeNode) Writes() []string {
	return []string{"final_answer", "conversation"}
}

func (n *ComposeNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	usable := usableEvidence(s.PerVideoAnswers)

	var answer string
	if len(usable) == 0 {
		answer = noEvidenceAnswer
	} else {
		answer = n.synthesize(ctx, s, usable)
		answer = capWords(answer, answerWordCap)
	}

	now := time.Now()
	delta := State{
		FinalAnswer: answer,
		Conversation: []Turn{
			{Role: "user", Content: s.Question, Time: now},
			{Role: "assistant", Content: answer, Time: now},
		},
	}
	return graph.NodeResult[State]{Delta: delta}
}

func (n *ComposeNode) synthesize(ctx context.Context, s State, usable map[string]string) string {
	sources := make([]string, 0, len(usable))
	for src := range usable {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var sb strings.Builder
	fmt.Fprintf(&sb, "Question: %s\nObservations:\n", effectiveQuestion(s))
	for _, src := range sources {
		fmt.Fprintf(&sb, "- %s\n", usable[src])
	}

	out, err := n.Model.Chat(ctx, []model.Message{
		{Role: model.RoleSystem, Content: composeSystem},
		{Role: model.RoleUser, Content: sb.String()},
	})
	if err != nil || strings.TrimSpace(out.Text) == "" {
		// Concatenation fallback, deterministic source order.
		parts := make([]string, 0, len(sources))
		for _, src := range sources {
			parts = append(parts, usable[src])
		}
		return strings.Join(parts, " ")
	}
	recordCost(n.Cost, n.Model, out, NodeCompose)
	return strings.TrimSpace(out.Text)
}

// FollowupNode runs on follow-up turns: it produces a conversational
// response and classifies whether the parent wants parenting advice or is
// really asking a fresh video question. The driver uses the route to pick
// which reply to surface.
type FollowupNode struct {
	Model model.ChatModel
	Cost  *graph.CostTracker
}

func (n *FollowupNode) Reads() []string {
	return []string{"conversation", "question"}
}

func (n *FollowupNode) Writes() []string {
	return []string{"followup_response", "followup_route"}
}

func (n *FollowupNode) Run(ctx context.Context, s State) graph.NodeResult[State] {
	messages := []model.Message{{Role: model.RoleSystem, Content: followupSystem}}
	for _, turn := range s.Conversation {
		role := model.RoleUser
		if turn.Role == "assistant" {
			role = model.RoleAssistant
		}
		messages = append(messages, model.Message{Role: role, Content: turn.Content})
	}

	route := RouteNewQuestion
	response := ""
	out, err := n.Model.Chat(ctx, messages)
	if err == nil {
		recordCost(n.Cost, n.Model, out, NodeFollowup)
		var v struct {
			Response string `json:"response"`
			Route    string `json:"route"`
		}
		if perr := parseJSONReply(out.Text, &v); perr == nil {
			response = strings.TrimSpace(v.Response)
			if v.Route == RouteAdvice {
				route = RouteAdvice
			}
		}
	}

	return graph.NodeResult[State]{Delta: State{
		FollowupResponse: response,
		FollowupRoute:    route,
	}}
}

// transcriptGate is the confidence gate shared by the transcript-answer
// node and the routing edge out of it: prefer overrides, otherwise the
// self-reported confidence must reach the threshold and the model must
// claim it can answer at all.
func transcriptGate() graph.Gate[State] {
	return graph.Gate[State]{
		Confidence: func(s State) float64 {
			if !s.TranscriptCanAnswer {
				return 0
			}
			return s.TranscriptConfidence
		},
		Prefer: func(s State) bool { return s.TranscriptPrefer },
	}
}

// usableEvidence filters out empty answers and sentinel values that carry
// no information.
func usableEvidence(answers map[string]string) map[string]string {
	usable := make(map[string]string, len(answers))
	for src, text := range answers {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" || trimmed == graph.DefaultSentinel || trimmed == analyzeSentinel {
			continue
		}
		usable[src] = trimmed
	}
	return usable
}

// effectiveQuestion prefers the refined form when present.
func effectiveQuestion(s State) string {
	if s.TargetQuestion != "" {
		return s.TargetQuestion
	}
	return s.Question
}

// questionWithChild folds the child description into the question text for
// prompts that need both.
func questionWithChild(s State) string {
	if s.ChildInfo == "" {
		return s.Question
	}
	return fmt.Sprintf("%s (the child: %s)", s.Question, s.ChildInfo)
}

func firstLine(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	return line
}

// capWords truncates text to at most n words.
func capWords(text string, n int) string {
	words := strings.Fields(text)
	if len(words) <= n {
		return text
	}
	return strings.Join(words[:n], " ")
}

// parseJSONReply unmarshals the first JSON object found in a model reply,
// tolerating surrounding prose or markdown fences.
func parseJSONReply(text string, v interface{}) error {
	text = strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(text), v); err == nil {
		return nil
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start == -1 || end <= start {
		return fmt.Errorf("no JSON object in reply")
	}
	return json.Unmarshal([]byte(text[start:end+1]), v)
}

type modelNamer interface {
	ModelName() string
}

// recordCost attributes a model call's token usage when a tracker is
// configured. Models that don't report their name are booked as "unknown"
// at zero cost.
func recordCost(ct *graph.CostTracker, m model.ChatModel, out model.ChatOut, nodeID string) {
	if ct == nil {
		return
	}
	name := "unknown"
	if nm, ok := m.(modelNamer); ok {
		name = nm.ModelName()
	}
	ct.RecordModelCall(name, out.InputTokens, out.OutputTokens, nodeID)
}
