// Package assist implements the daycare video question-answering workflow
// on top of the graph engine: a parent asks what their child did today, the
// workflow picks relevant clips, tries the cheap day-transcript path first,
// falls back to per-video analysis, and composes a short answer.
package assist

import (
	"time"

	"github.com/google/uuid"
)

// Turn is one entry in the append-only conversation log.
type Turn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// State is the workflow state shared across all nodes of a run. Every
// field is owned by exactly one writer (a node's write-set or the driver);
// the reducer merges node deltas without ever dropping conversation turns.
type State struct {
	// RequestID and CreatedAt are set by the driver when a run starts.
	RequestID string    `json:"request_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`

	// Question is the parent's current question.
	Question string `json:"question,omitempty"`

	// OriginalQuestion preserves the question across a child-info
	// suspension. Written by the identify node.
	OriginalQuestion string `json:"original_question,omitempty"`

	// ChildInfo describes which child the question is about. Supplied by
	// the driver, possibly after a suspension.
	ChildInfo string `json:"child_info,omitempty"`

	// AwaitingChildInfo marks a suspended run waiting for ChildInfo.
	// Set by the identify node, cleared by the driver before Resume.
	AwaitingChildInfo bool `json:"awaiting_child_info,omitempty"`

	// MissingInputs names the fields a suspension is waiting for.
	MissingInputs []string `json:"missing_inputs,omitempty"`

	// TargetVideos holds the selected catalog video IDs, at most five.
	TargetVideos []string `json:"target_videos,omitempty"`

	// TargetQuestion is the refined, self-contained form of Question.
	TargetQuestion string `json:"target_question,omitempty"`

	// TranscriptPath locates the cached day transcript. Driver-owned.
	TranscriptPath string `json:"transcript_path,omitempty"`

	// TranscriptOnly disables the per-video fallback path entirely.
	// Driver-owned.
	TranscriptOnly bool `json:"transcript_only,omitempty"`

	// TranscriptPrefer records the routing classification: this question
	// type is best served by the transcript regardless of confidence.
	TranscriptPrefer bool `json:"transcript_prefer,omitempty"`

	// TranscriptCanAnswer and TranscriptConfidence are the cheap path's
	// self-assessment.
	TranscriptCanAnswer  bool    `json:"transcript_can_answer,omitempty"`
	TranscriptConfidence float64 `json:"transcript_confidence,omitempty"`

	// UsedTranscript marks that the staged evidence came from the
	// transcript rather than per-video analysis.
	UsedTranscript bool `json:"used_transcript,omitempty"`

	// PerVideoAnswers maps evidence source (video ID or "transcript") to
	// its answer.
	PerVideoAnswers map[string]string `json:"per_video_answers,omitempty"`

	// FinalAnswer is the composed reply to the parent.
	FinalAnswer string `json:"final_answer,omitempty"`

	// Conversation is the append-only dialog log.
	Conversation []Turn `json:"conversation,omitempty"`

	// FollowupResponse and FollowupRoute are produced on follow-up turns:
	// a conversational reply plus a routing classification
	// (RouteAdvice or RouteNewQuestion).
	FollowupResponse string `json:"followup_response,omitempty"`
	FollowupRoute    string `json:"followup_route,omitempty"`
}

// Follow-up route classifications.
const (
	// RouteAdvice means the parent wants parenting guidance based on the
	// answer they just got.
	RouteAdvice = "advice"

	// RouteNewQuestion means the follow-up is really a fresh question
	// about the videos; the driver should re-enter the workflow with it.
	RouteNewQuestion = "new_question"
)

// NewState seeds the state for a fresh question.
func NewState(question string) State {
	return State{
		RequestID: uuid.NewString(),
		CreatedAt: time.Now(),
		Question:  question,
	}
}

// ResetForQuestion prepares a prior run's final state for re-entry with a
// new question. The conversation, child info, and driver settings carry
// over; everything derived from the previous question is cleared.
func ResetForQuestion(prior State, question string) State {
	return State{
		RequestID:      uuid.NewString(),
		CreatedAt:      time.Now(),
		Question:       question,
		ChildInfo:      prior.ChildInfo,
		TranscriptPath: prior.TranscriptPath,
		TranscriptOnly: prior.TranscriptOnly,
		Conversation:   prior.Conversation,
	}
}

// Reduce merges a node delta into the accumulated state. Strings and
// numeric fields move when the delta carries a non-zero value; booleans set
// by nodes are monotone within a run, so true wins; PerVideoAnswers merges
// by key; Conversation appends.
func Reduce(prev, delta State) State {
	out := prev

	if delta.RequestID != "" {
		out.RequestID = delta.RequestID
	}
	if !delta.CreatedAt.IsZero() {
		out.CreatedAt = delta.CreatedAt
	}
	if delta.Question != "" {
		out.Question = delta.Question
	}
	if delta.OriginalQuestion != "" {
		out.OriginalQuestion = delta.OriginalQuestion
	}
	if delta.ChildInfo != "" {
		out.ChildInfo = delta.ChildInfo
	}
	if delta.AwaitingChildInfo {
		out.AwaitingChildInfo = true
	}
	if delta.MissingInputs != nil {
		out.MissingInputs = delta.MissingInputs
	}
	if delta.TargetVideos != nil {
		out.TargetVideos = delta.TargetVideos
	}
	if delta.TargetQuestion != "" {
		out.TargetQuestion = delta.TargetQuestion
	}
	if delta.TranscriptPath != "" {
		out.TranscriptPath = delta.TranscriptPath
	}
	if delta.TranscriptOnly {
		out.TranscriptOnly = true
	}
	if delta.TranscriptPrefer {
		out.TranscriptPrefer = true
	}
	if delta.TranscriptCanAnswer {
		out.TranscriptCanAnswer = true
	}
	if delta.TranscriptConfidence != 0 {
		out.TranscriptConfidence = delta.TranscriptConfidence
	}
	if delta.UsedTranscript {
		out.UsedTranscript = true
	}
	if len(delta.PerVideoAnswers) > 0 {
		merged := make(map[string]string, len(prev.PerVideoAnswers)+len(delta.PerVideoAnswers))
		for k, v := range prev.PerVideoAnswers {
			merged[k] = v
		}
		for k, v := range delta.PerVideoAnswers {
			merged[k] = v
		}
		out.PerVideoAnswers = merged
	}
	if delta.FinalAnswer != "" {
		out.FinalAnswer = delta.FinalAnswer
	}
	if len(delta.Conversation) > 0 {
		out.Conversation = append(append([]Turn{}, prev.Conversation...), delta.Conversation...)
	}
	if delta.FollowupResponse != "" {
		out.FollowupResponse = delta.FollowupResponse
	}
	if delta.FollowupRoute != "" {
		out.FollowupRoute = delta.FollowupRoute
	}

	return out
}

// userTurns counts parent turns in the conversation. A completed
// question-answer exchange contributes exactly one.
func userTurns(s State) int {
	n := 0
	for _, t := range s.Conversation {
		if t.Role == "user" {
			n++
		}
	}
	return n
}
