// Package model provides LLM integration adapters.
package model

import "context"

// ChatModel defines the interface for LLM chat providers.
//
// This interface abstracts the differences between providers (OpenAI,
// Anthropic, Google) behind a unified chat API. Implementations should:
//   - Handle provider-specific authentication
//   - Convert the standard Message format to the provider's format
//   - Parse provider responses back to the standard ChatOut format
//   - Respect context cancellation and timeouts
//
// Example usage:
//
//	m := google.NewChatModel(apiKey, "gemini-1.5-flash")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: "Summarize the afternoon."},
//	})
type ChatModel interface {
	// Chat sends the conversation to the LLM and returns its response
	// along with token usage for cost accounting.
	Chat(ctx context.Context, messages []Message) (ChatOut, error)
}

// Message represents a single message in an LLM conversation.
//
// Messages follow the common chat format used by OpenAI, Anthropic, and
// Google. A message may carry media references for providers with
// multimodal support; providers without it return an error when media is
// present.
type Message struct {
	// Role identifies the message sender.
	// Standard roles: "system", "user", "assistant".
	Role string

	// Content contains the message text.
	Content string

	// Media references video or image inputs for multimodal providers.
	// Only meaningful on user messages.
	Media []MediaRef
}

// MediaRef points at an uploaded media object, such as a video in the
// Gemini Files API.
type MediaRef struct {
	// URI is the provider-side location of the media object.
	URI string

	// MIMEType describes the media, e.g. "video/mp4".
	MIMEType string
}

// Standard role constants for LLM conversations.
const (
	// RoleSystem indicates a system message that sets context or instructions.
	RoleSystem = "system"

	// RoleUser indicates a message from the human user.
	RoleUser = "user"

	// RoleAssistant indicates a response from the LLM.
	RoleAssistant = "assistant"
)

// ChatOut represents the output from an LLM chat completion.
type ChatOut struct {
	// Text contains the LLM's generated response.
	Text string

	// InputTokens is the prompt token count reported by the provider.
	InputTokens int

	// OutputTokens is the completion token count reported by the provider.
	OutputTokens int
}
