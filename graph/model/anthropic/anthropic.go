// Package anthropic adapts Anthropic's Claude API to the model.ChatModel
// interface.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dayroom-ai/dayroom/graph/model"
)

// DefaultModel is the Claude model used when none is specified.
const DefaultModel = "claude-3-5-sonnet-20241022"

// DefaultMaxTokens bounds the response length.
const DefaultMaxTokens = 2048

// ChatModel implements model.ChatModel using the Claude Messages API.
//
// Claude has no video input here, so media references on messages are
// rejected; route those to the Gemini adapter instead.
//
// Example usage:
//
//	m := anthropic.NewChatModel(apiKey, "claude-3-5-haiku-20241022")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleSystem, Content: "Answer in one sentence."},
//	    {Role: model.RoleUser, Content: question},
//	})
type ChatModel struct {
	client *anthropic.Client
	model  string
}

// NewChatModel creates a Claude-backed chat model. An empty model name
// falls back to DefaultModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{
		client: &client,
		model:  modelName,
	}
}

// ModelName returns the configured Claude model identifier, for cost
// attribution.
func (c *ChatModel) ModelName() string {
	return c.model
}

// Chat implements model.ChatModel.
//
// System messages are collected into the request's system prompt; user and
// assistant messages map to their Claude equivalents.
func (c *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	var system []anthropic.TextBlockParam
	var turns []anthropic.MessageParam

	for _, msg := range messages {
		if len(msg.Media) > 0 {
			return model.ChatOut{}, fmt.Errorf("anthropic: media input not supported")
		}
		switch msg.Role {
		case model.RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: msg.Content})
		case model.RoleAssistant:
			turns = append(turns, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			turns = append(turns, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	if len(turns) == 0 {
		return model.ChatOut{}, fmt.Errorf("anthropic: no messages to send")
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: DefaultMaxTokens,
		System:    system,
		Messages:  turns,
	})
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("anthropic: messages.new: %w", err)
	}

	out := model.ChatOut{
		InputTokens:  int(message.Usage.InputTokens),
		OutputTokens: int(message.Usage.OutputTokens),
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			out.Text += block.Text
		}
	}

	return out, nil
}
