// Package openai adapts OpenAI's Chat Completions API to the
// model.ChatModel interface.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dayroom-ai/dayroom/graph/model"
)

// DefaultModel is the OpenAI model used when none is specified.
const DefaultModel = "gpt-4o-mini"

// ChatModel implements model.ChatModel using the Chat Completions API.
//
// Media references on messages are rejected; route those to the Gemini
// adapter instead.
//
// Example usage:
//
//	m := openai.NewChatModel(apiKey, "gpt-4o-mini")
//	out, err := m.Chat(ctx, []model.Message{
//	    {Role: model.RoleUser, Content: question},
//	})
type ChatModel struct {
	client *openai.Client
	model  string

	// jsonMode requests a JSON object response, for nodes that parse
	// structured output.
	jsonMode bool
}

// NewChatModel creates an OpenAI-backed chat model. An empty model name
// falls back to DefaultModel.
func NewChatModel(apiKey, modelName string) *ChatModel {
	if modelName == "" {
		modelName = DefaultModel
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &ChatModel{
		client: &client,
		model:  modelName,
	}
}

// WithJSONOutput returns a copy of the model that requests JSON object
// responses. The prompt must still mention JSON for the API to accept the
// response format.
func (c *ChatModel) WithJSONOutput() *ChatModel {
	clone := *c
	clone.jsonMode = true
	return &clone
}

// ModelName returns the configured OpenAI model identifier, for cost
// attribution.
func (c *ChatModel) ModelName() string {
	return c.model
}

// Chat implements model.ChatModel.
func (c *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	var turns []openai.ChatCompletionMessageParamUnion
	for _, msg := range messages {
		if len(msg.Media) > 0 {
			return model.ChatOut{}, fmt.Errorf("openai: media input not supported")
		}
		switch msg.Role {
		case model.RoleSystem:
			turns = append(turns, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		case model.RoleAssistant:
			turns = append(turns, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		default:
			turns = append(turns, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(msg.Content),
					},
				},
			})
		}
	}

	if len(turns) == 0 {
		return model.ChatOut{}, fmt.Errorf("openai: no messages to send")
	}

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: turns,
	}
	if c.jsonMode {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: openai.Ptr(shared.NewResponseFormatJSONObjectParam()),
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("openai: chat.completions.new: %w", err)
	}
	if len(completion.Choices) == 0 {
		return model.ChatOut{}, fmt.Errorf("openai: empty response")
	}

	return model.ChatOut{
		Text:         completion.Choices[0].Message.Content,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}, nil
}
