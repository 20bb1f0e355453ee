// Package google adapts Google's Gemini API to the model.ChatModel
// interface. Gemini is the only provider here with video understanding, so
// it also handles messages carrying media references.
package google

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dayroom-ai/dayroom/graph/model"
)

// DefaultModel is the Gemini model used when none is specified. Flash
// handles video at a fraction of Pro's cost.
const DefaultModel = "gemini-1.5-flash"

// ChatModel implements model.ChatModel using the Gemini API.
//
// Media references on user messages are passed through as genai.FileData
// parts, which is how the Gemini Files API exposes uploaded videos.
//
// Example usage:
//
//	m, err := google.NewChatModel(apiKey, "gemini-1.5-flash")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	out, err := m.Chat(ctx, []model.Message{{
//	    Role:    model.RoleUser,
//	    Content: "What is the child doing in this clip?",
//	    Media:   []model.MediaRef{{URI: fileURI, MIMEType: "video/mp4"}},
//	}})
type ChatModel struct {
	client *genai.Client
	model  string
}

// NewChatModel creates a Gemini-backed chat model. An empty model name
// falls back to DefaultModel.
func NewChatModel(apiKey, modelName string) (*ChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google: API key cannot be empty")
	}
	if modelName == "" {
		modelName = DefaultModel
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("google: failed to create client: %w", err)
	}

	return &ChatModel{
		client: client,
		model:  modelName,
	}, nil
}

// Close releases the underlying client. Call it when the model is no
// longer needed.
func (c *ChatModel) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ModelName returns the configured Gemini model identifier, for cost
// attribution.
func (c *ChatModel) ModelName() string {
	return c.model
}

// Chat implements model.ChatModel.
//
// System messages become the model's system instruction. The remaining
// messages are flattened into content parts: text first, then any media
// references as FileData.
func (c *ChatModel) Chat(ctx context.Context, messages []model.Message) (model.ChatOut, error) {
	gm := c.client.GenerativeModel(c.model)

	var parts []genai.Part
	for _, msg := range messages {
		if msg.Role == model.RoleSystem {
			gm.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
			continue
		}
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
		for _, media := range msg.Media {
			parts = append(parts, genai.FileData{
				MIMEType: media.MIMEType,
				URI:      media.URI,
			})
		}
	}

	if len(parts) == 0 {
		return model.ChatOut{}, fmt.Errorf("google: no content to send")
	}

	resp, err := gm.GenerateContent(ctx, parts...)
	if err != nil {
		return model.ChatOut{}, fmt.Errorf("google: generate content: %w", err)
	}

	return parseResponse(resp)
}

func parseResponse(resp *genai.GenerateContentResponse) (model.ChatOut, error) {
	if resp == nil {
		return model.ChatOut{}, fmt.Errorf("google: nil response")
	}

	out := model.ChatOut{}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	if len(resp.Candidates) == 0 {
		return out, nil
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil {
		return out, nil
	}

	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out.Text += string(text)
		}
	}

	return out, nil
}
