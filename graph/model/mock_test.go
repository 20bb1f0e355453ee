package model

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMockChatModel(t *testing.T) {
	ctx := context.Background()

	t.Run("responses return in order and the last repeats", func(t *testing.T) {
		mock := &MockChatModel{
			Responses: []ChatOut{
				{Text: "first"},
				{Text: "second"},
			},
		}

		for _, want := range []string{"first", "second", "second"} {
			out, err := mock.Chat(ctx, []Message{{Role: RoleUser, Content: "hi"}})
			if err != nil {
				t.Fatalf("Chat: %v", err)
			}
			if out.Text != want {
				t.Errorf("Text = %q, want %q", out.Text, want)
			}
		}
	})

	t.Run("respond func sees the messages", func(t *testing.T) {
		mock := &MockChatModel{
			RespondFunc: func(messages []Message) (ChatOut, error) {
				return ChatOut{Text: "echo: " + messages[len(messages)-1].Content}, nil
			},
		}

		out, err := mock.Chat(ctx, []Message{{Role: RoleUser, Content: "hello"}})
		if err != nil {
			t.Fatalf("Chat: %v", err)
		}
		if out.Text != "echo: hello" {
			t.Errorf("Text = %q", out.Text)
		}
	})

	t.Run("configured error is returned", func(t *testing.T) {
		wantErr := errors.New("api down")
		mock := &MockChatModel{Err: wantErr}

		_, err := mock.Chat(ctx, []Message{{Role: RoleUser, Content: "hi"}})
		if !errors.Is(err, wantErr) {
			t.Fatalf("expected configured error, got %v", err)
		}
	})

	t.Run("calls are recorded", func(t *testing.T) {
		mock := &MockChatModel{Responses: []ChatOut{{Text: "ok"}}}

		_, _ = mock.Chat(ctx, []Message{{Role: RoleSystem, Content: "sys"}, {Role: RoleUser, Content: "q"}})
		if mock.CallCount() != 1 {
			t.Fatalf("CallCount = %d, want 1", mock.CallCount())
		}
		if len(mock.Calls[0].Messages) != 2 || mock.Calls[0].Messages[1].Content != "q" {
			t.Errorf("recorded call = %+v", mock.Calls[0])
		}

		mock.Reset()
		if mock.CallCount() != 0 {
			t.Error("Reset must clear call history")
		}
	})

	t.Run("concurrent calls are safe", func(t *testing.T) {
		mock := &MockChatModel{Responses: []ChatOut{{Text: "ok"}}}

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 50; j++ {
					_, _ = mock.Chat(ctx, []Message{{Role: RoleUser, Content: "x"}})
				}
			}()
		}
		wg.Wait()

		if mock.CallCount() != 500 {
			t.Errorf("CallCount = %d, want 500", mock.CallCount())
		}
	})
}
