package dialog

import (
	"context"
	"fmt"
	"testing"

	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/prompt"
)

func TestBuildPromptEmptyHistory(t *testing.T) {
	store := newTestStore(t)
	assembler := NewAssembler(store, 3)

	messages, err := assembler.BuildPrompt(context.Background(), 1, 1, prompt.ModeSchool, "что такое дробь?")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Role != models.RoleSystem {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}
	if messages[0].Content != prompt.ModeSchool.SystemPrompt() {
		t.Error("system message does not carry the mode instruction")
	}
	if messages[1].Role != models.RoleUser || messages[1].Content != "что такое дробь?" {
		t.Errorf("last message = %+v, want the new user message", messages[1])
	}
}

func TestBuildPromptBoundedHistory(t *testing.T) {
	store := newTestStore(t)
	assembler := NewAssembler(store, 3)
	ctx := context.Background()

	// five full pairs, only the newest three must survive
	for i := 1; i <= 5; i++ {
		for _, role := range []string{models.RoleUser, models.RoleAssistant} {
			if err := store.AppendMessage(ctx, &models.ConversationMessage{
				UserID:   1,
				Role:     role,
				Content:  fmt.Sprintf("%s %d", role, i),
				Mode:     string(prompt.ModeFree),
				DialogID: 2,
			}); err != nil {
				t.Fatalf("failed to seed message: %v", err)
			}
		}
	}

	messages, err := assembler.BuildPrompt(ctx, 1, 2, prompt.ModeFree, "new question")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}

	// 1 system + 6 history + 1 new
	if len(messages) != 8 {
		t.Fatalf("expected 8 messages, got %d", len(messages))
	}
	if messages[0].Role != models.RoleSystem {
		t.Errorf("first message role = %q, want system", messages[0].Role)
	}

	wantHistory := []string{"user 3", "assistant 3", "user 4", "assistant 4", "user 5", "assistant 5"}
	for i, want := range wantHistory {
		if got := messages[1+i].Content; got != want {
			t.Errorf("history[%d] = %q, want %q", i, got, want)
		}
	}

	last := messages[len(messages)-1]
	if last.Role != models.RoleUser || last.Content != "new question" {
		t.Errorf("last message = %+v, want the new user message", last)
	}
}

func TestBuildPromptIgnoresOtherSlots(t *testing.T) {
	store := newTestStore(t)
	assembler := NewAssembler(store, 3)
	ctx := context.Background()

	if err := store.AppendMessage(ctx, &models.ConversationMessage{
		UserID:   1,
		Role:     models.RoleUser,
		Content:  "other slot",
		Mode:     string(prompt.ModeFree),
		DialogID: 4,
	}); err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}

	messages, err := assembler.BuildPrompt(ctx, 1, 1, prompt.ModeFree, "hi")
	if err != nil {
		t.Fatalf("BuildPrompt failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("history leaked across slots: %d messages", len(messages))
	}
}
