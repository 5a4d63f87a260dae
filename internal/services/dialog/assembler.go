package dialog

import (
	"context"

	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/prompt"
	"github.com/fire8327/GPT-Bot/internal/services/storage"
)

// Assembler builds the ordered prompt for one chat turn: exactly one
// system entry from the mode's instruction text, a bounded window of
// stored history in chronological order, then the new user message.
type Assembler struct {
	store        *storage.Manager
	historyPairs int
}

// NewAssembler creates an assembler with the given history window,
// measured in user/assistant message pairs.
func NewAssembler(store *storage.Manager, historyPairs int) *Assembler {
	if historyPairs <= 0 {
		historyPairs = 3
	}
	return &Assembler{store: store, historyPairs: historyPairs}
}

// BuildPrompt assembles the completion request for the slot. It must be
// called before the new user message is persisted, so the new message
// appears exactly once, at the end.
func (a *Assembler) BuildPrompt(ctx context.Context, userID int64, dialogID int, mode prompt.Mode, newMessage string) ([]models.PromptMessage, error) {
	history, err := a.store.RecentMessages(ctx, userID, dialogID, a.historyPairs*2)
	if err != nil {
		return nil, err
	}

	messages := make([]models.PromptMessage, 0, len(history)+2)
	messages = append(messages, models.PromptMessage{
		Role:    models.RoleSystem,
		Content: mode.SystemPrompt(),
	})
	for _, msg := range history {
		messages = append(messages, models.PromptMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	messages = append(messages, models.PromptMessage{
		Role:    models.RoleUser,
		Content: newMessage,
	})

	return messages, nil
}
