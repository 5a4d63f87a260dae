package dialog

import (
	"context"
	"fmt"

	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/services/ai"
	"github.com/fire8327/GPT-Bot/internal/services/cache"
	"github.com/fire8327/GPT-Bot/internal/services/storage"
	"github.com/sirupsen/logrus"
)

// ChatService runs one chat turn: persist the user's message, forward
// the assembled prompt to the completion gateway and persist the reply.
// A failed gateway call leaves the user's message persisted and no
// assistant message, so the input is never lost and the next turn's
// history still includes it.
type ChatService struct {
	store     *storage.Manager
	manager   *Manager
	assembler *Assembler
	gateway   ai.Service
	cache     cache.Service
	logger    *logrus.Logger
}

// NewChatService wires the chat turn pipeline.
func NewChatService(
	store *storage.Manager,
	manager *Manager,
	assembler *Assembler,
	gateway ai.Service,
	responseCache cache.Service,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		store:     store,
		manager:   manager,
		assembler: assembler,
		gateway:   gateway,
		cache:     responseCache,
		logger:    logger,
	}
}

// SendMessage processes a chat turn in the user's active dialog and
// returns the assistant's reply.
func (s *ChatService) SendMessage(ctx context.Context, userID int64, text string) (string, error) {
	mode, dialogID, err := s.manager.ActiveSlot(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to load session: %w", err)
	}

	// history is read before the new message is written, so the prompt
	// carries it exactly once
	prompt, err := s.assembler.BuildPrompt(ctx, userID, dialogID, mode, text)
	if err != nil {
		return "", fmt.Errorf("failed to build prompt: %w", err)
	}

	if err := s.store.AppendMessage(ctx, &models.ConversationMessage{
		UserID:   userID,
		Role:     models.RoleUser,
		Content:  text,
		Mode:     string(mode),
		DialogID: dialogID,
	}); err != nil {
		return "", fmt.Errorf("failed to save user message: %w", err)
	}

	reply, cached := s.cache.Get(ctx, text, string(mode))
	if !cached {
		reply, err = s.gateway.GetResponse(ctx, prompt)
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"user_id":   userID,
				"dialog_id": dialogID,
				"mode":      mode,
			}).Error("Failed to get AI response")
			return "", err
		}
	}

	if err := s.store.AppendMessage(ctx, &models.ConversationMessage{
		UserID:   userID,
		Role:     models.RoleAssistant,
		Content:  reply,
		Mode:     string(mode),
		DialogID: dialogID,
	}); err != nil {
		return "", fmt.Errorf("failed to save assistant message: %w", err)
	}

	if !cached {
		if err := s.cache.Set(ctx, text, string(mode), reply); err != nil {
			s.logger.WithError(err).Warn("Failed to cache response")
		}
	}

	return reply, nil
}
