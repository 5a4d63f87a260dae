package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/i18n"
	"github.com/fire8327/GPT-Bot/internal/middleware"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/prompt"
	"github.com/fire8327/GPT-Bot/internal/services/dialog"
	"github.com/fire8327/GPT-Bot/internal/services/storage"
	"github.com/fire8327/GPT-Bot/pkg/markdown"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// MessageHandler handles regular messages: keyboard buttons and chat turns
type MessageHandler struct {
	config      *config.Config
	bot         *tgbotapi.BotAPI
	storage     *storage.Manager
	manager     *dialog.Manager
	chat        *dialog.ChatService
	rateLimiter middleware.RateLimiter
	localizer   *i18n.Localizer
	metrics     *middleware.Metrics
	logger      *logrus.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	cfg *config.Config,
	bot *tgbotapi.BotAPI,
	store *storage.Manager,
	manager *dialog.Manager,
	chat *dialog.ChatService,
	rateLimiter middleware.RateLimiter,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *MessageHandler {
	return &MessageHandler{
		config:      cfg,
		bot:         bot,
		storage:     store,
		manager:     manager,
		chat:        chat,
		rateLimiter: rateLimiter,
		localizer:   localizer,
		metrics:     metrics,
		logger:      logger,
	}
}

// HandleMessage processes regular messages
func (h *MessageHandler) HandleMessage(ctx context.Context, update *tgbotapi.Update) error {
	if update.Message == nil || update.Message.IsCommand() {
		return nil
	}

	// Ignore bot's own messages
	if update.Message.From.ID == h.bot.Self.ID {
		return nil
	}

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID
	messageText := update.Message.Text
	lang := h.config.I18n.DefaultLanguage

	if err := h.storage.UpsertUser(ctx, &models.User{
		ID:        userID,
		Username:  update.Message.From.UserName,
		FirstName: update.Message.From.FirstName,
	}); err != nil {
		h.logger.WithError(err).Error("Failed to upsert user")
	}

	// Keyboard buttons first, anything else is a chat turn
	switch messageText {
	case buttonNewDialog:
		return h.handleNewDialog(ctx, chatID, userID, lang)
	case buttonShowDialogs:
		return h.handleShowDialogs(ctx, chatID, userID, lang)
	case buttonHelp:
		return h.handleHelp(chatID, lang)
	}

	if mode, ok := prompt.FromLabel(messageText); ok {
		return h.handleModeSwitch(ctx, chatID, userID, mode, lang)
	}

	if messageText == "" {
		return nil
	}

	// Check rate limit
	if !h.rateLimiter.Allow(userID) {
		msg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgRateLimitExceeded, nil))
		msg.ReplyToMessageID = update.Message.MessageID
		if _, err := h.bot.Send(msg); err != nil {
			h.logger.WithError(err).Error("Failed to send rate limit message")
		}
		return nil
	}

	typing := tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)
	if _, err := h.bot.Request(typing); err != nil {
		h.logger.WithError(err).Debug("Failed to send typing action")
	}

	// Send thinking placeholder
	thinkingMsg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgThinking, nil))
	thinkingMsg.ReplyToMessageID = update.Message.MessageID
	sentMsg, err := h.bot.Send(thinkingMsg)
	if err != nil {
		h.logger.WithError(err).Error("Failed to send thinking message")
		return err
	}

	// Process chat turn in background
	go h.processChatTurn(context.Background(), chatID, userID, messageText, sentMsg.MessageID, lang)

	return nil
}

func (h *MessageHandler) handleNewDialog(ctx context.Context, chatID, userID int64, lang string) error {
	mode, _, err := h.manager.ActiveSlot(ctx, userID)
	if err != nil {
		return err
	}

	dialogID, err := h.manager.StartNewDialog(ctx, userID, mode)
	if err != nil {
		if errors.Is(err, dialog.ErrDialogLimit) {
			msg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgDialogLimit, nil))
			_, sendErr := h.bot.Send(msg)
			return sendErr
		}
		h.logger.WithError(err).Error("Failed to start new dialog")
		return err
	}

	h.metrics.RecordDialogStarted()

	text := h.localizer.Get(lang, i18n.MsgNewDialogStarted, map[string]interface{}{
		"Dialog": dialogID,
		"Mode":   mode.DisplayName(),
	})
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainKeyboard()

	_, err = h.bot.Send(msg)
	return err
}

func (h *MessageHandler) handleShowDialogs(ctx context.Context, chatID, userID int64, lang string) error {
	text, markup, err := dialogListView(ctx, h.manager, h.localizer, userID, lang)
	if err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	_, err = h.bot.Send(msg)
	return err
}

func (h *MessageHandler) handleHelp(chatID int64, lang string) error {
	msg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgHelp, nil))
	msg.ReplyMarkup = mainKeyboard()

	_, err := h.bot.Send(msg)
	return err
}

func (h *MessageHandler) handleModeSwitch(ctx context.Context, chatID, userID int64, mode prompt.Mode, lang string) error {
	if err := h.manager.SwitchMode(ctx, userID, mode); err != nil {
		h.logger.WithError(err).Error("Failed to switch mode")
		return err
	}

	text := h.localizer.Get(lang, i18n.MsgModeChanged, map[string]interface{}{"Mode": mode.DisplayName()})
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainKeyboard()

	_, err := h.bot.Send(msg)
	return err
}

func (h *MessageHandler) processChatTurn(ctx context.Context, chatID, userID int64, text string, thinkingMsgID int, lang string) {
	mode, _, err := h.manager.ActiveSlot(ctx, userID)
	if err != nil {
		h.logger.WithError(err).Error("Failed to load session")
		h.sendError(chatID, thinkingMsgID, err, lang)
		return
	}

	// leave room for the gateway's internal retries
	aiCtx, cancel := context.WithTimeout(ctx, 3*h.config.AI.Timeout)
	defer cancel()

	start := time.Now()
	reply, err := h.chat.SendMessage(aiCtx, userID, text)
	if err != nil {
		h.metrics.RecordAIRequest(string(mode), "error", time.Since(start))
		h.metrics.RecordMessageProcessed("error")
		h.sendError(chatID, thinkingMsgID, err, lang)
		return
	}

	h.metrics.RecordAIRequest(string(mode), "success", time.Since(start))
	h.metrics.RecordMessageProcessed("success")

	h.sendResponse(chatID, thinkingMsgID, reply)
}

// sendResponse replaces the thinking placeholder with the reply. Replies
// longer than the Telegram limit continue in follow-up messages.
func (h *MessageHandler) sendResponse(chatID int64, thinkingMsgID int, response string) {
	htmlResponse := markdown.ToTelegramHTML(response)
	chunks := splitMessage(htmlResponse, maxMessageLen)

	editMsg := tgbotapi.NewEditMessageText(chatID, thinkingMsgID, chunks[0])
	editMsg.ParseMode = "HTML"

	if _, err := h.bot.Send(editMsg); err != nil {
		// If HTML parsing fails, fall back to the raw reply
		h.logger.WithError(err).Warn("Failed to send HTML response, trying plain text")
		plainChunks := splitMessage(response, maxMessageLen)
		editMsg.ParseMode = ""
		editMsg.Text = plainChunks[0]
		if _, err := h.bot.Send(editMsg); err != nil {
			h.logger.WithError(err).Error("Failed to send response")
			return
		}
		chunks = plainChunks
	}

	for _, chunk := range chunks[1:] {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = editMsg.ParseMode
		if _, err := h.bot.Send(msg); err != nil {
			h.logger.WithError(err).Error("Failed to send response chunk")
			return
		}
	}
}

func (h *MessageHandler) sendError(chatID int64, thinkingMsgID int, cause error, lang string) {
	text := h.localizer.Get(lang, i18n.MsgError, map[string]interface{}{"Error": cause.Error()})
	editMsg := tgbotapi.NewEditMessageText(chatID, thinkingMsgID, text)
	if _, err := h.bot.Send(editMsg); err != nil {
		h.logger.WithError(err).Error("Failed to send error message")
	}
}
