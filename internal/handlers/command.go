package handlers

import (
	"context"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/i18n"
	"github.com/fire8327/GPT-Bot/internal/middleware"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/services/credentials"
	"github.com/fire8327/GPT-Bot/internal/services/dialog"
	"github.com/fire8327/GPT-Bot/internal/services/storage"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// CommandHandler handles telegram commands and inline callbacks
type CommandHandler struct {
	bot         *tgbotapi.BotAPI
	config      *config.Config
	storage     *storage.Manager
	manager     *dialog.Manager
	credentials *credentials.Service
	localizer   *i18n.Localizer
	metrics     *middleware.Metrics
	logger      *logrus.Logger
}

// NewCommandHandler creates a new command handler
func NewCommandHandler(
	bot *tgbotapi.BotAPI,
	cfg *config.Config,
	store *storage.Manager,
	manager *dialog.Manager,
	creds *credentials.Service,
	localizer *i18n.Localizer,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *CommandHandler {
	return &CommandHandler{
		bot:         bot,
		config:      cfg,
		storage:     store,
		manager:     manager,
		credentials: creds,
		localizer:   localizer,
		metrics:     metrics,
		logger:      logger,
	}
}

// HandleCommand processes telegram commands
func (h *CommandHandler) HandleCommand(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID
	userID := message.From.ID
	lang := h.config.I18n.DefaultLanguage

	if err := h.storage.UpsertUser(ctx, &models.User{
		ID:        userID,
		Username:  message.From.UserName,
		FirstName: message.From.FirstName,
	}); err != nil {
		h.logger.WithError(err).Error("Failed to upsert user")
	}

	switch message.Command() {
	case "start":
		return h.handleStart(ctx, chatID, userID, message.From.FirstName, lang)
	case "help":
		return h.handleHelp(chatID, lang)
	case "dialogs":
		return h.handleDialogs(ctx, chatID, userID, lang)
	case "login":
		return h.handleLogin(ctx, chatID, userID, lang)
	default:
		return h.handleUnknown(chatID, lang)
	}
}

// handleStart resets the session to (free, 1) and shows the keyboard
func (h *CommandHandler) handleStart(ctx context.Context, chatID, userID int64, firstName, lang string) error {
	if err := h.manager.ResetSession(ctx, userID); err != nil {
		h.logger.WithError(err).Error("Failed to reset session")
	}

	text := h.localizer.Get(lang, i18n.MsgWelcome, map[string]interface{}{"Name": firstName})
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainKeyboard()

	_, err := h.bot.Send(msg)
	return err
}

func (h *CommandHandler) handleHelp(chatID int64, lang string) error {
	msg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgHelp, nil))
	msg.ReplyMarkup = mainKeyboard()

	_, err := h.bot.Send(msg)
	return err
}

func (h *CommandHandler) handleDialogs(ctx context.Context, chatID, userID int64, lang string) error {
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

// handleLogin issues website credentials for the user
func (h *CommandHandler) handleLogin(ctx context.Context, chatID, userID int64, lang string) error {
	cred, err := h.credentials.Issue(ctx, userID)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to issue credentials")
		msg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgCredentialsError, nil))
		_, sendErr := h.bot.Send(msg)
		if sendErr != nil {
			return sendErr
		}
		return err
	}

	h.metrics.RecordCredentialsIssued()

	text := h.localizer.Get(lang, i18n.MsgCredentials, map[string]interface{}{
		"Site":     h.config.Credentials.SiteURL,
		"Login":    cred.Login,
		"Password": cred.Password,
		"Plan":     cred.SubscriptionType,
	})
	msg := tgbotapi.NewMessage(chatID, text)

	_, err = h.bot.Send(msg)
	return err
}

func (h *CommandHandler) handleUnknown(chatID int64, lang string) error {
	msg := tgbotapi.NewMessage(chatID, h.localizer.Get(lang, i18n.MsgUnknownCommand, nil))

	_, err := h.bot.Send(msg)
	return err
}
