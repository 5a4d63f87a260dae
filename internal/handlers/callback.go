package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/fire8327/GPT-Bot/internal/i18n"
	"github.com/fire8327/GPT-Bot/internal/services/dialog"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// HandleCallbackQuery processes inline keyboard callbacks from the
// dialog management listing.
func (h *CommandHandler) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID
	lang := h.config.I18n.DefaultLanguage
	data := callback.Data

	switch {
	case strings.HasPrefix(data, callbackDeletePrefix):
		dialogID, err := strconv.Atoi(strings.TrimPrefix(data, callbackDeletePrefix))
		if err != nil {
			h.bot.Request(tgbotapi.NewCallback(callback.ID, ""))
			return nil
		}
		return h.handleDeleteDialog(ctx, chatID, messageID, userID, dialogID, lang, callback.ID)

	case data == callbackBack:
		h.bot.Request(tgbotapi.NewCallback(callback.ID, ""))
		return h.refreshDialogList(ctx, chatID, messageID, userID, lang)

	default:
		h.bot.Request(tgbotapi.NewCallback(callback.ID, ""))
	}

	return nil
}

func (h *CommandHandler) handleDeleteDialog(ctx context.Context, chatID int64, messageID int, userID int64, dialogID int, lang, callbackID string) error {
	if err := h.manager.DeleteSlot(ctx, userID, dialogID); err != nil {
		if errors.Is(err, dialog.ErrInvalidSlot) {
			h.bot.Request(tgbotapi.NewCallback(callbackID, ""))
			return nil
		}
		h.logger.WithError(err).Error("Failed to delete dialog")
		h.bot.Request(tgbotapi.NewCallback(callbackID, h.localizer.Get(lang, i18n.MsgError, map[string]interface{}{"Error": err.Error()})))
		return err
	}

	h.metrics.RecordDialogDeleted()

	toast := h.localizer.Get(lang, i18n.MsgDialogDeleted, map[string]interface{}{"Dialog": dialogID})
	h.bot.Request(tgbotapi.NewCallback(callbackID, toast))

	return h.refreshDialogList(ctx, chatID, messageID, userID, lang)
}

func (h *CommandHandler) refreshDialogList(ctx context.Context, chatID int64, messageID int, userID int64, lang string) error {
	text, markup, err := dialogListView(ctx, h.manager, h.localizer, userID, lang)
	if err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ReplyMarkup = markup

	_, err = h.bot.Send(edit)
	return err
}
