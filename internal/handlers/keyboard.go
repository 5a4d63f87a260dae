package handlers

import (
	"fmt"

	"github.com/fire8327/GPT-Bot/internal/prompt"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	buttonNewDialog   = "🔄 Новый диалог"
	buttonShowDialogs = "👀 Показать все диалоги"
	buttonHelp        = "❓ Помощь"

	callbackDeletePrefix = "delete_dialog_"
	callbackBack         = "back_to_dialogs"

	// Telegram rejects messages longer than this
	maxMessageLen = 4096

	// inline keyboards look best with at most 3 buttons per row
	inlineButtonsPerRow = 3
)

// mainKeyboard is the persistent reply keyboard with mode and dialog
// management buttons.
func mainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	keyboard := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(prompt.ModeSchool.Label()),
			tgbotapi.NewKeyboardButton(prompt.ModeUniversity.Label()),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(prompt.ModeWork.Label()),
			tgbotapi.NewKeyboardButton(prompt.ModeFree.Label()),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(prompt.ModeSummary.Label()),
			tgbotapi.NewKeyboardButton(prompt.ModeExplain.Label()),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonNewDialog),
			tgbotapi.NewKeyboardButton(buttonShowDialogs),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(buttonHelp),
		),
	)
	keyboard.ResizeKeyboard = true
	return keyboard
}

// deleteDialogKeyboard builds inline delete buttons for the occupied
// slots plus a back button, in rows of up to three.
func deleteDialogKeyboard(occupied []int, deleteLabel func(int) string, backLabel string) *tgbotapi.InlineKeyboardMarkup {
	if len(occupied) == 0 {
		return nil
	}

	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(occupied)+1)
	for _, did := range occupied {
		buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(
			deleteLabel(did),
			fmt.Sprintf("%s%d", callbackDeletePrefix, did),
		))
	}
	buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(backLabel, callbackBack))

	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(buttons); i += inlineButtonsPerRow {
		end := i + inlineButtonsPerRow
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}

	markup := tgbotapi.NewInlineKeyboardMarkup(rows...)
	return &markup
}

// splitMessage chunks text into Telegram-sized pieces.
func splitMessage(text string, max int) []string {
	runes := []rune(text)
	if len(runes) <= max {
		return []string{text}
	}

	var chunks []string
	for start := 0; start < len(runes); start += max {
		end := start + max
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
