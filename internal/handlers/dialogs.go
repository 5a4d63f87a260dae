package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/fire8327/GPT-Bot/internal/i18n"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/services/dialog"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// dialogListView renders the management listing: one line per slot with
// its summary or an "empty" marker, a warning at full occupancy, and
// inline delete buttons for occupied slots.
func dialogListView(ctx context.Context, manager *dialog.Manager, localizer *i18n.Localizer, userID int64, lang string) (string, *tgbotapi.InlineKeyboardMarkup, error) {
	summaries, err := manager.SummarizeSlots(ctx, userID)
	if err != nil {
		return "", nil, err
	}

	var sb strings.Builder
	sb.WriteString(localizer.Get(lang, i18n.MsgDialogsHeader, nil))
	sb.WriteString("\n\n")

	var occupied []int
	for did := 1; did <= models.MaxDialogs; did++ {
		desc, ok := summaries[did]
		if !ok {
			desc = localizer.Get(lang, i18n.MsgEmptySlot, nil)
		} else {
			occupied = append(occupied, did)
		}
		sb.WriteString(fmt.Sprintf("%d. %s\n", did, desc))
	}

	if len(occupied) >= models.MaxDialogs {
		sb.WriteString("\n")
		sb.WriteString(localizer.Get(lang, i18n.MsgDialogsLimitNote, nil))
	}

	markup := deleteDialogKeyboard(occupied,
		func(did int) string {
			return localizer.Get(lang, i18n.MsgDeleteButton, map[string]interface{}{"Dialog": did})
		},
		localizer.Get(lang, i18n.MsgBackButton, nil),
	)

	return sb.String(), markup, nil
}
