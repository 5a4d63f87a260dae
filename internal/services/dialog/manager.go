package dialog

import (
	"context"
	"sync"

	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/prompt"
	"github.com/fire8327/GPT-Bot/internal/services/storage"
	"github.com/sirupsen/logrus"
)

// Manager owns the per-user dialog slots: occupancy, selection of a
// free slot for new dialogs, deletion and mode switching. Slot-mutating
// operations are serialized per user, so two concurrent "new dialog"
// requests cannot pick the same slot.
type Manager struct {
	store  *storage.Manager
	logger *logrus.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewManager creates a dialog slot manager on top of the store.
func NewManager(store *storage.Manager, logger *logrus.Logger) *Manager {
	return &Manager{
		store:     store,
		logger:    logger,
		userLocks: make(map[int64]*sync.Mutex),
	}
}

func (m *Manager) userLock(userID int64) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	lock, ok := m.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		m.userLocks[userID] = lock
	}
	return lock
}

// ActiveSlot returns the user's current mode and dialog slot,
// defaulting to (free, 1) for a never-seen user.
func (m *Manager) ActiveSlot(ctx context.Context, userID int64) (prompt.Mode, int, error) {
	sess, err := m.store.GetSession(ctx, userID)
	if err != nil {
		return "", 0, err
	}
	if sess == nil {
		return prompt.DefaultMode, 1, nil
	}
	return prompt.Parse(sess.Mode), sess.DialogID, nil
}

// SummarizeSlots returns a preview per occupied slot: mode emoji plus
// the first 40 characters of the newest user message. Slots without a
// user message are absent from the map.
func (m *Manager) SummarizeSlots(ctx context.Context, userID int64) (map[int]string, error) {
	summaries := make(map[int]string)
	for did := 1; did <= models.MaxDialogs; did++ {
		msg, err := m.store.LatestUserMessage(ctx, userID, did)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			continue
		}
		summaries[did] = prompt.Parse(msg.Mode).Emoji() + " " + summaryPreview(msg.Content)
	}
	return summaries, nil
}

// CountOccupied returns how many slots hold at least one user message.
func (m *Manager) CountOccupied(ctx context.Context, userID int64) (int, error) {
	summaries, err := m.SummarizeSlots(ctx, userID)
	if err != nil {
		return 0, err
	}
	return len(summaries), nil
}

// StartNewDialog selects the lowest free slot, makes it active and
// clears it. Fails with ErrDialogLimit at full occupancy, without
// touching the session.
func (m *Manager) StartNewDialog(ctx context.Context, userID int64, mode prompt.Mode) (int, error) {
	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	summaries, err := m.SummarizeSlots(ctx, userID)
	if err != nil {
		return 0, err
	}
	if len(summaries) >= models.MaxDialogs {
		return 0, ErrDialogLimit
	}

	newID := 1
	for did := 1; did <= models.MaxDialogs; did++ {
		if _, occupied := summaries[did]; !occupied {
			newID = did
			break
		}
	}

	if err := m.store.SetSession(ctx, userID, string(mode), newID); err != nil {
		return 0, err
	}
	// a free slot should hold nothing, but clearing unconditionally
	// keeps the operation idempotent against assistant-only leftovers
	if err := m.store.DeleteMessages(ctx, userID, newID); err != nil {
		return 0, err
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"dialog_id": newID,
		"mode":      mode,
	}).Info("Started new dialog")

	return newID, nil
}

// DeleteSlot removes all messages of the slot. Deleting an empty slot
// is a no-op; a slot outside [1,5] is rejected with ErrInvalidSlot.
// The active pointer is left untouched even when the active slot is
// deleted: the next chat turn simply starts that slot from scratch.
func (m *Manager) DeleteSlot(ctx context.Context, userID int64, dialogID int) error {
	if dialogID < 1 || dialogID > models.MaxDialogs {
		return ErrInvalidSlot
	}

	lock := m.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if err := m.store.DeleteMessages(ctx, userID, dialogID); err != nil {
		return err
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":   userID,
		"dialog_id": dialogID,
	}).Info("Deleted dialog")

	return nil
}

// SwitchMode changes the active mode, keeping the active slot.
func (m *Manager) SwitchMode(ctx context.Context, userID int64, mode prompt.Mode) error {
	_, dialogID, err := m.ActiveSlot(ctx, userID)
	if err != nil {
		return err
	}
	return m.store.SetSession(ctx, userID, string(mode), dialogID)
}

// ResetSession puts the user back on (free, 1). Used by /start.
func (m *Manager) ResetSession(ctx context.Context, userID int64) error {
	return m.store.SetSession(ctx, userID, string(prompt.DefaultMode), 1)
}

const summaryPreviewLen = 40

func summaryPreview(content string) string {
	runes := []rune(content)
	if len(runes) <= summaryPreviewLen {
		return content
	}
	return string(runes[:summaryPreviewLen]) + "..."
}
