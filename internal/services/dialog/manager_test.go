package dialog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/fire8327/GPT-Bot/internal/prompt"
	"github.com/fire8327/GPT-Bot/internal/services/storage"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var testDBCounter int64

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestStore(t *testing.T) *storage.Manager {
	t.Helper()

	dsn := fmt.Sprintf("file:dialog_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDBCounter, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	backend, err := storage.NewGormStorageWithDB(db, testLogger())
	if err != nil {
		t.Fatalf("failed to init test storage: %v", err)
	}

	return storage.NewManagerWith(backend, testLogger())
}

func seedUserMessage(t *testing.T, store *storage.Manager, userID int64, dialogID int, mode prompt.Mode, content string) {
	t.Helper()

	if err := store.AppendMessage(context.Background(), &models.ConversationMessage{
		UserID:   userID,
		Role:     models.RoleUser,
		Content:  content,
		Mode:     string(mode),
		DialogID: dialogID,
	}); err != nil {
		t.Fatalf("failed to seed message: %v", err)
	}
}

func TestActiveSlotDefaults(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())

	mode, dialogID, err := manager.ActiveSlot(context.Background(), 42)
	if err != nil {
		t.Fatalf("ActiveSlot failed: %v", err)
	}
	if mode != prompt.ModeFree {
		t.Errorf("expected default mode %q, got %q", prompt.ModeFree, mode)
	}
	if dialogID != 1 {
		t.Errorf("expected default dialog 1, got %d", dialogID)
	}
}

func TestSummarizeSlots(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	seedUserMessage(t, store, 1, 1, prompt.ModeFree, "hello there")
	seedUserMessage(t, store, 1, 3, prompt.ModeWork, strings.Repeat("x", 50))
	// assistant-only slot must not count as occupied
	if err := store.AppendMessage(ctx, &models.ConversationMessage{
		UserID:   1,
		Role:     models.RoleAssistant,
		Content:  "leftover",
		Mode:     string(prompt.ModeFree),
		DialogID: 4,
	}); err != nil {
		t.Fatalf("failed to seed assistant message: %v", err)
	}

	summaries, err := manager.SummarizeSlots(ctx, 1)
	if err != nil {
		t.Fatalf("SummarizeSlots failed: %v", err)
	}

	if len(summaries) != 2 {
		t.Fatalf("expected 2 occupied slots, got %d: %v", len(summaries), summaries)
	}
	if got := summaries[1]; got != "💬 hello there" {
		t.Errorf("unexpected summary for slot 1: %q", got)
	}
	want := "💼 " + strings.Repeat("x", 40) + "..."
	if got := summaries[3]; got != want {
		t.Errorf("unexpected summary for slot 3: got %q, want %q", got, want)
	}
}

func TestSummarizeSlotsUsesNewestUserMessage(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())

	seedUserMessage(t, store, 1, 2, prompt.ModeFree, "first question")
	seedUserMessage(t, store, 1, 2, prompt.ModeSchool, "second question")

	summaries, err := manager.SummarizeSlots(context.Background(), 1)
	if err != nil {
		t.Fatalf("SummarizeSlots failed: %v", err)
	}
	if got := summaries[2]; got != "🎒 second question" {
		t.Errorf("expected summary of newest user message, got %q", got)
	}
}

func TestStartNewDialogPicksLowestFreeSlot(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	seedUserMessage(t, store, 7, 1, prompt.ModeFree, "a")
	seedUserMessage(t, store, 7, 3, prompt.ModeFree, "b")
	seedUserMessage(t, store, 7, 5, prompt.ModeFree, "c")

	dialogID, err := manager.StartNewDialog(ctx, 7, prompt.ModeWork)
	if err != nil {
		t.Fatalf("StartNewDialog failed: %v", err)
	}
	if dialogID != 2 {
		t.Errorf("expected lowest free slot 2, got %d", dialogID)
	}

	mode, active, err := manager.ActiveSlot(ctx, 7)
	if err != nil {
		t.Fatalf("ActiveSlot failed: %v", err)
	}
	if mode != prompt.ModeWork || active != 2 {
		t.Errorf("expected session (work, 2), got (%s, %d)", mode, active)
	}
}

func TestStartNewDialogAtCapacity(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	for did := 1; did <= models.MaxDialogs; did++ {
		seedUserMessage(t, store, 9, did, prompt.ModeFree, fmt.Sprintf("msg %d", did))
	}
	if err := store.SetSession(ctx, 9, string(prompt.ModeFree), 4); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	_, err := manager.StartNewDialog(ctx, 9, prompt.ModeFree)
	if !errors.Is(err, ErrDialogLimit) {
		t.Fatalf("expected ErrDialogLimit, got %v", err)
	}

	// a rejected request must leave the session untouched
	mode, active, err := manager.ActiveSlot(ctx, 9)
	if err != nil {
		t.Fatalf("ActiveSlot failed: %v", err)
	}
	if mode != prompt.ModeFree || active != 4 {
		t.Errorf("session changed after rejected request: (%s, %d)", mode, active)
	}
}

func TestDeleteSlot(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	seedUserMessage(t, store, 3, 2, prompt.ModeFree, "to delete")
	seedUserMessage(t, store, 3, 4, prompt.ModeFree, "to keep")

	if err := manager.DeleteSlot(ctx, 3, 2); err != nil {
		t.Fatalf("DeleteSlot failed: %v", err)
	}

	summaries, err := manager.SummarizeSlots(ctx, 3)
	if err != nil {
		t.Fatalf("SummarizeSlots failed: %v", err)
	}
	if _, ok := summaries[2]; ok {
		t.Error("slot 2 still occupied after deletion")
	}
	if _, ok := summaries[4]; !ok {
		t.Error("slot 4 lost by deleting slot 2")
	}

	// deleting an already empty slot is a no-op
	if err := manager.DeleteSlot(ctx, 3, 2); err != nil {
		t.Errorf("deleting empty slot failed: %v", err)
	}
}

func TestDeleteSlotOutOfRange(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())

	for _, did := range []int{0, -1, models.MaxDialogs + 1} {
		if err := manager.DeleteSlot(context.Background(), 3, did); !errors.Is(err, ErrInvalidSlot) {
			t.Errorf("slot %d: expected ErrInvalidSlot, got %v", did, err)
		}
	}
}

func TestDeleteThenStartReusesSlot(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	for did := 1; did <= models.MaxDialogs; did++ {
		seedUserMessage(t, store, 5, did, prompt.ModeFree, fmt.Sprintf("msg %d", did))
	}

	if err := manager.DeleteSlot(ctx, 5, 3); err != nil {
		t.Fatalf("DeleteSlot failed: %v", err)
	}

	dialogID, err := manager.StartNewDialog(ctx, 5, prompt.ModeFree)
	if err != nil {
		t.Fatalf("StartNewDialog after deletion failed: %v", err)
	}
	if dialogID != 3 {
		t.Errorf("expected freed slot 3, got %d", dialogID)
	}
}

func TestSwitchModeKeepsSlot(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	if err := store.SetSession(ctx, 11, string(prompt.ModeFree), 4); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	if err := manager.SwitchMode(ctx, 11, prompt.ModeUniversity); err != nil {
		t.Fatalf("SwitchMode failed: %v", err)
	}

	mode, active, err := manager.ActiveSlot(ctx, 11)
	if err != nil {
		t.Fatalf("ActiveSlot failed: %v", err)
	}
	if mode != prompt.ModeUniversity || active != 4 {
		t.Errorf("expected (university, 4), got (%s, %d)", mode, active)
	}
}

func TestResetSession(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store, testLogger())
	ctx := context.Background()

	if err := store.SetSession(ctx, 13, string(prompt.ModeWork), 5); err != nil {
		t.Fatalf("SetSession failed: %v", err)
	}

	if err := manager.ResetSession(ctx, 13); err != nil {
		t.Fatalf("ResetSession failed: %v", err)
	}

	mode, active, err := manager.ActiveSlot(ctx, 13)
	if err != nil {
		t.Fatalf("ActiveSlot failed: %v", err)
	}
	if mode != prompt.DefaultMode || active != 1 {
		t.Errorf("expected (%s, 1), got (%s, %d)", prompt.DefaultMode, mode, active)
	}
}
