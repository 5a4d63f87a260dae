package storage

import (
	"context"
	"fmt"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/sirupsen/logrus"
)

// Storage defines the persistence contract consumed by the dialog core.
// Every call commits independently; there are no multi-operation
// transactions.
type Storage interface {
	// User operations
	UpsertUser(ctx context.Context, user *models.User) error

	// Session operations
	GetSession(ctx context.Context, userID int64) (*models.Session, error)
	SetSession(ctx context.Context, userID int64, mode string, dialogID int) error

	// Conversation operations
	AppendMessage(ctx context.Context, msg *models.ConversationMessage) error
	RecentMessages(ctx context.Context, userID int64, dialogID, limit int) ([]models.ConversationMessage, error)
	DeleteMessages(ctx context.Context, userID int64, dialogID int) error
	LatestUserMessage(ctx context.Context, userID int64, dialogID int) (*models.ConversationMessage, error)

	Close() error
}

// Manager selects and wraps the configured storage backend.
type Manager struct {
	storage Storage
	logger  *logrus.Logger
}

// NewManager creates a storage manager for the configured backend.
func NewManager(cfg *config.Config, logger *logrus.Logger) (*Manager, error) {
	var (
		backend Storage
		err     error
	)

	switch cfg.Storage.Type {
	case "sqlite", "mysql":
		backend, err = NewGormStorage(&cfg.Storage, logger)
	case "redis":
		backend, err = NewRedisStorage(&cfg.Storage.Redis, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
	if err != nil {
		return nil, err
	}

	logger.WithField("type", cfg.Storage.Type).Info("Storage initialized")

	return &Manager{storage: backend, logger: logger}, nil
}

// NewManagerWith wraps an already constructed backend. Used by tests to
// inject an isolated store instance.
func NewManagerWith(backend Storage, logger *logrus.Logger) *Manager {
	return &Manager{storage: backend, logger: logger}
}

func (m *Manager) UpsertUser(ctx context.Context, user *models.User) error {
	return m.storage.UpsertUser(ctx, user)
}

func (m *Manager) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	return m.storage.GetSession(ctx, userID)
}

func (m *Manager) SetSession(ctx context.Context, userID int64, mode string, dialogID int) error {
	return m.storage.SetSession(ctx, userID, mode, dialogID)
}

func (m *Manager) AppendMessage(ctx context.Context, msg *models.ConversationMessage) error {
	return m.storage.AppendMessage(ctx, msg)
}

func (m *Manager) RecentMessages(ctx context.Context, userID int64, dialogID, limit int) ([]models.ConversationMessage, error) {
	return m.storage.RecentMessages(ctx, userID, dialogID, limit)
}

func (m *Manager) DeleteMessages(ctx context.Context, userID int64, dialogID int) error {
	return m.storage.DeleteMessages(ctx, userID, dialogID)
}

func (m *Manager) LatestUserMessage(ctx context.Context, userID int64, dialogID int) (*models.ConversationMessage, error) {
	return m.storage.LatestUserMessage(ctx, userID, dialogID)
}

func (m *Manager) Close() error {
	return m.storage.Close()
}
