package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// GormStorage implements Storage on a relational database.
type GormStorage struct {
	db     *gorm.DB
	logger *logrus.Logger
}

// NewGormStorage opens the configured database and migrates the schema.
func NewGormStorage(cfg *config.StorageConfig, logger *logrus.Logger) (*GormStorage, error) {
	var dialector gorm.Dialector
	switch cfg.Type {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "mysql":
		dialector = mysql.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported gorm storage type: %s", cfg.Type)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return NewGormStorageWithDB(db, logger)
}

// NewGormStorageWithDB wraps an existing gorm handle. Tests use this
// with an in-memory sqlite database.
func NewGormStorageWithDB(db *gorm.DB, logger *logrus.Logger) (*GormStorage, error) {
	if err := db.AutoMigrate(&models.User{}, &models.Session{}, &models.ConversationMessage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return &GormStorage{db: db, logger: logger}, nil
}

func (s *GormStorage) UpsertUser(ctx context.Context, user *models.User) error {
	var existing models.User
	err := s.db.WithContext(ctx).First(&existing, "id = ?", user.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s.db.WithContext(ctx).Create(user).Error
	}
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"username":   user.Username,
			"first_name": user.FirstName,
		}).Error
}

func (s *GormStorage) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	var sess models.Session
	err := s.db.WithContext(ctx).First(&sess, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

func (s *GormStorage) SetSession(ctx context.Context, userID int64, mode string, dialogID int) error {
	sess := models.Session{UserID: userID, Mode: mode, DialogID: dialogID}
	res := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"mode": mode, "dialog_id": dialogID})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.db.WithContext(ctx).Create(&sess).Error
	}
	return nil
}

func (s *GormStorage) AppendMessage(ctx context.Context, msg *models.ConversationMessage) error {
	return s.db.WithContext(ctx).Create(msg).Error
}

// RecentMessages returns up to limit newest messages of the slot in
// ascending creation order.
func (s *GormStorage) RecentMessages(ctx context.Context, userID int64, dialogID, limit int) ([]models.ConversationMessage, error) {
	var desc []models.ConversationMessage
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND dialog_id = ?", userID, dialogID).
		Order("id DESC").
		Limit(limit).
		Find(&desc).Error; err != nil {
		return nil, err
	}

	// storage returns newest first, callers want replay order
	asc := make([]models.ConversationMessage, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		asc = append(asc, desc[i])
	}
	return asc, nil
}

func (s *GormStorage) DeleteMessages(ctx context.Context, userID int64, dialogID int) error {
	return s.db.WithContext(ctx).
		Where("user_id = ? AND dialog_id = ?", userID, dialogID).
		Delete(&models.ConversationMessage{}).Error
}

func (s *GormStorage) LatestUserMessage(ctx context.Context, userID int64, dialogID int) (*models.ConversationMessage, error) {
	var msg models.ConversationMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND dialog_id = ? AND role = ?", userID, dialogID, models.RoleUser).
		Order("id DESC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
