package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisStorage implements Storage on Redis. Dialog slots are lists of
// JSON-encoded messages; the newest user message of each slot is kept
// in a side key so summaries stay O(1).
type RedisStorage struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(cfg *config.RedisConfig, logger *logrus.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{client: client, logger: logger}, nil
}

func userKey(userID int64) string            { return fmt.Sprintf("user:%d", userID) }
func sessionKey(userID int64) string         { return fmt.Sprintf("session:%d", userID) }
func dialogKey(userID int64, did int) string { return fmt.Sprintf("dialog:%d:%d", userID, did) }
func latestKey(userID int64, did int) string { return fmt.Sprintf("dialog_latest:%d:%d", userID, did) }

func (r *RedisStorage) UpsertUser(ctx context.Context, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, userKey(user.ID), data, 0).Err()
}

func (r *RedisStorage) GetSession(ctx context.Context, userID int64) (*models.Session, error) {
	data, err := r.client.Get(ctx, sessionKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *RedisStorage) SetSession(ctx context.Context, userID int64, mode string, dialogID int) error {
	sess := models.Session{UserID: userID, Mode: mode, DialogID: dialogID, UpdatedAt: time.Now()}
	data, err := json.Marshal(&sess)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, sessionKey(userID), data, 0).Err()
}

func (r *RedisStorage) AppendMessage(ctx context.Context, msg *models.ConversationMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	if err := r.client.RPush(ctx, dialogKey(msg.UserID, msg.DialogID), data).Err(); err != nil {
		return err
	}
	if msg.Role == models.RoleUser {
		return r.client.Set(ctx, latestKey(msg.UserID, msg.DialogID), data, 0).Err()
	}
	return nil
}

func (r *RedisStorage) RecentMessages(ctx context.Context, userID int64, dialogID, limit int) ([]models.ConversationMessage, error) {
	raw, err := r.client.LRange(ctx, dialogKey(userID, dialogID), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	msgs := make([]models.ConversationMessage, 0, len(raw))
	for _, item := range raw {
		var msg models.ConversationMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (r *RedisStorage) DeleteMessages(ctx context.Context, userID int64, dialogID int) error {
	return r.client.Del(ctx, dialogKey(userID, dialogID), latestKey(userID, dialogID)).Err()
}

func (r *RedisStorage) LatestUserMessage(ctx context.Context, userID int64, dialogID int) (*models.ConversationMessage, error) {
	data, err := r.client.Get(ctx, latestKey(userID, dialogID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msg models.ConversationMessage
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *RedisStorage) Close() error {
	return r.client.Close()
}
