package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/fire8327/GPT-Bot/internal/models"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Service defines cache operations for completion responses.
type Service interface {
	Get(ctx context.Context, question, mode string) (string, bool)
	Set(ctx context.Context, question, mode, answer string) error
	Clear(ctx context.Context) error
}

// Cache implements the response cache. Identical questions asked in the
// same mode reuse the previous answer until the TTL expires.
type Cache struct {
	enabled bool
	cache   *cache.Cache
	logger  *logrus.Logger
	maxSize int
}

// NewCache creates a cache service; a disabled cache is a no-op.
func NewCache(cfg *config.Config, logger *logrus.Logger) Service {
	if !cfg.Cache.Enabled {
		return &Cache{enabled: false}
	}

	return &Cache{
		enabled: true,
		cache:   cache.New(cfg.Cache.TTL, cfg.Cache.TTL*2),
		logger:  logger,
		maxSize: cfg.Cache.MaxSize,
	}
}

// Get retrieves a cached response.
func (c *Cache) Get(ctx context.Context, question, mode string) (string, bool) {
	if !c.enabled {
		return "", false
	}

	key := c.generateKey(question, mode)
	if val, found := c.cache.Get(key); found {
		entry := val.(*models.CacheEntry)
		c.logger.WithFields(logrus.Fields{
			"mode": mode,
			"age":  time.Since(entry.CreatedAt),
		}).Debug("Cache hit")
		return entry.Answer, true
	}

	return "", false
}

// Set stores a response in the cache.
func (c *Cache) Set(ctx context.Context, question, mode, answer string) error {
	if !c.enabled {
		return nil
	}

	if c.cache.ItemCount() >= c.maxSize {
		c.logger.Warn("Cache size limit reached, clearing expired entries")
		c.cache.DeleteExpired()
	}

	key := c.generateKey(question, mode)
	c.cache.SetDefault(key, &models.CacheEntry{
		Question:  question,
		Answer:    answer,
		Mode:      mode,
		CreatedAt: time.Now(),
	})

	return nil
}

// Clear removes all cached entries.
func (c *Cache) Clear(ctx context.Context) error {
	if !c.enabled {
		return nil
	}

	c.cache.Flush()
	c.logger.Info("Cache cleared")
	return nil
}

func (c *Cache) generateKey(question, mode string) string {
	data := fmt.Sprintf("%s:%s", mode, question)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
