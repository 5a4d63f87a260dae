package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/fire8327/GPT-Bot/internal/config"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestCache(enabled bool) Service {
	return NewCache(&config.Config{Cache: config.CacheConfig{
		Enabled: enabled,
		TTL:     time.Hour,
		MaxSize: 10,
	}}, testLogger())
}

func TestCacheHit(t *testing.T) {
	c := newTestCache(true)
	ctx := context.Background()

	if err := c.Set(ctx, "question", "free", "answer"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := c.Get(ctx, "question", "free")
	if !found || got != "answer" {
		t.Errorf("Get = (%q, %v), want cached answer", got, found)
	}
}

func TestCacheKeyedByMode(t *testing.T) {
	c := newTestCache(true)
	ctx := context.Background()

	c.Set(ctx, "question", "free", "casual answer")

	if _, found := c.Get(ctx, "question", "school"); found {
		t.Error("cache hit across modes")
	}
	if _, found := c.Get(ctx, "other question", "free"); found {
		t.Error("cache hit for a different question")
	}
}

func TestCacheDisabled(t *testing.T) {
	c := newTestCache(false)
	ctx := context.Background()

	if err := c.Set(ctx, "question", "free", "answer"); err != nil {
		t.Fatalf("Set on disabled cache failed: %v", err)
	}
	if _, found := c.Get(ctx, "question", "free"); found {
		t.Error("disabled cache returned a hit")
	}
}

func TestCacheClear(t *testing.T) {
	c := newTestCache(true)
	ctx := context.Background()

	c.Set(ctx, "question", "free", "answer")
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if _, found := c.Get(ctx, "question", "free"); found {
		t.Error("cache hit after Clear")
	}
}
