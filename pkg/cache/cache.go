package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/richxcame/fare-engine/pkg/logger"
	redisclient "github.com/richxcame/fare-engine/pkg/redis"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned when the key is absent or expired
var ErrCacheMiss = errors.New("cache miss")

// Manager handles caching operations with JSON serialization
type Manager struct {
	redis redisclient.ClientInterface
}

// NewManager creates a new cache manager
func NewManager(redis redisclient.ClientInterface) *Manager {
	return &Manager{redis: redis}
}

// Get retrieves a cached value and unmarshals it into result
func (m *Manager) Get(ctx context.Context, key string, result interface{}) error {
	data, err := redisclient.RetryableOperation(ctx, func(ctx context.Context) (string, error) {
		return m.redis.GetString(ctx, key)
	}, "redis.get")
	if errors.Is(err, redisclient.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}

	if err := json.Unmarshal([]byte(data), result); err != nil {
		return fmt.Errorf("failed to unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals and caches a value with expiration
func (m *Manager) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	_, err = redisclient.RetryableOperation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.redis.SetWithExpiration(ctx, key, string(data), ttl)
	}, "redis.set")
	return err
}

// GetOrSet retrieves from cache or executes fn and caches the result.
// A failing cache never fails the call; only fn's error is returned.
func (m *Manager) GetOrSet(ctx context.Context, key string, ttl time.Duration, result interface{}, fn func() (interface{}, error)) error {
	err := m.Get(ctx, key, result)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.WarnContext(ctx, "cache read failed, falling through", zap.String("key", key), zap.Error(err))
	}

	data, err := fn()
	if err != nil {
		return err
	}

	if err := m.Set(ctx, key, data, ttl); err != nil {
		logger.WarnContext(ctx, "failed to cache value", zap.String("key", key), zap.Error(err))
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, result)
}

// Delete removes keys from cache
func (m *Manager) Delete(ctx context.Context, keys ...string) error {
	_, err := redisclient.RetryableOperation(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, m.redis.Delete(ctx, keys...)
	}, "redis.del")
	return err
}

// CacheKeys defines the key layout of pricing data
type CacheKeys struct{}

var Keys = CacheKeys{}

// ActivePricingConfig holds the currently active configuration document
func (k CacheKeys) ActivePricingConfig() string {
	return "pricing:config:active"
}

// PricingVersion holds one immutable configuration version
func (k CacheKeys) PricingVersion(versionID string) string {
	return fmt.Sprintf("pricing:config:version:%s", versionID)
}
