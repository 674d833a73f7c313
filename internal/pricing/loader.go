package pricing

import (
	"context"
	"errors"
	"time"

	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/richxcame/fare-engine/pkg/cache"
	"github.com/richxcame/fare-engine/pkg/database"
	"github.com/richxcame/fare-engine/pkg/logger"
	"github.com/richxcame/fare-engine/pkg/resilience"
	"go.uber.org/zap"
)

// ConfigLoader loads the configuration that prices new requests
type ConfigLoader interface {
	LoadActiveConfiguration(ctx context.Context) (*fare.PricingConfiguration, error)
}

// VersionLoader loads the active version along with its metadata
type VersionLoader interface {
	LoadActive(ctx context.Context) (*ConfigVersion, error)
}

// Loader reads the active version through the Redis cache and falls back to
// Postgres behind a circuit breaker. The cache and breaker are optional.
type Loader struct {
	repo    RepositoryInterface
	cache   *cache.Manager
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
}

var (
	_ ConfigLoader  = (*Loader)(nil)
	_ VersionLoader = (*Loader)(nil)
)

// NewLoader creates a loader. A nil cache reads straight from the store.
func NewLoader(repo RepositoryInterface, cacheManager *cache.Manager, ttl time.Duration, breaker *resilience.CircuitBreaker) *Loader {
	return &Loader{
		repo:    repo,
		cache:   cacheManager,
		ttl:     ttl,
		breaker: breaker,
	}
}

// StoreBreakerSettings classifies "nothing active" as a healthy answer so an
// empty store never trips the breaker
func StoreBreakerSettings(settings resilience.Settings) resilience.Settings {
	settings.IsSuccessful = func(err error) bool {
		return err == nil || errors.Is(err, fare.ErrConfigurationMissing)
	}
	return settings
}

// LoadActiveConfiguration returns the active configuration document
func (l *Loader) LoadActiveConfiguration(ctx context.Context) (*fare.PricingConfiguration, error) {
	v, err := l.LoadActive(ctx)
	if err != nil {
		return nil, err
	}
	return v.Document, nil
}

// LoadActive returns the active version, or fare.ErrConfigurationMissing
func (l *Loader) LoadActive(ctx context.Context) (*ConfigVersion, error) {
	if l.cache != nil {
		var cached ConfigVersion
		err := l.cache.Get(ctx, cache.Keys.ActivePricingConfig(), &cached)
		if err == nil && cached.Document != nil {
			recordConfigLoad(loadSourceCache)
			return &cached, nil
		}
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			logger.WarnContext(ctx, "pricing config cache read failed", zap.Error(err))
		}
	}

	v, err := resilience.Do(ctx, database.RetryConfig(), l.breaker, "pricing.load_active", l.repo.GetActiveVersion)
	if err != nil {
		recordConfigLoad(loadSourceError)
		return nil, err
	}
	recordConfigLoad(loadSourceStore)

	l.Prime(ctx, v)
	return v, nil
}

// Prime writes v to the cache as the active version
func (l *Loader) Prime(ctx context.Context, v *ConfigVersion) {
	if l.cache == nil || v == nil {
		return
	}
	if err := l.cache.Set(ctx, cache.Keys.ActivePricingConfig(), v, l.ttl); err != nil {
		logger.WarnContext(ctx, "failed to cache active pricing config",
			zap.Int("version", v.Version),
			zap.Error(err),
		)
	}
	if err := l.cache.Set(ctx, cache.Keys.PricingVersion(v.ID.String()), v, l.ttl); err != nil {
		logger.WarnContext(ctx, "failed to cache pricing version",
			zap.Int("version", v.Version),
			zap.Error(err),
		)
	}
}

// Invalidate drops the cached active version
func (l *Loader) Invalidate(ctx context.Context) error {
	if l.cache == nil {
		return nil
	}
	return l.cache.Delete(ctx, cache.Keys.ActivePricingConfig())
}
