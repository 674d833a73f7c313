package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/richxcame/fare-engine/pkg/resilience"
)

// Checker is a health check function that returns an error if unhealthy
type Checker func() error

// CheckerConfig holds configuration for health checkers
type CheckerConfig struct {
	Timeout time.Duration
}

// DefaultCheckerConfig returns default configuration for health checkers
func DefaultCheckerConfig() CheckerConfig {
	return CheckerConfig{
		Timeout: 2 * time.Second,
	}
}

// Pinger is satisfied by *pgxpool.Pool and the redis client wrapper
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingChecker returns a checker that pings a dependency
func PingChecker(name string, p Pinger) Checker {
	return PingCheckerWithConfig(name, p, DefaultCheckerConfig())
}

// PingCheckerWithConfig returns a ping checker with custom configuration
func PingCheckerWithConfig(name string, p Pinger, cfg CheckerConfig) Checker {
	return func() error {
		if p == nil {
			return fmt.Errorf("%s connection is nil", name)
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			return fmt.Errorf("%s ping failed: %w", name, err)
		}
		return nil
	}
}

// ConditionChecker fails with msg while ok reports false. Used for state
// that has no ping, like the event bus connection or the loaded pricing
// configuration.
func ConditionChecker(msg string, ok func() bool) Checker {
	return func() error {
		if !ok() {
			return errors.New(msg)
		}
		return nil
	}
}

// BreakerChecker fails while the breaker is open
func BreakerChecker(breaker *resilience.CircuitBreaker) Checker {
	return func() error {
		if !breaker.Allow() {
			return fmt.Errorf("circuit breaker %s is open", breaker.Name())
		}
		return nil
	}
}

// CompositeChecker combines multiple health checkers into one
// It returns an error if any of the checkers fail
func CompositeChecker(name string, checkers map[string]Checker) Checker {
	return func() error {
		for checkName, checker := range checkers {
			if err := checker(); err != nil {
				return fmt.Errorf("%s.%s check failed: %w", name, checkName, err)
			}
		}
		return nil
	}
}

// CachedChecker caches the result of a health check for a given duration
type CachedChecker struct {
	mu         sync.Mutex
	checker    Checker
	cacheTTL   time.Duration
	lastCheck  time.Time
	lastResult error
	now        func() time.Time
}

// NewCachedChecker creates a new cached health checker
func NewCachedChecker(checker Checker, cacheTTL time.Duration) *CachedChecker {
	return &CachedChecker{
		checker:  checker,
		cacheTTL: cacheTTL,
		now:      time.Now,
	}
}

// Check runs the health check, using cached result if still valid
func (c *CachedChecker) Check() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if !c.lastCheck.IsZero() && now.Sub(c.lastCheck) < c.cacheTTL {
		return c.lastResult
	}

	c.lastResult = c.checker()
	c.lastCheck = now
	return c.lastResult
}
