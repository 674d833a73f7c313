package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Timeout defaults and ceilings, in seconds
const (
	DefaultDatabaseQueryTimeout  = 10
	DefaultRedisOperationTimeout = 5
	DefaultRequestTimeout        = 30

	MaxDatabaseQueryTimeout  = 120
	MaxRedisOperationTimeout = 60
	MaxRequestTimeout        = 300
)

// TimeoutConfig holds per-dependency and per-route timeouts in seconds
type TimeoutConfig struct {
	DatabaseQueryTimeout  int
	RedisOperationTimeout int
	DefaultRequestTimeout int
	// RouteOverrides maps "METHOD:/path" to a timeout
	RouteOverrides map[string]int
}

func (t *TimeoutConfig) load() error {
	checks := []struct {
		name  string
		value int
		max   int
	}{
		{"DB_QUERY_TIMEOUT", t.DatabaseQueryTimeout, MaxDatabaseQueryTimeout},
		{"REDIS_OPERATION_TIMEOUT", t.RedisOperationTimeout, MaxRedisOperationTimeout},
		{"DEFAULT_REQUEST_TIMEOUT", t.DefaultRequestTimeout, MaxRequestTimeout},
	}
	for _, c := range checks {
		if c.value > c.max {
			return fmt.Errorf("%s value %d exceeds maximum of %d seconds", c.name, c.value, c.max)
		}
	}

	t.RouteOverrides = make(map[string]int)
	raw := getEnv("ROUTE_TIMEOUT_OVERRIDES", "")
	if raw == "" {
		return nil
	}

	var overrides map[string]int
	if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
		return fmt.Errorf("invalid ROUTE_TIMEOUT_OVERRIDES value: %w", err)
	}
	for route, seconds := range overrides {
		if seconds <= 0 {
			continue
		}
		if seconds > MaxRequestTimeout {
			return fmt.Errorf("route timeout for %s (%d) exceeds maximum of %d seconds", route, seconds, MaxRequestTimeout)
		}
		t.RouteOverrides[route] = seconds
	}
	return nil
}

// DatabaseQueryTimeoutDuration returns the database query timeout
func (t TimeoutConfig) DatabaseQueryTimeoutDuration() time.Duration {
	return secondsOr(t.DatabaseQueryTimeout, DefaultDatabaseQueryTimeout)
}

// RedisOperationTimeoutDuration returns the Redis operation timeout
func (t TimeoutConfig) RedisOperationTimeoutDuration() time.Duration {
	return secondsOr(t.RedisOperationTimeout, DefaultRedisOperationTimeout)
}

// DefaultRequestTimeoutDuration returns the request timeout used when no route override matches
func (t TimeoutConfig) DefaultRequestTimeoutDuration() time.Duration {
	return secondsOr(t.DefaultRequestTimeout, DefaultRequestTimeout)
}

// TimeoutForRoute returns the override for method and path, or the default
func (t TimeoutConfig) TimeoutForRoute(method, path string) time.Duration {
	if seconds, ok := t.RouteOverrides[method+":"+path]; ok && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	return t.DefaultRequestTimeoutDuration()
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}
