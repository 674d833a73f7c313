package pricing

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/richxcame/fare-engine/pkg/eventbus"
	"github.com/richxcame/fare-engine/pkg/logger"
	"go.uber.org/zap"
)

// Snapshot holds the active version in memory. Readers load the pointer once
// per request, so a concurrent update is seen either entirely or not at all.
type Snapshot struct {
	current atomic.Pointer[ConfigVersion]
	loader  VersionLoader
}

// NewSnapshot creates an empty snapshot backed by loader
func NewSnapshot(loader VersionLoader) *Snapshot {
	return &Snapshot{loader: loader}
}

// Load returns the held version, or nil before the first successful refresh
func (s *Snapshot) Load() *ConfigVersion {
	return s.current.Load()
}

// Store replaces the held version
func (s *Snapshot) Store(v *ConfigVersion) {
	s.current.Store(v)
	if v != nil {
		activeConfigVersion.Set(float64(v.Version))
	}
}

// Current returns the held version, loading it on first use
func (s *Snapshot) Current(ctx context.Context) (*ConfigVersion, error) {
	if v := s.current.Load(); v != nil {
		return v, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	if v := s.current.Load(); v != nil {
		return v, nil
	}
	return nil, fare.ErrConfigurationMissing
}

// Refresh reloads the active version. A store that reports nothing active
// clears the snapshot; any other failure keeps the last known version.
func (s *Snapshot) Refresh(ctx context.Context) error {
	v, err := s.loader.LoadActive(ctx)
	if errors.Is(err, fare.ErrConfigurationMissing) {
		if s.current.Swap(nil) != nil {
			logger.WarnContext(ctx, "no active pricing configuration, clearing snapshot")
		}
		return err
	}
	if err != nil {
		if held := s.current.Load(); held != nil {
			logger.WarnContext(ctx, "pricing config refresh failed, keeping last known version",
				zap.Int("version", held.Version),
				zap.Error(err),
			)
		}
		return err
	}

	if held := s.current.Load(); held == nil || held.ID != v.ID {
		logger.InfoContext(ctx, "pricing config loaded",
			zap.Int("version", v.Version),
			zap.String("version_id", v.ID.String()),
		)
	}
	s.Store(v)
	return nil
}

// Run refreshes the snapshot every interval until ctx is done
func (s *Snapshot) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = s.Refresh(ctx)
		}
	}
}

// HandleConfigEvent refreshes the snapshot when another replica changes the
// active version
func (s *Snapshot) HandleConfigEvent(ctx context.Context, event *eventbus.Event) error {
	logger.InfoContext(ctx, "pricing config change received",
		zap.String("event_id", event.ID),
		zap.String("type", event.Type),
	)
	err := s.Refresh(ctx)
	if errors.Is(err, fare.ErrConfigurationMissing) {
		return nil
	}
	return err
}
