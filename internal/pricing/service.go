package pricing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/richxcame/fare-engine/pkg/async"
	"github.com/richxcame/fare-engine/pkg/eventbus"
	"github.com/richxcame/fare-engine/pkg/logger"
	"github.com/richxcame/fare-engine/pkg/tracing"
	"go.uber.org/zap"
)

const eventSource = "pricing-service"

// Service handles pricing business logic
type Service struct {
	repo      RepositoryInterface
	loader    *Loader
	snapshot  *Snapshot
	publisher eventbus.Publisher
	now       func() time.Time
}

// NewService creates a new pricing service
func NewService(repo RepositoryInterface, loader *Loader, snapshot *Snapshot) *Service {
	return &Service{
		repo:     repo,
		loader:   loader,
		snapshot: snapshot,
		now:      time.Now,
	}
}

// SetEventBus sets the publisher for pricing events
func (s *Service) SetEventBus(publisher eventbus.Publisher) {
	s.publisher = publisher
}

// Estimate prices a single trip against the active configuration
func (s *Service) Estimate(ctx context.Context, req fare.TripRequest) (*EstimateResponse, error) {
	v, err := s.snapshot.Current(ctx)
	if err != nil {
		fareComputations.WithLabelValues(string(req.ServiceType), outcomeConfigMissing).Inc()
		return nil, err
	}

	breakdown, err := s.compute(ctx, req, v)
	if err != nil {
		return nil, err
	}

	resp := &EstimateResponse{QuoteID: uuid.New(), FareBreakdown: breakdown}
	s.publishEvent(ctx, eventbus.SubjectFareQuoted, "fare.quoted", eventbus.FareQuotedData{
		QuoteID:       resp.QuoteID,
		ServiceType:   string(req.ServiceType),
		Variant:       req.Variant,
		DistanceKm:    req.DistanceKm,
		TotalFare:     breakdown.TotalFare,
		Currency:      breakdown.Currency,
		ConfigVersion: breakdown.ConfigVersion,
		RateSource:    string(breakdown.Details.RateSource),
		SurgeApplied:  breakdown.Details.SurgeTier != nil,
		NightApplied:  breakdown.Details.NightApplied,
		Cancelled:     req.Cancelled,
		QuotedAt:      s.now().UTC(),
	})
	return resp, nil
}

// EstimateBatch prices one trip for several variants. Every quote is priced
// against the same configuration version.
func (s *Service) EstimateBatch(ctx context.Context, req fare.TripRequest, variants []string) (*BatchEstimateResponse, error) {
	v, err := s.snapshot.Current(ctx)
	if err != nil {
		fareComputations.WithLabelValues(string(req.ServiceType), outcomeConfigMissing).Inc()
		return nil, err
	}

	if len(variants) == 0 {
		variants = configuredVariants(v.Document, req.ServiceType)
	}
	if len(variants) == 0 {
		variants = []string{req.Variant}
	}

	resp := &BatchEstimateResponse{
		ServiceType:   req.ServiceType,
		Currency:      v.Document.Currency,
		ConfigVersion: v.Document.Version,
		Quotes:        make([]VariantQuote, 0, len(variants)),
	}
	for _, variant := range variants {
		trip := req
		trip.Variant = variant
		breakdown, err := s.compute(ctx, trip, v)
		if err != nil {
			return nil, err
		}
		resp.Quotes = append(resp.Quotes, VariantQuote{Variant: variant, FareBreakdown: breakdown})
	}
	return resp, nil
}

func (s *Service) compute(ctx context.Context, req fare.TripRequest, v *ConfigVersion) (*fare.FareBreakdown, error) {
	attrs := tracing.FareAttributes(string(req.ServiceType), req.Variant, req.DistanceKm, req.RouteKind == fare.RouteRoundTrip)
	attrs = append(attrs, tracing.ConfigVersionKey.Int(v.Version))

	var breakdown *fare.FareBreakdown
	err := tracing.TraceOperation(ctx, tracerName, "fare.compute", attrs, func(ctx context.Context) error {
		var err error
		breakdown, err = fare.Compute(req, v.Document)
		if err == nil && breakdown.Details.FallbackReason != "" {
			tracing.AddSpanAttributes(ctx, tracing.RateFallbackKey.String(breakdown.Details.FallbackReason))
		}
		return err
	})
	if err != nil {
		outcome := outcomeError
		switch {
		case errors.Is(err, fare.ErrInvalidInput):
			outcome = outcomeInvalidInput
		case errors.Is(err, fare.ErrConfigurationMissing):
			outcome = outcomeConfigMissing
		}
		fareComputations.WithLabelValues(string(req.ServiceType), outcome).Inc()
		return nil, err
	}

	if reason := breakdown.Details.FallbackReason; reason != "" {
		rateFallbacks.WithLabelValues(string(req.ServiceType), string(breakdown.Details.RateSource)).Inc()
		logger.WarnContext(ctx, "fare rate fell back to a default",
			zap.String("service_type", string(req.ServiceType)),
			zap.String("variant", req.Variant),
			zap.String("rate_source", string(breakdown.Details.RateSource)),
			zap.String("reason", reason),
			zap.String("config_version", breakdown.ConfigVersion),
		)
	}

	fareComputations.WithLabelValues(string(req.ServiceType), outcomeOK).Inc()
	fareTotals.WithLabelValues(string(req.ServiceType), breakdown.Currency).Observe(breakdown.TotalFare)
	return breakdown, nil
}

func configuredVariants(cfg *fare.PricingConfiguration, service fare.ServiceType) []string {
	rates, ok := cfg.Services[service]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(rates.Variants))
	for name := range rates.Variants {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ActiveConfig returns the version currently pricing requests
func (s *Service) ActiveConfig(ctx context.Context) (*ConfigVersion, error) {
	return s.snapshot.Current(ctx)
}

// GetVersion returns a stored version with its document
func (s *Service) GetVersion(ctx context.Context, id uuid.UUID) (*ConfigVersion, error) {
	return s.repo.GetVersion(ctx, id)
}

// ListVersions returns version metadata, newest first
func (s *Service) ListVersions(ctx context.Context, limit, offset int) ([]*ConfigVersion, int64, error) {
	return s.repo.ListVersions(ctx, limit, offset)
}

// ListAudit returns the configuration audit trail, newest first
func (s *Service) ListAudit(ctx context.Context, limit, offset int) ([]*AuditEntry, int64, error) {
	return s.repo.ListAudit(ctx, limit, offset)
}

// UpdateConfig applies a patch to the stored active version and activates
// the result as a new version. The patched document must pass validation;
// the previous version is never modified.
func (s *Service) UpdateConfig(ctx context.Context, actor string, req *UpdateConfigRequest) (*ConfigVersion, error) {
	if req == nil || req.Patch.IsEmpty() {
		return nil, fmt.Errorf("%w: patch changes nothing", ErrInvalidPatch)
	}

	current, err := s.repo.GetActiveVersion(ctx)
	if err != nil {
		return nil, err
	}

	next := req.Patch.Apply(current.Document)
	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPatch, err)
	}

	patchJSON, err := json.Marshal(req.Patch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode patch: %w", err)
	}

	created, err := s.repo.CreateVersion(ctx, next, &current.ID, actor, req.Reason, patchJSON)
	if err != nil {
		return nil, err
	}
	s.install(ctx, created)

	sections := req.Patch.Sections()
	logger.InfoContext(ctx, "pricing config updated",
		zap.Int("version", created.Version),
		zap.Int("previous_version", current.Version),
		zap.Strings("sections", sections),
		zap.String("actor", actor),
	)

	previousID := current.ID
	s.publishEvent(ctx, eventbus.SubjectConfigUpdated, "pricing.config.updated", eventbus.ConfigUpdatedData{
		VersionID:         created.ID,
		Version:           created.Version,
		PreviousVersionID: &previousID,
		ChangedSections:   sections,
		Actor:             actor,
		Reason:            req.Reason,
		UpdatedAt:         created.CreatedAt,
	})
	return created, nil
}

// ActivateVersion makes a stored version active, for rollback or roll forward
func (s *Service) ActivateVersion(ctx context.Context, id uuid.UUID, actor, reason string) (*ConfigVersion, error) {
	activated, previous, err := s.repo.ActivateVersion(ctx, id, actor, reason)
	if err != nil {
		return nil, err
	}
	s.install(ctx, activated)

	if previous == nil {
		return activated, nil
	}

	logger.InfoContext(ctx, "pricing config activated",
		zap.Int("version", activated.Version),
		zap.String("previous_version_id", previous.String()),
		zap.String("actor", actor),
	)

	activatedAt := s.now().UTC()
	if activated.ActivatedAt != nil {
		activatedAt = *activated.ActivatedAt
	}
	s.publishEvent(ctx, eventbus.SubjectConfigActivated, "pricing.config.activated", eventbus.ConfigActivatedData{
		VersionID:         activated.ID,
		Version:           activated.Version,
		PreviousVersionID: previous,
		Actor:             actor,
		ActivatedAt:       activatedAt,
	})
	return activated, nil
}

// Bootstrap seeds the default configuration into an empty store and loads
// the active version
func (s *Service) Bootstrap(ctx context.Context, actor string) error {
	seeded, created, err := s.repo.EnsureSeed(ctx, fare.DefaultConfiguration(), actor)
	if err != nil {
		return fmt.Errorf("failed to seed pricing configuration: %w", err)
	}
	if created {
		logger.InfoContext(ctx, "seeded default pricing configuration", zap.Int("version", seeded.Version))
	}
	return s.snapshot.Refresh(ctx)
}

// install makes v the version this replica prices with and the one other
// replicas will read from the cache
func (s *Service) install(ctx context.Context, v *ConfigVersion) {
	s.snapshot.Store(v)
	if s.loader != nil {
		s.loader.Prime(ctx, v)
	}
}

// publishEvent publishes an event asynchronously
func (s *Service) publishEvent(ctx context.Context, subject, eventType string, data interface{}) {
	if s.publisher == nil {
		return
	}
	async.GoWithTimeout(ctx, "publish "+eventType, 5*time.Second, func(ctx context.Context) {
		evt, err := eventbus.NewEvent(eventType, eventSource, data)
		if err != nil {
			logger.WarnContext(ctx, "failed to create pricing event", zap.String("type", eventType), zap.Error(err))
			return
		}
		if err := s.publisher.Publish(ctx, subject, evt); err != nil {
			logger.WarnContext(ctx, "failed to publish pricing event", zap.String("type", eventType), zap.Error(err))
		}
	})
}
