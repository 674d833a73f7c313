package pricing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fare-engine/internal/fare"
	"github.com/richxcame/fare-engine/pkg/eventbus"
	"github.com/stretchr/testify/mock"
)

// MockRepository implements RepositoryInterface for testing
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetActiveVersion(ctx context.Context) (*ConfigVersion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConfigVersion), args.Error(1)
}

func (m *MockRepository) GetVersion(ctx context.Context, id uuid.UUID) (*ConfigVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConfigVersion), args.Error(1)
}

func (m *MockRepository) ListVersions(ctx context.Context, limit, offset int) ([]*ConfigVersion, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ConfigVersion), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) CreateVersion(ctx context.Context, doc *fare.PricingConfiguration, expectedActive *uuid.UUID, actor, reason string, patch json.RawMessage) (*ConfigVersion, error) {
	args := m.Called(ctx, doc, expectedActive, actor, reason, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ConfigVersion), args.Error(1)
}

func (m *MockRepository) ActivateVersion(ctx context.Context, id uuid.UUID, actor, reason string) (*ConfigVersion, *uuid.UUID, error) {
	args := m.Called(ctx, id, actor, reason)
	var previous *uuid.UUID
	if p := args.Get(1); p != nil {
		previous = p.(*uuid.UUID)
	}
	if args.Get(0) == nil {
		return nil, previous, args.Error(2)
	}
	return args.Get(0).(*ConfigVersion), previous, args.Error(2)
}

func (m *MockRepository) ListAudit(ctx context.Context, limit, offset int) ([]*AuditEntry, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*AuditEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockRepository) EnsureSeed(ctx context.Context, doc *fare.PricingConfiguration, actor string) (*ConfigVersion, bool, error) {
	args := m.Called(ctx, doc, actor)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*ConfigVersion), args.Bool(1), args.Error(2)
}

// recordingPublisher captures published events
type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]*eventbus.Event
	ch     chan string
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{
		events: make(map[string][]*eventbus.Event),
		ch:     make(chan string, 16),
	}
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, event *eventbus.Event) error {
	p.mu.Lock()
	p.events[subject] = append(p.events[subject], event)
	p.mu.Unlock()
	p.ch <- subject
	return nil
}

// waitFor blocks until an event on subject arrives or the timeout passes
func (p *recordingPublisher) waitFor(subject string, timeout time.Duration) *eventbus.Event {
	deadline := time.After(timeout)
	for {
		p.mu.Lock()
		if evts := p.events[subject]; len(evts) > 0 {
			evt := evts[0]
			p.mu.Unlock()
			return evt
		}
		p.mu.Unlock()

		select {
		case <-p.ch:
		case <-deadline:
			return nil
		}
	}
}

// stubLoader returns canned versions in order, repeating the last one
type stubLoader struct {
	mu      sync.Mutex
	results []stubResult
	calls   int
}

type stubResult struct {
	version *ConfigVersion
	err     error
}

func (l *stubLoader) LoadActive(context.Context) (*ConfigVersion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.calls
	if i >= len(l.results) {
		i = len(l.results) - 1
	}
	l.calls++
	return l.results[i].version, l.results[i].err
}

func testVersion(n int) *ConfigVersion {
	doc := fare.DefaultConfiguration()
	doc.Version = VersionLabel(n)
	activated := time.Date(2026, 1, n, 9, 0, 0, 0, time.UTC)
	return &ConfigVersion{
		ID:          uuid.New(),
		Version:     n,
		Document:    doc,
		IsActive:    true,
		CreatedBy:   "admin-api-key",
		CreatedAt:   activated,
		ActivatedAt: &activated,
	}
}
