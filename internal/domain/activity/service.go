package activity

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"filevault/internal/domain/files"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 200
	recordTimeout    = 5 * time.Second
	queueSize        = 1024
)

var ErrInvalidRetention = errors.New("retention must be positive")

// Store is the persistence the journal needs; *Repository implements it.
type Store interface {
	Create(ctx context.Context, e *Event) error
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]Event, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}

// Service journals file changes per tenant. It is a files.Observer:
// FileChanged only queues the event and a background writer persists it.
// A full queue or a failed write is logged and the event dropped.
type Service struct {
	store Store
	now   func() time.Time

	mu     sync.RWMutex
	closed bool
	queue  chan *Event
	done   chan struct{}
}

func NewService(store Store) *Service {
	s := &Service{
		store: store,
		now:   time.Now,
		queue: make(chan *Event, queueSize),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Service) FileChanged(_ context.Context, c files.Change) {
	at := c.At
	if at.IsZero() {
		at = s.now().UTC()
	}
	e := &Event{TenantID: c.Tenant, Action: c.Action, Path: c.Path, Size: c.Size, CreatedAt: at}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- e:
	default:
		log.Printf("activity_event_dropped tenant=%s action=%s path=%q reason=queue_full", c.Tenant, c.Action, c.Path)
	}
}

func (s *Service) run() {
	defer close(s.done)
	for e := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := s.store.Create(ctx, e); err != nil {
			log.Printf("activity_record_failed tenant=%s action=%s path=%q error=%v", e.TenantID, e.Action, e.Path, err)
		}
		cancel()
	}
}

// Close stops accepting events and waits until the queued ones are written.
func (s *Service) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

// Recent clamps limit into [1, MaxListLimit], defaulting to DefaultListLimit.
func (s *Service) Recent(ctx context.Context, tenantID string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	events, err := s.store.ListByTenant(ctx, tenantID, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []Event{}
	}
	return events, nil
}

// Prune deletes events older than retention and reports how many went.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, ErrInvalidRetention
	}
	return s.store.DeleteOlderThan(ctx, s.now().UTC().Add(-retention))
}
