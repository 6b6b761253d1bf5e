package bookings

import (
	"context"
	"fmt"
	"sync"

	"taskmaster/metrics"
	"taskmaster/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Fetcher is the part of the job API the store reads from.
type Fetcher interface {
	GetJobsInProgress(ctx context.Context) ([]models.Booking, error)
	GetJobsCompleted(ctx context.Context) ([]models.Booking, error)
}

// BookingStore is the process-wide cache of the in-progress and completed
// lists.
type BookingStore interface {
	RefreshAll(ctx context.Context) error
	List(kind models.ListKind) []models.Booking
	Mutate(id string, fn func(*models.Booking)) bool
	Loading() bool
	Refreshing() bool
	OnRefreshed(fn func())
}

// Store keeps both lists in memory only. A restart loses them until the next
// refresh.
type Store struct {
	api    Fetcher
	logger *zap.Logger

	// keepStale keeps the previous snapshot of a list whose fetch failed
	// instead of emptying it.
	keepStale bool

	mu         sync.RWMutex
	inProgress []models.Booking
	completed  []models.Booking
	loading    bool
	refreshing int
	started    uint64 // refreshes started
	applied    uint64 // sequence of the refresh whose lists are shown
	listeners  []func()
}

type Option func(*Store)

// WithKeepStaleOnError keeps last-known-good data for a list whose fetch fails.
func WithKeepStaleOnError(keep bool) Option {
	return func(s *Store) { s.keepStale = keep }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func NewStore(api Fetcher, opts ...Option) *Store {
	s := &Store{
		api:        api,
		logger:     zap.NewNop(),
		inProgress: []models.Booking{},
		completed:  []models.Booking{},
		loading:    true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RefreshAll fetches both lists concurrently and replaces them wholesale.
// Each fetch swallows its own failure: by default a failing endpoint empties
// its list (see KEEP_STALE_ON_ERROR). Only a cancelled context aborts the
// refresh without touching either list. A refresh never overwrites the
// result of one that started after it.
func (s *Store) RefreshAll(ctx context.Context) error {
	s.mu.Lock()
	s.started++
	seq := s.started
	s.refreshing++
	s.mu.Unlock()

	metrics.IncStoreRefresh()

	var (
		inProgress, completed       []models.Booking
		inProgressErr, completedErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		inProgress, inProgressErr = s.fetch(gctx, models.ListInProgress, s.api.GetJobsInProgress)
		return nil
	})
	g.Go(func() error {
		completed, completedErr = s.fetch(gctx, models.ListCompleted, s.api.GetJobsCompleted)
		return nil
	})
	_ = g.Wait()

	s.mu.Lock()
	s.refreshing--
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("booking refresh cancelled: %w", err)
	}
	if seq < s.applied {
		s.mu.Unlock()
		s.logger.Debug("discarding superseded booking refresh", zap.Uint64("seq", seq))
		return nil
	}
	s.applied = seq
	if inProgressErr == nil || !s.keepStale {
		s.inProgress = inProgress
	}
	if completedErr == nil || !s.keepStale {
		s.completed = completed
	}
	s.loading = false
	listeners := append([]func(){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
	return nil
}

// fetch converts a failure into an empty list, logging it.
func (s *Store) fetch(ctx context.Context, kind models.ListKind, get func(context.Context) ([]models.Booking, error)) ([]models.Booking, error) {
	list, err := get(ctx)
	if err != nil {
		metrics.IncListFetch(string(kind), "failure")
		s.logger.Warn("failed to fetch bookings", zap.String("list", string(kind)), zap.Error(err))
		return []models.Booking{}, err
	}
	metrics.IncListFetch(string(kind), "success")
	if list == nil {
		list = []models.Booking{}
	}
	return list, nil
}

// List returns a copy of the requested list.
func (s *Store) List(kind models.ListKind) []models.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case models.ListInProgress:
		return append([]models.Booking{}, s.inProgress...)
	case models.ListCompleted:
		return append([]models.Booking{}, s.completed...)
	}
	return []models.Booking{}
}

// Loading is true until the first refresh completes.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Refreshing is true while any refresh is in flight.
func (s *Store) Refreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing > 0
}

// OnRefreshed registers fn to run after every applied refresh.
func (s *Store) OnRefreshed(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// Mutate applies fn to the in-progress booking with the given id.
func (s *Store) Mutate(id string, fn func(*models.Booking)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.inProgress {
		if s.inProgress[i].ID == id {
			fn(&s.inProgress[i])
			s.inProgress[i].ID = id
			return true
		}
	}
	return false
}

// AddToInProgress prepends a booking to the in-progress list.
func (s *Store) AddToInProgress(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inProgress = append([]models.Booking{b}, s.inProgress...)
}

// MoveToCompleted removes the booking from in-progress and prepends it to
// completed with status Completed.
func (s *Store) MoveToCompleted(b models.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inProgress = without(s.inProgress, b.ID)
	b.Status = models.StatusCompleted
	s.completed = append([]models.Booking{b}, s.completed...)
}

// BookingUpdate holds the fields UpdateInProgressBooking may change.
type BookingUpdate struct {
	Status        *models.BookingStatus
	EstimatedTime *string
	Description   *string
}

// UpdateInProgressBooking applies a partial update to an in-progress booking.
func (s *Store) UpdateInProgressBooking(id string, u BookingUpdate) bool {
	return s.Mutate(id, func(b *models.Booking) {
		if u.Status != nil {
			b.Status = *u.Status
		}
		if u.EstimatedTime != nil {
			b.EstimatedTime = *u.EstimatedTime
		}
		if u.Description != nil {
			b.Description = *u.Description
		}
	})
}

// RemoveInProgressBooking drops the booking with the given id.
func (s *Store) RemoveInProgressBooking(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inProgress = without(s.inProgress, id)
}

func without(list []models.Booking, id string) []models.Booking {
	out := make([]models.Booking, 0, len(list))
	for _, b := range list {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
