package testfixtures

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"appointment-booking/internal/data/entity"
	"appointment-booking/internal/data/repository"
	"appointment-booking/internal/scheduling"

	"github.com/google/uuid"
)

// Store is an in-memory implementation of every repository plus the
// transaction manager. Transactions stage writes and apply them at commit,
// re-checking the no-overlap rule the way the database constraint does.
type Store struct {
	mu        sync.Mutex
	bookings  map[uuid.UUID]*entity.Booking
	history   []*entity.BookingHistory
	schedules map[uuid.UUID]*entity.WorkingSchedule
	providers map[uuid.UUID]*entity.Provider
	services  map[uuid.UUID]*entity.ProviderService

	locks       *keyLocks
	historyFail error
}

func NewStore() *Store {
	return &Store{
		bookings:  make(map[uuid.UUID]*entity.Booking),
		schedules: make(map[uuid.UUID]*entity.WorkingSchedule),
		providers: make(map[uuid.UUID]*entity.Provider),
		services:  make(map[uuid.UUID]*entity.ProviderService),
		locks:     newKeyLocks(),
	}
}

// Repository returns a repository set backed by the store.
func (s *Store) Repository() *repository.Repository {
	return &repository.Repository{
		Booking:   &bookingRepo{store: s},
		History:   &historyRepo{store: s},
		Schedule:  &scheduleRepo{store: s},
		Directory: &directoryRepo{store: s},
		Tx:        s,
	}
}

// FailHistoryWrites makes every history insert return err until reset with nil.
func (s *Store) FailHistoryWrites(err error) {
	s.mu.Lock()
	s.historyFail = err
	s.mu.Unlock()
}

// HoldLocks blocks the keys as a concurrent transaction would.
func (s *Store) HoldLocks(keys ...repository.LockKey) (release func()) {
	release, err := s.locks.acquire(context.Background(), keys, 0)
	if err != nil {
		panic(err)
	}
	return release
}

func (s *Store) AddProvider(p *entity.Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.providers[p.ID] = &cp
}

func (s *Store) AddService(svc *entity.ProviderService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *svc
	cp.AllowedDurations = slices.Clone(svc.AllowedDurations)
	s.services[svc.ID] = &cp
}

// PutBooking stores a booking directly, bypassing every rule.
func (s *Store) PutBooking(b *entity.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings[b.ID] = b.Clone()
}

// Bookings returns a snapshot of all committed bookings ordered by start.
func (s *Store) Bookings() []*entity.Booking {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, b.Clone())
	}
	slices.SortFunc(out, func(a, b *entity.Booking) int { return a.Start.Compare(b.Start) })
	return out
}

// History returns the committed history rows of one booking.
func (s *Store) History(bookingID uuid.UUID) []*entity.BookingHistory {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.BookingHistory
	for _, h := range s.history {
		if h.BookingID == bookingID {
			cp := *h
			out = append(out, &cp)
		}
	}
	return out
}

// ==================== TRANSACTIONS ====================

type memTx struct {
	bookings map[uuid.UUID]*entity.Booking
	history  []*entity.BookingHistory
}

func (s *Store) WithReservationLock(ctx context.Context, keys []repository.LockKey, timeout time.Duration, fn func(ctx context.Context, tx *repository.TxRepository) error) error {
	release, err := s.locks.acquire(ctx, keys, timeout)
	if err != nil {
		return err
	}
	defer release()

	tx := &memTx{bookings: make(map[uuid.UUID]*entity.Booking)}
	if err := fn(ctx, &repository.TxRepository{
		Booking: &bookingRepo{store: s, tx: tx},
		History: &historyRepo{store: s, tx: tx},
	}); err != nil {
		return err
	}
	return s.commit(tx)
}

func (s *Store) commit(tx *memTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := maps.Clone(s.bookings)
	maps.Copy(merged, tx.bookings)
	for _, b := range tx.bookings {
		if err := checkNoOverlap(merged, b); err != nil {
			return err
		}
	}

	maps.Copy(s.bookings, tx.bookings)
	s.history = append(s.history, tx.history...)
	return nil
}

func checkNoOverlap(all map[uuid.UUID]*entity.Booking, b *entity.Booking) error {
	if !b.Status.IsActive() {
		return nil
	}
	w := scheduling.NewWindow(b.Start, b.DurationMinutes)
	for _, other := range all {
		if other.ID == b.ID || other.ProviderID != b.ProviderID || !other.Status.IsActive() {
			continue
		}
		if w.Overlaps(scheduling.NewWindow(other.Start, other.DurationMinutes)) {
			return fmt.Errorf("%w: bookings_no_overlap", scheduling.ErrSlotUnavailable)
		}
	}
	return nil
}

// ==================== BOOKINGS ====================

type bookingRepo struct {
	store *Store
	tx    *memTx // nil outside a transaction
}

// view merges committed rows with the rows staged by this transaction.
func (r *bookingRepo) view() map[uuid.UUID]*entity.Booking {
	r.store.mu.Lock()
	merged := maps.Clone(r.store.bookings)
	r.store.mu.Unlock()
	if r.tx != nil {
		maps.Copy(merged, r.tx.bookings)
	}
	return merged
}

func (r *bookingRepo) write(b *entity.Booking) error {
	if r.tx != nil {
		if err := checkNoOverlap(r.view(), b); err != nil {
			return err
		}
		r.tx.bookings[b.ID] = b.Clone()
		return nil
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if err := checkNoOverlap(r.store.bookings, b); err != nil {
		return err
	}
	r.store.bookings[b.ID] = b.Clone()
	return nil
}

func (r *bookingRepo) Create(_ context.Context, b *entity.Booking) error {
	if _, exists := r.view()[b.ID]; exists {
		return fmt.Errorf("create booking %s: duplicate id", b.ID)
	}
	return r.write(b)
}

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.view()[id].Clone(), nil
}

func (r *bookingRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	return r.FindByID(ctx, id)
}

func (r *bookingRepo) FindByProvider(_ context.Context, providerID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	var all []*entity.Booking
	for _, b := range r.view() {
		if b.ProviderID == providerID {
			all = append(all, b.Clone())
		}
	}
	slices.SortFunc(all, func(a, b *entity.Booking) int { return b.Start.Compare(a.Start) })
	if offset >= len(all) {
		return nil, nil
	}
	return all[offset:min(offset+limit, len(all))], nil
}

func (r *bookingRepo) CountByProvider(_ context.Context, providerID uuid.UUID) (int64, error) {
	var n int64
	for _, b := range r.view() {
		if b.ProviderID == providerID {
			n++
		}
	}
	return n, nil
}

func (r *bookingRepo) UpdateStatus(_ context.Context, b *entity.Booking) error {
	current, ok := r.view()[b.ID]
	if !ok {
		return fmt.Errorf("update booking status %s: %w", b.ID, scheduling.ErrBookingNotFound)
	}
	updated := current.Clone()
	updated.Status = b.Status
	updated.StatusChangedAt = b.StatusChangedAt
	updated.CancellationReason = b.CancellationReason
	updated.UpdatedAt = b.UpdatedAt
	return r.write(updated)
}

func (r *bookingRepo) FindActiveOverlapping(_ context.Context, providerID uuid.UUID, from, to time.Time, excludeID uuid.UUID) ([]*entity.Booking, error) {
	target := scheduling.Window{Start: from, End: to}
	var out []*entity.Booking
	for _, b := range r.view() {
		if b.ProviderID != providerID || b.ID == excludeID || !b.Status.IsActive() {
			continue
		}
		if target.Overlaps(scheduling.NewWindow(b.Start, b.DurationMinutes)) {
			out = append(out, b.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *entity.Booking) int { return a.Start.Compare(b.Start) })
	return out, nil
}

func (r *bookingRepo) FindConfirmedEndedBefore(_ context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range r.view() {
		if b.Status == entity.BookingStatusConfirmed && !b.End().After(cutoff) {
			out = append(out, b.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *entity.Booking) int { return a.Start.Compare(b.Start) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *bookingRepo) FindPendingCreatedBefore(_ context.Context, cutoff time.Time, limit int) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range r.view() {
		if b.Status == entity.BookingStatusPending && b.CreatedAt.Before(cutoff) {
			out = append(out, b.Clone())
		}
	}
	slices.SortFunc(out, func(a, b *entity.Booking) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ==================== HISTORY ====================

type historyRepo struct {
	store *Store
	tx    *memTx
}

func (r *historyRepo) Create(_ context.Context, h *entity.BookingHistory) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.historyFail != nil {
		return fmt.Errorf("create history for booking %s: %w", h.BookingID, r.store.historyFail)
	}
	cp := *h
	if r.tx != nil {
		r.tx.history = append(r.tx.history, &cp)
		return nil
	}
	r.store.history = append(r.store.history, &cp)
	return nil
}

func (r *historyRepo) FindByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.BookingHistory, error) {
	out := r.store.History(bookingID)
	slices.SortStableFunc(out, func(a, b *entity.BookingHistory) int { return cmp.Compare(a.CreatedAt.UnixNano(), b.CreatedAt.UnixNano()) })
	return out, nil
}

// ==================== SCHEDULES & DIRECTORY ====================

type scheduleRepo struct {
	store *Store
}

func (r *scheduleRepo) FindByProviderID(_ context.Context, providerID uuid.UUID) (*entity.WorkingSchedule, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.store.schedules[providerID].Clone(), nil
}

func (r *scheduleRepo) Upsert(_ context.Context, schedule *entity.WorkingSchedule) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.schedules[schedule.ProviderID] = schedule.Clone()
	return nil
}

type directoryRepo struct {
	store *Store
}

func (r *directoryRepo) FindProvider(_ context.Context, id uuid.UUID) (*entity.Provider, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	p, ok := r.store.providers[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (r *directoryRepo) FindService(_ context.Context, id uuid.UUID) (*entity.ProviderService, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	svc, ok := r.store.services[id]
	if !ok {
		return nil, nil
	}
	cp := *svc
	cp.AllowedDurations = slices.Clone(svc.AllowedDurations)
	return &cp, nil
}
