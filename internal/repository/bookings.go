package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"butterfly/internal/domain"
	"butterfly/internal/models"
)

type bookingRecord struct {
	seq     int64
	booking models.Booking
}

// MemoryBookingStore keeps bookings in insertion order behind one lock.
// Every record leaving the store is a copy.
type MemoryBookingStore struct {
	mu      sync.RWMutex
	records []*bookingRecord
	nextID  int64
}

func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{nextID: 1}
}

func (s *MemoryBookingStore) CreateBooking(ctx context.Context, booking *models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextID
	s.nextID++
	booking.ID = strconv.FormatInt(seq, 10)

	s.records = append(s.records, &bookingRecord{seq: seq, booking: booking.Clone()})
	return nil
}

func (s *MemoryBookingStore) ListBookings(ctx context.Context) ([]models.Booking, error) {
	s.mu.RLock()
	records := make([]*bookingRecord, len(s.records))
	copy(records, s.records)
	out := make([]models.Booking, 0, len(records))
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.booking.CreatedAt.Equal(b.booking.CreatedAt) {
			return a.booking.CreatedAt.After(b.booking.CreatedAt)
		}
		return a.seq > b.seq
	})
	for _, r := range records {
		out = append(out, r.booking.Clone())
	}
	s.mu.RUnlock()

	return out, nil
}

func (s *MemoryBookingStore) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec := s.findLocked(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	b := rec.booking.Clone()
	return &b, nil
}

// GetBookingByReference returns the first match in insertion order.
func (s *MemoryBookingStore) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.records {
		if rec.booking.Reference == reference {
			b := rec.booking.Clone()
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *MemoryBookingStore) UpdateBookingStatus(ctx context.Context, id, status string, guard domain.StatusGuard) (*models.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.findLocked(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	if guard != nil {
		if err := guard(rec.booking.Status); err != nil {
			return nil, err
		}
	}
	rec.booking.Status = status

	b := rec.booking.Clone()
	return &b, nil
}

// Count returns the number of stored bookings.
func (s *MemoryBookingStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryBookingStore) findLocked(id string) *bookingRecord {
	for _, rec := range s.records {
		if rec.booking.ID == id {
			return rec
		}
	}
	return nil
}
