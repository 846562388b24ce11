package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"butterfly/internal/domain"
	"butterfly/internal/models"
)

type menuRecord struct {
	seq  int64
	item models.MenuItem
}

// MemoryMenuStore is the in-process menu catalog.
type MemoryMenuStore struct {
	mu      sync.RWMutex
	records []*menuRecord
	nextID  int64
}

func NewMemoryMenuStore() *MemoryMenuStore {
	return &MemoryMenuStore{nextID: 1}
}

func (s *MemoryMenuStore) ListMenuItems(ctx context.Context) ([]models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*menuRecord, len(s.records))
	copy(records, s.records)
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.item.UpdatedAt.Equal(b.item.UpdatedAt) {
			return a.item.UpdatedAt.After(b.item.UpdatedAt)
		}
		return a.seq > b.seq
	})

	out := make([]models.MenuItem, 0, len(records))
	for _, r := range records {
		out = append(out, r.item.Clone())
	}
	return out, nil
}

func (s *MemoryMenuStore) GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, rec := s.findLocked(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	item := rec.item.Clone()
	return &item, nil
}

func (s *MemoryMenuStore) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	seq := s.nextID
	s.nextID++
	item.ID = strconv.FormatInt(seq, 10)

	s.records = append(s.records, &menuRecord{seq: seq, item: item.Clone()})
	return nil
}

func (s *MemoryMenuStore) UpdateMenuItem(ctx context.Context, id string, patch models.MenuItemPatch, at time.Time) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec := s.findLocked(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	patch.Apply(&rec.item, at)

	item := rec.item.Clone()
	return &item, nil
}

func (s *MemoryMenuStore) DeleteMenuItem(ctx context.Context, id string) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, rec := s.findLocked(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)

	item := rec.item.Clone()
	return &item, nil
}

func (s *MemoryMenuStore) ToggleMenuItem(ctx context.Context, id string, at time.Time) (*models.MenuItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, rec := s.findLocked(id)
	if rec == nil {
		return nil, domain.ErrNotFound
	}
	rec.item.Available = !rec.item.Available
	rec.item.UpdatedAt = at

	item := rec.item.Clone()
	return &item, nil
}

func (s *MemoryMenuStore) CountMenuItems(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

func (s *MemoryMenuStore) findLocked(id string) (int, *menuRecord) {
	for i, rec := range s.records {
		if rec.item.ID == id {
			return i, rec
		}
	}
	return -1, nil
}
