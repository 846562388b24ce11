package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"butterfly/internal/domain"
	"butterfly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBookingStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("CreateAssignsSequentialIDs", func(t *testing.T) {
		store := NewMemoryBookingStore()
		b1 := &models.Booking{Name: "Asha", Phone: "1", CreatedAt: base}
		b2 := &models.Booking{Name: "Ravi", Phone: "2", CreatedAt: base.Add(time.Second)}
		require.NoError(t, store.CreateBooking(ctx, b1))
		require.NoError(t, store.CreateBooking(ctx, b2))

		assert.Equal(t, "1", b1.ID)
		assert.Equal(t, "2", b2.ID)
		assert.Equal(t, 2, store.Count())
	})

	t.Run("ListOrderedNewestFirst", func(t *testing.T) {
		store := NewMemoryBookingStore()
		for i, offset := range []time.Duration{time.Minute, 3 * time.Minute, 2 * time.Minute} {
			b := &models.Booking{Name: string(rune('a' + i)), CreatedAt: base.Add(offset)}
			require.NoError(t, store.CreateBooking(ctx, b))
		}
		// одинаковое время: позже созданная идет первой
		require.NoError(t, store.CreateBooking(ctx, &models.Booking{Name: "d", CreatedAt: base.Add(3 * time.Minute)}))
		require.NoError(t, store.CreateBooking(ctx, &models.Booking{Name: "zero"}))

		list, err := store.ListBookings(ctx)
		require.NoError(t, err)
		var names []string
		for _, b := range list {
			names = append(names, b.Name)
		}
		assert.Equal(t, []string{"d", "b", "c", "a", "zero"}, names)
	})

	t.Run("ReturnsCopies", func(t *testing.T) {
		store := NewMemoryBookingStore()
		price := 500.0
		b := &models.Booking{Name: "Asha", Decorations: []models.Decoration{{ID: "d1", Name: "Balloons"}}, TotalPrice: &price}
		require.NoError(t, store.CreateBooking(ctx, b))

		b.Decorations[0].Name = "changed by caller"
		got, err := store.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, "Balloons", got.Decorations[0].Name)

		*got.TotalPrice = 1
		got.Name = "mutated"
		again, _ := store.GetBooking(ctx, b.ID)
		assert.Equal(t, "Asha", again.Name)
		assert.Equal(t, 500.0, *again.TotalPrice)
	})

	t.Run("ReferenceLookupFirstMatchWins", func(t *testing.T) {
		store := NewMemoryBookingStore()
		require.NoError(t, store.CreateBooking(ctx, &models.Booking{Name: "first", Reference: "BFAAAAAA"}))
		require.NoError(t, store.CreateBooking(ctx, &models.Booking{Name: "second", Reference: "BFAAAAAA"}))

		got, err := store.GetBookingByReference(ctx, "BFAAAAAA")
		require.NoError(t, err)
		assert.Equal(t, "first", got.Name)

		_, err = store.GetBookingByReference(ctx, "BFZZZZZZ")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("UpdateStatusOnlyTouchesStatus", func(t *testing.T) {
		store := NewMemoryBookingStore()
		b := &models.Booking{Name: "Asha", Phone: "9990001111", Reference: "BF123456", Status: models.StatusPending, CreatedAt: base}
		require.NoError(t, store.CreateBooking(ctx, b))
		before, _ := store.GetBooking(ctx, b.ID)

		updated, err := store.UpdateBookingStatus(ctx, b.ID, models.StatusConfirmed, nil)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, updated.Status)

		expected := *before
		expected.Status = models.StatusConfirmed
		assert.Equal(t, expected, *updated)
	})

	t.Run("UpdateStatusUnknownID", func(t *testing.T) {
		store := NewMemoryBookingStore()
		require.NoError(t, store.CreateBooking(ctx, &models.Booking{Name: "Asha", Status: models.StatusPending}))

		_, err := store.UpdateBookingStatus(ctx, "42", models.StatusConfirmed, nil)
		assert.True(t, errors.Is(err, domain.ErrNotFound))

		list, _ := store.ListBookings(ctx)
		require.Len(t, list, 1)
		assert.Equal(t, models.StatusPending, list[0].Status)
	})

	t.Run("GuardRejectsUpdate", func(t *testing.T) {
		store := NewMemoryBookingStore()
		b := &models.Booking{Status: models.StatusRejected}
		require.NoError(t, store.CreateBooking(ctx, b))

		guardErr := domain.InvalidTransition("nope")
		_, err := store.UpdateBookingStatus(ctx, b.ID, models.StatusConfirmed, func(current string) error {
			assert.Equal(t, models.StatusRejected, current)
			return guardErr
		})
		assert.Equal(t, guardErr, err)

		got, _ := store.GetBooking(ctx, b.ID)
		assert.Equal(t, models.StatusRejected, got.Status)
	})

	t.Run("ConcurrentCreatesGetUniqueIDs", func(t *testing.T) {
		store := NewMemoryBookingStore()
		var wg sync.WaitGroup
		ids := make(chan string, 50)
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b := &models.Booking{Name: "guest"}
				_ = store.CreateBooking(ctx, b)
				ids <- b.ID
			}()
		}
		wg.Wait()
		close(ids)

		seen := make(map[string]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
		assert.Len(t, seen, 50)
	})
}

func TestMemoryMenuStore(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	newItem := func(name string, at time.Time) *models.MenuItem {
		return &models.MenuItem{Name: name, Description: "d", Price: 100, Category: "c", Available: true, CreatedAt: at, UpdatedAt: at}
	}

	t.Run("ListByUpdatedAtDesc", func(t *testing.T) {
		store := NewMemoryMenuStore()
		a := newItem("a", base)
		b := newItem("b", base.Add(time.Minute))
		require.NoError(t, store.CreateMenuItem(ctx, a))
		require.NoError(t, store.CreateMenuItem(ctx, b))

		_, err := store.ToggleMenuItem(ctx, a.ID, base.Add(time.Hour))
		require.NoError(t, err)

		list, err := store.ListMenuItems(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "a", list[0].Name)
		assert.Equal(t, "b", list[1].Name)

		n, _ := store.CountMenuItems(ctx)
		assert.Equal(t, 2, n)
	})

	t.Run("UpdateMergesPatch", func(t *testing.T) {
		store := NewMemoryMenuStore()
		item := newItem("Pasta", base)
		item.Tags = []string{"Popular"}
		require.NoError(t, store.CreateMenuItem(ctx, item))

		price := int64(1900)
		updated, err := store.UpdateMenuItem(ctx, item.ID, models.MenuItemPatch{Price: &price}, base.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(1900), updated.Price)
		assert.Equal(t, "Pasta", updated.Name)
		assert.Equal(t, []string{"Popular"}, updated.Tags)
		assert.Equal(t, base, updated.CreatedAt)
		assert.Equal(t, base.Add(time.Minute), updated.UpdatedAt)

		_, err = store.UpdateMenuItem(ctx, "99", models.MenuItemPatch{}, base)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("ToggleTwiceRestores", func(t *testing.T) {
		store := NewMemoryMenuStore()
		item := newItem("Salmon", base)
		require.NoError(t, store.CreateMenuItem(ctx, item))

		first, err := store.ToggleMenuItem(ctx, item.ID, base.Add(time.Second))
		require.NoError(t, err)
		assert.False(t, first.Available)
		second, err := store.ToggleMenuItem(ctx, item.ID, base.Add(2*time.Second))
		require.NoError(t, err)
		assert.True(t, second.Available)

		_, err = store.ToggleMenuItem(ctx, "99", base)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("DeleteEchoesRemovedItem", func(t *testing.T) {
		store := NewMemoryMenuStore()
		item := newItem("Burger", base)
		require.NoError(t, store.CreateMenuItem(ctx, item))
		other := newItem("Chicken", base)
		require.NoError(t, store.CreateMenuItem(ctx, other))

		removed, err := store.DeleteMenuItem(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, *item, *removed)

		list, _ := store.ListMenuItems(ctx)
		require.Len(t, list, 1)
		assert.Equal(t, other.ID, list[0].ID)

		_, err = store.DeleteMenuItem(ctx, item.ID)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		_, err = store.GetMenuItem(ctx, item.ID)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}
