package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"butterfly/internal/domain"
	"butterfly/internal/events"
	"butterfly/internal/models"
	"butterfly/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newMenuFixture() (*MenuService, *mockPublisher) {
	publisher := new(mockPublisher)
	publisher.On("PublishJSON", mock.Anything, mock.Anything).Return(nil)
	svc := NewMenuService(repository.NewMemoryMenuStore(), publisher, nil)
	clock := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return svc, publisher
}

func pastaInput() models.MenuItemInput {
	return models.MenuItemInput{
		Name:        "Butterfly Garden Special Pasta",
		Description: "Creamy pasta with garden vegetables",
		Price:       1800,
		Category:    "Main Course",
		Available:   true,
		IsVeg:       true,
		Tags:        []string{"Signature"},
	}
}

func TestMenuService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		svc, publisher := newMenuFixture()
		item, err := svc.CreateItem(ctx, pastaInput())
		require.NoError(t, err)
		assert.Equal(t, "1", item.ID)
		assert.Equal(t, item.CreatedAt, item.UpdatedAt)
		assert.True(t, item.Available)
		publisher.AssertCalled(t, "PublishJSON", events.EventMenuItemCreated, events.MenuEventPayload{Item: *item})
	})

	t.Run("MissingFields", func(t *testing.T) {
		svc, _ := newMenuFixture()
		_, err := svc.CreateItem(ctx, models.MenuItemInput{})
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrValidation))
		assert.Equal(t, "Missing required fields: name, description, price, category", err.Error())

		in := pastaInput()
		in.Price = 0
		in.Category = " "
		_, err = svc.CreateItem(ctx, in)
		assert.Equal(t, "Missing required fields: price, category", err.Error())

		items, _ := svc.ListItems(ctx)
		assert.Empty(t, items)
	})
}

func TestMenuService_UpdateToggleDelete(t *testing.T) {
	ctx := context.Background()
	svc, publisher := newMenuFixture()

	pasta, err := svc.CreateItem(ctx, pastaInput())
	require.NoError(t, err)
	in := pastaInput()
	in.Name = "Royal Butter Chicken"
	chicken, err := svc.CreateItem(ctx, in)
	require.NoError(t, err)

	t.Run("ListByUpdatedAt", func(t *testing.T) {
		items, err := svc.ListItems(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, chicken.ID, items[0].ID)
	})

	t.Run("Get", func(t *testing.T) {
		got, err := svc.GetItem(ctx, " "+pasta.ID+" ")
		require.NoError(t, err)
		assert.Equal(t, *pasta, *got)

		_, err = svc.GetItem(ctx, "404")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.Equal(t, "Menu item not found", err.Error())
	})

	t.Run("Update", func(t *testing.T) {
		desc := "Now with truffle"
		updated, err := svc.UpdateItem(ctx, pasta.ID, models.MenuItemPatch{Description: &desc})
		require.NoError(t, err)
		assert.Equal(t, desc, updated.Description)
		assert.Equal(t, pasta.Name, updated.Name)
		assert.Equal(t, pasta.CreatedAt, updated.CreatedAt)
		assert.True(t, updated.UpdatedAt.After(pasta.UpdatedAt))
		publisher.AssertCalled(t, "PublishJSON", events.EventMenuItemUpdated, events.MenuEventPayload{Item: *updated})

		items, _ := svc.ListItems(ctx)
		assert.Equal(t, pasta.ID, items[0].ID)

		_, err = svc.UpdateItem(ctx, "404", models.MenuItemPatch{Description: &desc})
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.Equal(t, "Menu item not found", err.Error())
	})

	t.Run("ToggleTwice", func(t *testing.T) {
		first, err := svc.ToggleAvailability(ctx, chicken.ID)
		require.NoError(t, err)
		assert.False(t, first.Available)
		second, err := svc.ToggleAvailability(ctx, chicken.ID)
		require.NoError(t, err)
		assert.True(t, second.Available)

		_, err = svc.ToggleAvailability(ctx, "404")
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})

	t.Run("Delete", func(t *testing.T) {
		before, _ := svc.ListItems(ctx)
		var original models.MenuItem
		for _, it := range before {
			if it.ID == chicken.ID {
				original = it
			}
		}

		removed, err := svc.DeleteItem(ctx, chicken.ID)
		require.NoError(t, err)
		assert.Equal(t, original, *removed)
		publisher.AssertCalled(t, "PublishJSON", events.EventMenuItemDeleted, events.MenuEventPayload{Item: *removed})

		items, _ := svc.ListItems(ctx)
		for _, it := range items {
			assert.NotEqual(t, chicken.ID, it.ID)
		}

		_, err = svc.DeleteItem(ctx, chicken.ID)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	})
}

func TestMenuService_Seed(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMenuFixture()
	seed := []models.MenuItem{
		{ID: "ignored", Name: "Golden Sunset Salmon", Description: "Grilled salmon", Price: 2400, Category: "Seafood", Available: true},
		{Name: "Crispy Chicken Burger", Description: "Crunchy", Price: 1450, Category: "Fast Food", Available: true},
	}

	n, err := svc.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items, _ := svc.ListItems(ctx)
	require.Len(t, items, 2)
	assert.Equal(t, "2", items[0].ID)
	assert.Equal(t, "1", items[1].ID)
	assert.False(t, items[0].CreatedAt.IsZero())

	// повторный запуск ничего не добавляет
	n, err = svc.Seed(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
