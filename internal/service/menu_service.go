package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"butterfly/internal/domain"
	"butterfly/internal/events"
	"butterfly/internal/metrics"
	"butterfly/internal/models"

	"github.com/rs/zerolog"
)

const msgMenuItemNotFound = "Menu item not found"

type MenuService struct {
	repo     domain.MenuRepository
	eventBus domain.EventPublisher
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewMenuService(repo domain.MenuRepository, eventBus domain.EventPublisher, logger *zerolog.Logger) *MenuService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &MenuService{
		repo:     repo,
		eventBus: eventBus,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

func (s *MenuService) ListItems(ctx context.Context) ([]models.MenuItem, error) {
	items, err := s.repo.ListMenuItems(ctx)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	return items, nil
}

func (s *MenuService) GetItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.repo.GetMenuItem(ctx, strings.TrimSpace(id))
	if err != nil {
		return nil, storeError(err, msgMenuItemNotFound, "get menu item")
	}
	return item, nil
}

func (s *MenuService) CreateItem(ctx context.Context, input models.MenuItemInput) (*models.MenuItem, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Description = strings.TrimSpace(input.Description)
	input.Category = strings.TrimSpace(input.Category)

	if err := validateInput(input); err != nil {
		return nil, err
	}

	item := input.NewMenuItem()
	now := s.now()
	item.CreatedAt = now
	item.UpdatedAt = now

	if err := s.repo.CreateMenuItem(ctx, &item); err != nil {
		return nil, fmt.Errorf("create menu item: %w", err)
	}

	s.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Msg("Menu item created")
	s.publish(events.EventMenuItemCreated, item)
	return &item, nil
}

func (s *MenuService) UpdateItem(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error) {
	item, err := s.repo.UpdateMenuItem(ctx, id, patch, s.now())
	if err != nil {
		return nil, storeError(err, msgMenuItemNotFound, "update menu item")
	}

	s.logger.Info().Str("item_id", item.ID).Msg("Menu item updated")
	s.publish(events.EventMenuItemUpdated, *item)
	return item, nil
}

func (s *MenuService) DeleteItem(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.repo.DeleteMenuItem(ctx, id)
	if err != nil {
		return nil, storeError(err, msgMenuItemNotFound, "delete menu item")
	}

	s.logger.Info().Str("item_id", item.ID).Str("name", item.Name).Msg("Menu item deleted")
	s.publish(events.EventMenuItemDeleted, *item)
	return item, nil
}

func (s *MenuService) ToggleAvailability(ctx context.Context, id string) (*models.MenuItem, error) {
	item, err := s.repo.ToggleMenuItem(ctx, id, s.now())
	if err != nil {
		return nil, storeError(err, msgMenuItemNotFound, "toggle menu item")
	}

	s.logger.Info().Str("item_id", item.ID).Bool("available", item.Available).Msg("Menu item availability toggled")
	s.publish(events.EventMenuItemToggled, *item)
	return item, nil
}

// Seed loads the initial catalog when the store is empty and returns the
// number of inserted items.
func (s *MenuService) Seed(ctx context.Context, items []models.MenuItem) (int, error) {
	count, err := s.repo.CountMenuItems(ctx)
	if err != nil {
		return 0, fmt.Errorf("count menu items: %w", err)
	}
	if count > 0 {
		s.logger.Debug().Int("existing", count).Msg("Menu already populated, seed skipped")
		return 0, nil
	}

	now := s.now()
	for i := range items {
		item := items[i].Clone()
		item.ID = ""
		item.CreatedAt = now
		item.UpdatedAt = now
		if err := s.repo.CreateMenuItem(ctx, &item); err != nil {
			return i, fmt.Errorf("seed menu item %q: %w", item.Name, err)
		}
	}

	s.logger.Info().Int("items", len(items)).Msg("Menu seeded")
	return len(items), nil
}

func (s *MenuService) publish(eventType string, item models.MenuItem) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, events.MenuEventPayload{Item: item}); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
		return
	}
	metrics.IncEvent(eventType)
}
