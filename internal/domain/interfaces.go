package domain

import (
	"context"
	"time"

	"butterfly/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// StatusGuard inspects the current status of a booking before it is
// overwritten. A non-nil error aborts the update.
type StatusGuard func(current string) error

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	ListBookings(ctx context.Context) ([]models.Booking, error)
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status string, guard StatusGuard) (*models.Booking, error)
}

type MenuRepository interface {
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	UpdateMenuItem(ctx context.Context, id string, patch models.MenuItemPatch, at time.Time) (*models.MenuItem, error)
	DeleteMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	ToggleMenuItem(ctx context.Context, id string, at time.Time) (*models.MenuItem, error)
	CountMenuItems(ctx context.Context) (int, error)
}

type SubmissionLimiter interface {
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

type Notifier interface {
	Notify(booking models.Booking, kind string)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type BookingService interface {
	CreateBooking(ctx context.Context, input models.BookingInput) (*models.Booking, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, update models.StatusUpdate) (*models.Booking, error)
	FindByReference(ctx context.Context, reference string) (*models.Booking, error)
}

type MenuService interface {
	ListItems(ctx context.Context) ([]models.MenuItem, error)
	GetItem(ctx context.Context, id string) (*models.MenuItem, error)
	CreateItem(ctx context.Context, input models.MenuItemInput) (*models.MenuItem, error)
	UpdateItem(ctx context.Context, id string, patch models.MenuItemPatch) (*models.MenuItem, error)
	DeleteItem(ctx context.Context, id string) (*models.MenuItem, error)
	ToggleAvailability(ctx context.Context, id string) (*models.MenuItem, error)
}
