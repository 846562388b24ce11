package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"butterfly/internal/models"
	"butterfly/internal/worker"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	EventBookingCreated       = "booking.created"
	EventBookingStatusChanged = "booking.status_changed"
	EventMenuItemCreated      = "menu.item_created"
	EventMenuItemUpdated      = "menu.item_updated"
	EventMenuItemDeleted      = "menu.item_deleted"
	EventMenuItemToggled      = "menu.item_toggled"

	// AllEvents subscribes a handler to every event type.
	AllEvents = "*"
)

// BookingEventPayload carries the booking snapshot after the change.
type BookingEventPayload struct {
	Booking        models.Booking `json:"booking"`
	PreviousStatus string         `json:"previous_status,omitempty"`
	AdminNotes     string         `json:"admin_notes,omitempty"`
}

// MenuEventPayload carries the menu item after the change, or the removed item.
type MenuEventPayload struct {
	Item models.MenuItem `json:"item"`
}

// Event represents a lightweight domain event.
type Event struct {
	ID        string
	Type      string
	Payload   []byte
	CreatedAt time.Time
}

// EventHandler reacts to an event.
type EventHandler func(event *Event) error

// Submitter runs handlers off the publishing goroutine.
type Submitter interface {
	Submit(name string, fn worker.Task) bool
}

// EventBus provides in-process pub/sub for events.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	logger      *zerolog.Logger
}

// NewEventBus constructs an empty bus.
func NewEventBus(logger *zerolog.Logger) *EventBus {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &EventBus{subscribers: make(map[string][]EventHandler), logger: logger}
}

// Subscribe registers a handler for a given event type, or AllEvents.
func (b *EventBus) Subscribe(eventType string, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers[eventType] = append(b.subscribers[eventType], handler)
}

// SubscribeAsync registers handler so that each delivery runs as a pool task.
// A task that does not fit into the pool queue is dropped.
func (b *EventBus) SubscribeAsync(eventType string, pool Submitter, name string, handler func(ctx context.Context, event *Event) error) {
	b.Subscribe(eventType, func(event *Event) error {
		pool.Submit(name+":"+event.Type, func(ctx context.Context) error {
			return handler(ctx, event)
		})
		return nil
	})
}

// Publish notifies subscribers of the event type. Handler errors are logged.
func (b *EventBus) Publish(event *Event) {
	b.mu.RLock()
	handlers := append([]EventHandler(nil), b.subscribers[event.Type]...)
	handlers = append(handlers, b.subscribers[AllEvents]...)
	b.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	for _, handler := range handlers {
		// Handlers run synchronously; caller decides concurrency model.
		if err := handler(event); err != nil {
			b.logger.Error().Err(err).Str("event", event.Type).Str("event_id", event.ID).Msg("event handler failed")
		}
	}
}

// PublishJSON serializes the payload and publishes an event.
func (b *EventBus) PublishJSON(eventType string, payload interface{}) error {
	if b == nil {
		return nil
	}

	event, err := NewJSONEvent(eventType, payload)
	if err != nil {
		return err
	}

	b.Publish(&event)
	return nil
}

// NewJSONEvent builds an Event with JSON payload for manual publishing.
func NewJSONEvent(eventType string, payload interface{}) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}

	return Event{ID: uuid.NewString(), Type: eventType, Payload: raw, CreatedAt: time.Now()}, nil
}

// DecodeBooking unmarshals a booking event payload.
func DecodeBooking(event *Event) (BookingEventPayload, error) {
	var p BookingEventPayload
	err := json.Unmarshal(event.Payload, &p)
	return p, err
}

// DecodeMenu unmarshals a menu event payload.
func DecodeMenu(event *Event) (MenuEventPayload, error) {
	var p MenuEventPayload
	err := json.Unmarshal(event.Payload, &p)
	return p, err
}
