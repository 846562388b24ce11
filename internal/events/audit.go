package events

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// NewAuditLogger returns a handler that writes one log line per domain event
// with the identifying fields of its booking or menu item.
func NewAuditLogger(logger *zerolog.Logger) EventHandler {
	return func(event *Event) error {
		entry := logger.Info().
			Str("event", event.Type).
			Str("event_id", event.ID)

		switch {
		case strings.HasPrefix(event.Type, "booking."):
			p, err := DecodeBooking(event)
			if err != nil {
				return fmt.Errorf("audit %s: %w", event.Type, err)
			}
			entry = entry.
				Str("booking_id", p.Booking.ID).
				Str("reference", p.Booking.Reference).
				Str("status", p.Booking.Status)
			if p.PreviousStatus != "" {
				entry = entry.Str("previous_status", p.PreviousStatus)
			}

		case strings.HasPrefix(event.Type, "menu."):
			p, err := DecodeMenu(event)
			if err != nil {
				return fmt.Errorf("audit %s: %w", event.Type, err)
			}
			entry = entry.
				Str("item_id", p.Item.ID).
				Str("name", p.Item.Name).
				Bool("available", p.Item.Available)
		}

		entry.Msg("domain event")
		return nil
	}
}
