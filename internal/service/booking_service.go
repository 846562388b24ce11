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
	"butterfly/internal/reference"

	"github.com/rs/zerolog"
)

const (
	msgBookingNotFound = "Booking not found"
	msgTooManyRequests = "Too many booking requests, please try again later"
)

// BookingPolicy holds the configurable parts of the booking workflow.
type BookingPolicy struct {
	// StrictTransitions allows only pending -> confirmed|rejected.
	StrictTransitions bool
	// SubmissionLimit caps bookings per phone within SubmissionWindow; 0 disables it.
	SubmissionLimit  int
	SubmissionWindow time.Duration
}

type BookingService struct {
	repo     domain.BookingRepository
	notifier domain.Notifier
	eventBus domain.EventPublisher
	limiter  domain.SubmissionLimiter
	policy   BookingPolicy
	generate func() string
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	notifier domain.Notifier,
	eventBus domain.EventPublisher,
	limiter domain.SubmissionLimiter,
	policy BookingPolicy,
	logger *zerolog.Logger,
) *BookingService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingService{
		repo:     repo,
		notifier: notifier,
		eventBus: eventBus,
		limiter:  limiter,
		policy:   policy,
		generate: reference.Generate,
		now:      func() time.Time { return time.Now().UTC() },
		logger:   logger,
	}
}

func (s *BookingService) CreateBooking(ctx context.Context, input models.BookingInput) (*models.Booking, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = strings.TrimSpace(input.Phone)
	input.ContactMethod = strings.ToLower(strings.TrimSpace(input.ContactMethod))
	input.Type = strings.ToLower(strings.TrimSpace(input.Type))

	if err := validateInput(input); err != nil {
		return nil, err
	}

	if err := s.checkSubmissionLimit(ctx, input.Phone); err != nil {
		return nil, err
	}

	booking := input.NewBooking()
	booking.Reference = s.generate()
	booking.Status = models.StatusPending
	booking.CreatedAt = s.now()

	if err := s.repo.CreateBooking(ctx, &booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	metrics.IncBookingCreated()

	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("reference", booking.Reference).
		Str("type", booking.Type).
		Msg("Booking created")

	s.notify(booking, models.NotifyConfirmation)
	s.publish(events.EventBookingCreated, events.BookingEventPayload{Booking: booking})

	return &booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	bookings, err := s.repo.ListBookings(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (s *BookingService) UpdateStatus(ctx context.Context, update models.StatusUpdate) (*models.Booking, error) {
	id := strings.TrimSpace(update.ID)
	status := strings.ToLower(strings.TrimSpace(update.Status))

	var missing []string
	if id == "" {
		missing = append(missing, "id")
	}
	if status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return nil, domain.Validation("Missing required fields: " + strings.Join(missing, ", "))
	}
	if !models.IsKnownStatus(status) {
		return nil, domain.Validation(fmt.Sprintf("status must be one of: %s, %s, %s",
			models.StatusPending, models.StatusConfirmed, models.StatusRejected))
	}

	// в строгом режиме недопустимый переход отсекаем до записи;
	// guard ниже повторяет проверку уже внутри транзакции
	if s.policy.StrictTransitions {
		current, err := s.repo.GetBooking(ctx, id)
		if err != nil {
			return nil, storeError(err, msgBookingNotFound, "get booking")
		}
		if !models.CanTransition(current.Status, status) {
			return nil, domain.InvalidTransition(fmt.Sprintf("Cannot change booking status from %s to %s", current.Status, status))
		}
	}

	var previous string
	guard := func(current string) error {
		previous = current
		if s.policy.StrictTransitions && !models.CanTransition(current, status) {
			return domain.InvalidTransition(fmt.Sprintf("Cannot change booking status from %s to %s", current, status))
		}
		return nil
	}

	booking, err := s.repo.UpdateBookingStatus(ctx, id, status, guard)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "update booking status")
	}
	metrics.IncStatusUpdate(status)

	event := s.logger.Info().
		Str("booking_id", booking.ID).
		Str("reference", booking.Reference).
		Str("from", previous).
		Str("to", status)
	if update.AdminNotes != "" {
		event = event.Str("admin_notes", update.AdminNotes)
	}
	event.Msg("Booking status updated")

	s.notify(*booking, models.NotifyUpdate)
	s.publish(events.EventBookingStatusChanged, events.BookingEventPayload{
		Booking:        *booking,
		PreviousStatus: previous,
		AdminNotes:     update.AdminNotes,
	})

	return booking, nil
}

func (s *BookingService) FindByReference(ctx context.Context, ref string) (*models.Booking, error) {
	ref = strings.ToUpper(strings.TrimSpace(ref))
	if !reference.Valid(ref) {
		return nil, domain.NotFound(msgBookingNotFound)
	}
	booking, err := s.repo.GetBookingByReference(ctx, ref)
	if err != nil {
		return nil, storeError(err, msgBookingNotFound, "find booking")
	}
	return booking, nil
}

// checkSubmissionLimit fails open: a broken limiter never blocks a booking.
func (s *BookingService) checkSubmissionLimit(ctx context.Context, phone string) error {
	if s.limiter == nil || s.policy.SubmissionLimit <= 0 {
		return nil
	}
	allowed, err := s.limiter.CheckRateLimit(ctx, phone, s.policy.SubmissionLimit, s.policy.SubmissionWindow)
	if err != nil {
		s.logger.Warn().Err(err).Msg("submission limiter failed, accepting booking")
		return nil
	}
	if !allowed {
		s.logger.Warn().Str("phone", phone).Msg("booking submission limit reached")
		return domain.RateLimited(msgTooManyRequests)
	}
	return nil
}

func (s *BookingService) notify(booking models.Booking, kind string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(booking, kind)
}

func (s *BookingService) publish(eventType string, payload events.BookingEventPayload) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("failed to publish event")
		return
	}
	metrics.IncEvent(eventType)
}
