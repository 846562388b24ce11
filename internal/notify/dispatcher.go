package notify

import (
	"context"
	"fmt"
	"strings"

	"butterfly/internal/metrics"
	"butterfly/internal/models"
	"butterfly/internal/worker"

	"github.com/rs/zerolog"
)

// Submitter accepts background tasks without blocking.
type Submitter interface {
	Submit(name string, fn worker.Task) bool
}

// Dispatcher turns booking events into guest messages. Notify returns
// immediately: delivery happens on the pool and its outcome is only
// logged and counted.
type Dispatcher struct {
	messages *Messages
	channels map[string]Channel
	alerts   *ManagerAlerts
	pool     Submitter
	logger   *zerolog.Logger
}

type Option func(*Dispatcher)

// WithChannel routes a contact method to ch.
func WithChannel(method string, ch Channel) Option {
	return func(d *Dispatcher) {
		d.channels[strings.ToLower(method)] = ch
	}
}

func WithManagerAlerts(alerts *ManagerAlerts) Option {
	return func(d *Dispatcher) {
		d.alerts = alerts
	}
}

func NewDispatcher(messages *Messages, pool Submitter, logger *zerolog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	d := &Dispatcher{
		messages: messages,
		channels: make(map[string]Channel),
		pool:     pool,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	// без шлюза сообщение только пишется в лог
	for _, method := range []string{models.ContactSMS, models.ContactWhatsApp} {
		if _, ok := d.channels[method]; !ok {
			d.channels[method] = NewLogChannel(method, logger)
		}
	}
	return d
}

// Notify schedules delivery of the kind message for booking.
func (d *Dispatcher) Notify(booking models.Booking, kind string) {
	booking = booking.Clone()
	method := methodOf(booking)
	ch := d.channelFor(method)

	accepted := d.pool.Submit(fmt.Sprintf("notify:%s:%s", kind, booking.Reference), func(ctx context.Context) error {
		return d.deliver(ctx, ch, booking, kind)
	})
	if !accepted {
		metrics.IncNotification(ch.Name(), "failed")
	}

	if kind == models.NotifyConfirmation && d.alerts.Enabled() {
		d.pool.Submit("manager-alert:"+booking.Reference, func(ctx context.Context) error {
			text, err := d.messages.ManagerAlert(booking)
			if err != nil {
				return err
			}
			if err := d.alerts.Send(ctx, text); err != nil {
				metrics.IncNotification("telegram", "failed")
				return fmt.Errorf("manager alert: %w", err)
			}
			metrics.IncNotification("telegram", "sent")
			return nil
		})
	}
}

func (d *Dispatcher) deliver(ctx context.Context, ch Channel, booking models.Booking, kind string) error {
	text, err := d.messages.Render(kind, booking)
	if err != nil {
		metrics.IncNotification(ch.Name(), "failed")
		return err
	}

	if err := ch.Send(ctx, booking.Phone, text); err != nil {
		metrics.IncNotification(ch.Name(), "failed")
		return fmt.Errorf("%s notification for booking %s: %w", ch.Name(), booking.ID, err)
	}

	metrics.IncNotification(ch.Name(), "sent")
	d.logger.Debug().Str("channel", ch.Name()).Str("kind", kind).Str("booking_id", booking.ID).Msg("notification delivered")
	return nil
}

func (d *Dispatcher) channelFor(method string) Channel {
	if ch, ok := d.channels[method]; ok {
		return ch
	}
	return d.channels[models.ContactSMS]
}
