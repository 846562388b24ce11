package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"butterfly/internal/models"
	"butterfly/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// inlinePool runs tasks synchronously so assertions can follow Notify directly.
type inlinePool struct {
	mu     sync.Mutex
	names  []string
	errs   []error
	reject bool
}

func (p *inlinePool) Submit(name string, fn worker.Task) bool {
	if p.reject {
		return false
	}
	err := fn(context.Background())
	p.mu.Lock()
	p.names = append(p.names, name)
	p.errs = append(p.errs, err)
	p.mu.Unlock()
	return true
}

type recordingChannel struct {
	name string
	err  error

	mu   sync.Mutex
	sent []string
	to   []string
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(ctx context.Context, to, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.to = append(c.to, to)
	c.sent = append(c.sent, text)
	return c.err
}

func TestDispatcher_RoutesByContactMethod(t *testing.T) {
	sms := &recordingChannel{name: "sms"}
	wa := &recordingChannel{name: "whatsapp"}
	pool := &inlinePool{}
	d := NewDispatcher(NewMessages("", ""), pool, nil, WithChannel("sms", sms), WithChannel("WhatsApp", wa))

	b := sampleBooking()
	d.Notify(b, models.NotifyConfirmation)
	require.Len(t, wa.sent, 1)
	assert.Empty(t, sms.sent)
	assert.Equal(t, "9990001111", wa.to[0])
	assert.Contains(t, wa.sent[0], "Reference: BF7K2Q9Z")

	b.ContactMethod = ""
	b.Status = models.StatusConfirmed
	d.Notify(b, models.NotifyUpdate)
	require.Len(t, sms.sent, 1)
	assert.Contains(t, sms.sent[0], "updated to: confirmed")

	assert.Equal(t, []string{"notify:confirmation:BF7K2Q9Z", "notify:update:BF7K2Q9Z"}, pool.names)
}

func TestDispatcher_FailuresAreSwallowed(t *testing.T) {
	sms := &recordingChannel{name: "sms", err: errors.New("gateway down")}
	pool := &inlinePool{}
	d := NewDispatcher(NewMessages("", ""), pool, nil, WithChannel("sms", sms))

	b := sampleBooking()
	b.ContactMethod = models.ContactSMS
	assert.NotPanics(t, func() { d.Notify(b, models.NotifyConfirmation) })
	require.Len(t, pool.errs, 1)
	assert.Error(t, pool.errs[0])

	// пустой телефон: ошибка остается внутри задачи
	b.Phone = ""
	d.Notify(b, models.NotifyUpdate)
	require.Len(t, pool.errs, 2)
	assert.Error(t, pool.errs[1])

	rejecting := NewDispatcher(NewMessages("", ""), &inlinePool{reject: true}, nil)
	assert.NotPanics(t, func() { rejecting.Notify(b, models.NotifyConfirmation) })
}

func TestDispatcher_DefaultLogChannels(t *testing.T) {
	pool := &inlinePool{}
	d := NewDispatcher(NewMessages("", ""), pool, nil)

	d.Notify(sampleBooking(), models.NotifyConfirmation)
	require.Len(t, pool.errs, 1)
	assert.NoError(t, pool.errs[0])
}

func TestDispatcher_ManagerAlertOnConfirmationOnly(t *testing.T) {
	sender := new(mockTelegramSender)
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 42
	})).Return(tgbotapi.Message{}, nil).Once()

	pool := &inlinePool{}
	d := NewDispatcher(NewMessages("", ""), pool, nil, WithManagerAlerts(NewManagerAlerts(sender, []int64{42})))

	d.Notify(sampleBooking(), models.NotifyConfirmation)
	d.Notify(sampleBooking(), models.NotifyUpdate)

	assert.Equal(t, []string{
		"notify:confirmation:BF7K2Q9Z",
		"manager-alert:BF7K2Q9Z",
		"notify:update:BF7K2Q9Z",
	}, pool.names)
	sender.AssertExpectations(t)
}

func TestDispatcher_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	slow := &blockingChannel{release: release}
	pool := worker.NewPool(1, 4, time.Second, nil)
	pool.Start()
	defer func() {
		close(release)
		_ = pool.Stop(context.Background())
	}()

	d := NewDispatcher(NewMessages("", ""), pool, nil, WithChannel("sms", slow))
	b := sampleBooking()
	b.ContactMethod = ""

	done := make(chan struct{})
	go func() {
		d.Notify(b, models.NotifyConfirmation)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Notify blocked on delivery")
	}
}

type blockingChannel struct {
	release chan struct{}
}

func (c *blockingChannel) Name() string { return "sms" }

func (c *blockingChannel) Send(ctx context.Context, to, text string) error {
	select {
	case <-c.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
