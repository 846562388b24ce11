package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var ErrEmptyRecipient = errors.New("empty recipient")

// Channel delivers one text to one recipient.
type Channel interface {
	Name() string
	Send(ctx context.Context, to, text string) error
}

// LogChannel only writes the message to the log. It stands in for a real
// gateway when none is configured.
type LogChannel struct {
	name   string
	logger *zerolog.Logger
}

func NewLogChannel(name string, logger *zerolog.Logger) *LogChannel {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &LogChannel{name: name, logger: logger}
}

func (c *LogChannel) Name() string { return c.name }

func (c *LogChannel) Send(ctx context.Context, to, text string) error {
	if strings.TrimSpace(to) == "" {
		return ErrEmptyRecipient
	}
	c.logger.Info().Str("to", to).Str("text", text).
		Msgf("%s notification sent to %s", strings.ToUpper(c.name), to)
	return nil
}

// WebhookChannel posts messages to an SMS or WhatsApp gateway.
type WebhookChannel struct {
	name   string
	url    string
	token  string
	client *http.Client
}

type webhookPayload struct {
	Channel string `json:"channel"`
	To      string `json:"to"`
	Text    string `json:"text"`
}

func NewWebhookChannel(name, url, token string, client *http.Client) *WebhookChannel {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookChannel{name: name, url: url, token: token, client: client}
}

func (c *WebhookChannel) Name() string { return c.name }

func (c *WebhookChannel) Send(ctx context.Context, to, text string) error {
	if strings.TrimSpace(to) == "" {
		return ErrEmptyRecipient
	}

	body, err := json.Marshal(webhookPayload{Channel: c.name, To: to, Text: text})
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s webhook: %w", c.name, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s webhook returned status %d", c.name, resp.StatusCode)
	}
	return nil
}
