package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"butterfly/internal/config"
	"butterfly/internal/models"
	"butterfly/internal/repository"
	"butterfly/internal/service"

	"github.com/stretchr/testify/require"
)

func testAPIConfig() config.APIConfig {
	return config.APIConfig{
		HTTP: config.APIHTTPConfig{Port: 0},
		Auth: config.APIAuthConfig{
			HeaderAPIKey: "x-api-key",
			HeaderExtra:  "x-api-extra",
		},
		CORS:        config.APICORSConfig{AllowedOrigins: []string{"*"}},
		PingMessage: "pong",
	}
}

func newTestServer(t *testing.T, cfg config.APIConfig) *httptest.Server {
	t.Helper()
	bookings := service.NewBookingService(repository.NewMemoryBookingStore(), nil, nil, nil, service.BookingPolicy{}, nil)
	menu := service.NewMenuService(repository.NewMemoryMenuStore(), nil, nil)
	return newTestServerWith(t, cfg, bookings, menu)
}

func newTestServerWith(t *testing.T, cfg config.APIConfig, bookings *service.BookingService, menu *service.MenuService) *httptest.Server {
	t.Helper()
	srv := NewHTTPServer(cfg, bookings, menu, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// failingBookings returns an internal error or panics on every call.
type failingBookings struct {
	panics bool
}

func (f failingBookings) fail() error {
	if f.panics {
		panic("boom")
	}
	return errors.New("disk on fire")
}

func (f failingBookings) CreateBooking(context.Context, models.BookingInput) (*models.Booking, error) {
	return nil, f.fail()
}

func (f failingBookings) ListBookings(context.Context) ([]models.Booking, error) {
	return nil, f.fail()
}

func (f failingBookings) UpdateStatus(context.Context, models.StatusUpdate) (*models.Booking, error) {
	return nil, f.fail()
}

func (f failingBookings) FindByReference(context.Context, string) (*models.Booking, error) {
	return nil, f.fail()
}
