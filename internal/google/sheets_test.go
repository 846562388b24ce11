package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"butterfly/internal/events"
	"butterfly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

func setupMockServer(t *testing.T) (*http.ServeMux, *SheetsService) {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	srv, err := sheets.NewService(context.Background(), option.WithEndpoint(server.URL), option.WithoutAuthentication())
	require.NoError(t, err)
	return mux, newSheetsService(srv, "bookings_tid", nil)
}

func testBooking() models.Booking {
	return models.Booking{
		ID:            "7",
		Reference:     "BFQ2ZK9A",
		Name:          "Asha",
		Phone:         "9990001111",
		Type:          models.BookingTypeTable,
		ContactMethod: models.ContactSMS,
		Status:        models.StatusPending,
		CreatedAt:     time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestSheetsService_TestConnection(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
	})
	assert.NoError(t, s.TestConnection(context.Background()))
}

func TestSheetsService_WarmUpCache(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"12"}, {}, {float64(40)}},
		})
	})

	require.NoError(t, s.WarmUpCache(context.Background()))

	row, ok := s.getCachedRow("12")
	assert.True(t, ok)
	assert.Equal(t, 2, row)
	row, ok = s.getCachedRow("40")
	assert.True(t, ok)
	assert.Equal(t, 4, row)
}

func TestSheetsService_AppendBooking(t *testing.T) {
	mux, s := setupMockServer(t)
	var got sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A10:M10"},
		})
	})

	b := testBooking()
	require.NoError(t, s.AppendBooking(context.Background(), &b))

	row, ok := s.getCachedRow("7")
	assert.True(t, ok)
	assert.Equal(t, 10, row)

	require.Len(t, got.Values, 1)
	assert.Equal(t, "BFQ2ZK9A", got.Values[0][1])
	assert.Equal(t, models.StatusPending, got.Values[0][10])
	assert.Equal(t, "2026-05-01 12:00:00", got.Values[0][12])
}

func TestSheetsService_FindBookingRow(t *testing.T) {
	mux, s := setupMockServer(t)
	var scans atomic.Int32
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
		scans.Add(1)
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{
			Values: [][]interface{}{{"ID"}, {"5"}, {"999"}},
		})
	})
	ctx := context.Background()

	row, err := s.FindBookingRow(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, 3, row)

	// второй поиск идет из кэша
	row, err = s.FindBookingRow(ctx, "999")
	require.NoError(t, err)
	assert.Equal(t, 3, row)
	assert.Equal(t, int32(1), scans.Load())

	_, err = s.FindBookingRow(ctx, "404")
	assert.ErrorIs(t, err, errRowNotFound)

	_, err = s.FindBookingRow(ctx, "")
	assert.Error(t, err)
}

func TestSheetsService_UpsertBooking(t *testing.T) {
	t.Run("Update", func(t *testing.T) {
		mux, s := setupMockServer(t)
		s.setCachedRow("7", 2)
		var called atomic.Bool
		mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A2:M2", func(w http.ResponseWriter, r *http.Request) {
			called.Store(true)
			_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
		})

		b := testBooking()
		require.NoError(t, s.UpsertBooking(context.Background(), &b))
		assert.True(t, called.Load())
	})

	t.Run("Append", func(t *testing.T) {
		mux, s := setupMockServer(t)
		mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: [][]interface{}{{"ID"}}})
		})
		mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:A:append", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
				Updates: &sheets.UpdateValuesResponse{UpdatedRange: "Bookings!A2:M2"},
			})
		})

		b := testBooking()
		require.NoError(t, s.UpsertBooking(context.Background(), &b))
		row, _ := s.getCachedRow("7")
		assert.Equal(t, 2, row)
	})

	t.Run("Nil", func(t *testing.T) {
		_, s := setupMockServer(t)
		assert.Error(t, s.UpsertBooking(context.Background(), nil))
	})
}

type bookingList []models.Booking

func (l bookingList) ListBookings(context.Context) ([]models.Booking, error) {
	return l, nil
}

type failingSource struct{}

func (failingSource) ListBookings(context.Context) ([]models.Booking, error) {
	return nil, errors.New("db offline")
}

func TestSheetsService_Resync(t *testing.T) {
	mux, s := setupMockServer(t)
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A:M:clear", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(sheets.ClearValuesResponse{})
	})
	var got sheets.ValueRange
	mux.HandleFunc("/v4/spreadsheets/bookings_tid/values/Bookings!A1", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})
	})

	first, second := testBooking(), testBooking()
	second.ID = "8"
	require.NoError(t, s.Resync(context.Background(), bookingList{first, second}))

	require.Len(t, got.Values, 3)
	assert.Equal(t, "ID", got.Values[0][0])
	row, _ := s.getCachedRow("8")
	assert.Equal(t, 3, row)

	err := s.Resync(context.Background(), failingSource{})
	assert.ErrorContains(t, err, "db offline")
}

// fakeSheet keeps the Bookings sheet in memory and answers the calls the
// mirror makes: scan of column A, append and single-row update.
type fakeSheet struct {
	mu      sync.Mutex
	rows    [][]interface{}
	appends int
}

func newFakeSheet(t *testing.T) (*fakeSheet, *SheetsService) {
	t.Helper()
	mux, s := setupMockServer(t)
	f := &fakeSheet{rows: [][]interface{}{bookingHeaders}}
	mux.Handle("/", f)
	return f, s
}

func (f *fakeSheet) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rng := strings.TrimPrefix(r.URL.Path, "/v4/spreadsheets/bookings_tid/values/")
	switch {
	case strings.HasSuffix(rng, ":append"):
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.rows = append(f.rows, vr.Values...)
		f.appends++
		n := len(f.rows)
		_ = json.NewEncoder(w).Encode(sheets.AppendValuesResponse{
			Updates: &sheets.UpdateValuesResponse{UpdatedRange: fmt.Sprintf("Bookings!A%d:M%d", n, n)},
		})

	case r.Method == http.MethodGet && rng == "Bookings!A:A":
		ids := make([][]interface{}, 0, len(f.rows))
		for _, row := range f.rows {
			ids = append(ids, row[:1])
		}
		_ = json.NewEncoder(w).Encode(sheets.ValueRange{Values: ids})

	case r.Method == http.MethodPut:
		row, ok := parseRow(rng)
		if !ok || row > len(f.rows) {
			http.Error(w, "bad range", http.StatusBadRequest)
			return
		}
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.rows[row-1] = vr.Values[0]
		_ = json.NewEncoder(w).Encode(sheets.UpdateValuesResponse{})

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeSheet) snapshot() ([][]interface{}, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]interface{}(nil), f.rows...), f.appends
}

func bookingEvent(t *testing.T, eventType string, b models.Booking) *events.Event {
	t.Helper()
	event, err := events.NewJSONEvent(eventType, events.BookingEventPayload{Booking: b})
	require.NoError(t, err)
	return &event
}

func TestSheetsService_HandleEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("Created", func(t *testing.T) {
		sheet, s := newFakeSheet(t)
		require.NoError(t, s.HandleEvent(ctx, bookingEvent(t, events.EventBookingCreated, testBooking())))

		rows, appends := sheet.snapshot()
		assert.Equal(t, 1, appends)
		require.Len(t, rows, 2)
		assert.Equal(t, "BFQ2ZK9A", rows[1][1])
	})

	t.Run("StatusChanged", func(t *testing.T) {
		sheet, s := newFakeSheet(t)
		b := testBooking()
		require.NoError(t, s.HandleEvent(ctx, bookingEvent(t, events.EventBookingCreated, b)))

		b.Status = models.StatusConfirmed
		require.NoError(t, s.HandleEvent(ctx, bookingEvent(t, events.EventBookingStatusChanged, b)))

		rows, appends := sheet.snapshot()
		assert.Equal(t, 1, appends)
		require.Len(t, rows, 2)
		assert.Equal(t, models.StatusConfirmed, rows[1][10])
	})

	t.Run("StatusBeforeCreated", func(t *testing.T) {
		sheet, s := newFakeSheet(t)
		b := testBooking()
		confirmed := b
		confirmed.Status = models.StatusConfirmed

		require.NoError(t, s.HandleEvent(ctx, bookingEvent(t, events.EventBookingStatusChanged, confirmed)))
		require.NoError(t, s.HandleEvent(ctx, bookingEvent(t, events.EventBookingCreated, b)))

		rows, appends := sheet.snapshot()
		assert.Equal(t, 1, appends)
		require.Len(t, rows, 2)
		// устаревший снимок из created не затирает статус
		assert.Equal(t, models.StatusConfirmed, rows[1][10])
	})

	t.Run("ConcurrentEvents", func(t *testing.T) {
		sheet, s := newFakeSheet(t)

		var wg sync.WaitGroup
		for i := 1; i <= 10; i++ {
			b := testBooking()
			b.ID = fmt.Sprint(i)
			confirmed := b
			confirmed.Status = models.StatusConfirmed

			for _, event := range []*events.Event{
				bookingEvent(t, events.EventBookingCreated, b),
				bookingEvent(t, events.EventBookingStatusChanged, confirmed),
			} {
				wg.Add(1)
				go func() {
					defer wg.Done()
					assert.NoError(t, s.HandleEvent(ctx, event))
				}()
			}
		}
		wg.Wait()

		rows, appends := sheet.snapshot()
		assert.Equal(t, 10, appends)
		require.Len(t, rows, 11)
		for _, row := range rows[1:] {
			assert.Equal(t, models.StatusConfirmed, row[10])
		}
	})

	t.Run("IgnoresMenuEvents", func(t *testing.T) {
		_, s := setupMockServer(t)
		event, err := events.NewJSONEvent(events.EventMenuItemCreated, events.MenuEventPayload{})
		require.NoError(t, err)
		assert.NoError(t, s.HandleEvent(ctx, &event))
	})
}

func TestParseRow(t *testing.T) {
	row, ok := parseRow("Bookings!A10:M10")
	assert.True(t, ok)
	assert.Equal(t, 10, row)

	_, ok = parseRow("garbage")
	assert.False(t, ok)
}
