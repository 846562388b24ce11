package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"sync"
	"time"

	"butterfly/internal/events"
	"butterfly/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

const (
	bookingsSheet = "Bookings"
	lastColumn    = "M"

	timeLayout = "2006-01-02 15:04:05"
)

var errRowNotFound = errors.New("booking row not found")

var rowInRange = regexp.MustCompile(`![A-Z]+(\d+)`)

var bookingHeaders = []interface{}{
	"ID", "Reference", "Name", "Phone", "Email", "Date", "Time",
	"Guests", "Type", "Contact Method", "Status", "Total Price", "Created At",
}

// BookingSource lists the bookings the sheet is rebuilt from.
type BookingSource interface {
	ListBookings(ctx context.Context) ([]models.Booking, error)
}

// SheetsService mirrors bookings into a Google spreadsheet. The row index of
// every booking ID is cached so updates touch a single row.
//
// Event handling, resync and cache refresh run one at a time under syncMu:
// each of them reads the sheet and then writes based on what it saw.
type SheetsService struct {
	service       *sheets.Service
	spreadsheetID string
	logger        *zerolog.Logger

	syncMu sync.Mutex

	cacheMu  sync.RWMutex
	rowCache map[string]int
}

func NewSheetsService(ctx context.Context, credentialsFile, spreadsheetID string, logger *zerolog.Logger) (*SheetsService, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}

	return newSheetsService(srv, spreadsheetID, logger), nil
}

func newSheetsService(srv *sheets.Service, spreadsheetID string, logger *zerolog.Logger) *SheetsService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &SheetsService{
		service:       srv,
		spreadsheetID: spreadsheetID,
		logger:        logger,
		rowCache:      make(map[string]int),
	}
}

// TestConnection проверяет доступ к таблице
func (s *SheetsService) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// WarmUpCache rebuilds the row index from the ID column.
func (s *SheetsService) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[string]int, len(resp.Values))
	for i, row := range resp.Values {
		if id := cellID(row); id != "" {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// AppendBooking добавляет строку с новым бронированием
func (s *SheetsService) AppendBooking(ctx context.Context, booking *models.Booking) error {
	resp, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, bookingsSheet+"!A:A", &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return err
	}

	if resp.Updates != nil {
		if row, ok := parseRow(resp.Updates.UpdatedRange); ok {
			s.setCachedRow(booking.ID, row)
		}
	}
	return nil
}

// UpsertBooking rewrites the booking row or appends it when the sheet has none.
func (s *SheetsService) UpsertBooking(ctx context.Context, booking *models.Booking) error {
	if booking == nil {
		return errors.New("booking is nil")
	}

	row, err := s.FindBookingRow(ctx, booking.ID)
	if errors.Is(err, errRowNotFound) {
		return s.AppendBooking(ctx, booking)
	}
	if err != nil {
		return err
	}

	rangeData := fmt.Sprintf("%s!A%d:%s%d", bookingsSheet, row, lastColumn, row)
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(booking)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// FindBookingRow returns the 1-based sheet row of a booking, scanning the ID
// column when the cache has no entry.
func (s *SheetsService) FindBookingRow(ctx context.Context, bookingID string) (int, error) {
	if bookingID == "" {
		return 0, errors.New("booking id is required")
	}
	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, bookingsSheet+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if cellID(row) == bookingID {
			s.setCachedRow(bookingID, i+1)
			return i + 1, nil
		}
	}
	return 0, errRowNotFound
}

// Resync перечитывает бронирования из src и полностью перезаписывает лист.
// Список читается под той же блокировкой, что и события, поэтому бронь,
// созданная во время пересборки, не теряется и не дублируется.
func (s *SheetsService) Resync(ctx context.Context, src BookingSource) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	bookings, err := src.ListBookings(ctx)
	if err != nil {
		return fmt.Errorf("list bookings: %w", err)
	}
	return s.replaceBookings(ctx, bookings)
}

func (s *SheetsService) replaceBookings(ctx context.Context, bookings []models.Booking) error {
	clearRange := fmt.Sprintf("%s!A:%s", bookingsSheet, lastColumn)
	if _, err := s.service.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear bookings sheet: %w", err)
	}

	values := make([][]interface{}, 0, len(bookings)+1)
	values = append(values, bookingHeaders)
	cache := make(map[string]int, len(bookings))
	for i := range bookings {
		values = append(values, bookingRowValues(&bookings[i]))
		cache[bookings[i].ID] = i + 2
	}

	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, bookingsSheet+"!A1", &sheets.ValueRange{
		Values: values,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write bookings sheet: %w", err)
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// HandleEvent keeps the sheet in step with booking events. Events for the
// same booking may arrive in any order: a created event for a booking that
// already has a row is skipped, since that row holds a newer snapshot.
func (s *SheetsService) HandleEvent(ctx context.Context, event *events.Event) error {
	switch event.Type {
	case events.EventBookingCreated, events.EventBookingStatusChanged:
	default:
		return nil
	}

	payload, err := events.DecodeBooking(event)
	if err != nil {
		return fmt.Errorf("decode %s: %w", event.Type, err)
	}
	booking := payload.Booking

	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	if event.Type == events.EventBookingStatusChanged {
		return s.UpsertBooking(ctx, &booking)
	}

	_, err = s.FindBookingRow(ctx, booking.ID)
	switch {
	case err == nil:
		s.logger.Debug().Str("booking_id", booking.ID).Msg("booking already in sheet, created event skipped")
		return nil
	case errors.Is(err, errRowNotFound):
		return s.AppendBooking(ctx, &booking)
	default:
		return err
	}
}

// StartCacheRefresh periodically rebuilds the row cache until ctx is done.
func (s *SheetsService) StartCacheRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refreshCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			s.syncMu.Lock()
			if err := s.WarmUpCache(refreshCtx); err != nil {
				s.logger.Warn().Err(err).Msg("sheets cache refresh failed")
			}
			s.syncMu.Unlock()
			cancel()
		}
	}
}

func (s *SheetsService) getCachedRow(id string) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsService) setCachedRow(id string, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func bookingRowValues(b *models.Booking) []interface{} {
	var total interface{} = ""
	if b.TotalPrice != nil {
		total = *b.TotalPrice
	}
	return []interface{}{
		b.ID,
		b.Reference,
		b.Name,
		b.Phone,
		b.Email,
		b.Date,
		b.Time,
		b.Guests,
		b.Type,
		b.ContactMethod,
		b.Status,
		total,
		b.CreatedAt.Format(timeLayout),
	}
}

// cellID reads the ID cell of a row; the API returns numbers as float64.
func cellID(row []interface{}) string {
	if len(row) == 0 {
		return ""
	}
	switch v := row[0].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	}
	return ""
}

// parseRow extracts the first row number from an A1 range such as "Bookings!A10:M10".
func parseRow(a1 string) (int, bool) {
	m := rowInRange.FindStringSubmatch(a1)
	if m == nil {
		return 0, false
	}
	row, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return row, true
}
