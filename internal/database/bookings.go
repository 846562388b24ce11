package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"butterfly/internal/domain"
	"butterfly/internal/models"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, reference, name, email, phone, date, time, guests, duration, type,
	special_requests, decorations, total_price, contact_method, status, created_at`

type bookingRow struct {
	ID              int64           `db:"id"`
	Reference       string          `db:"reference"`
	Name            string          `db:"name"`
	Email           string          `db:"email"`
	Phone           string          `db:"phone"`
	Date            string          `db:"date"`
	Time            string          `db:"time"`
	Guests          string          `db:"guests"`
	Duration        string          `db:"duration"`
	Type            string          `db:"type"`
	SpecialRequests string          `db:"special_requests"`
	Decorations     string          `db:"decorations"`
	TotalPrice      sql.NullFloat64 `db:"total_price"`
	ContactMethod   string          `db:"contact_method"`
	Status          string          `db:"status"`
	CreatedAt       int64           `db:"created_at"`
}

func (r bookingRow) toModel() (models.Booking, error) {
	b := models.Booking{
		ID:              strconv.FormatInt(r.ID, 10),
		Reference:       r.Reference,
		Name:            r.Name,
		Email:           r.Email,
		Phone:           r.Phone,
		Date:            r.Date,
		Time:            r.Time,
		Guests:          r.Guests,
		Duration:        r.Duration,
		Type:            r.Type,
		SpecialRequests: r.SpecialRequests,
		ContactMethod:   r.ContactMethod,
		Status:          r.Status,
		CreatedAt:       fromNanos(r.CreatedAt),
	}
	if r.Decorations != "" {
		if err := json.Unmarshal([]byte(r.Decorations), &b.Decorations); err != nil {
			return models.Booking{}, fmt.Errorf("decode decorations of booking %d: %w", r.ID, err)
		}
	}
	if r.TotalPrice.Valid {
		price := r.TotalPrice.Float64
		b.TotalPrice = &price
	}
	return b, nil
}

func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	decorations := ""
	if booking.Decorations != nil {
		data, err := json.Marshal(booking.Decorations)
		if err != nil {
			return fmt.Errorf("encode decorations: %w", err)
		}
		decorations = string(data)
	}
	var total sql.NullFloat64
	if booking.TotalPrice != nil {
		total = sql.NullFloat64{Float64: *booking.TotalPrice, Valid: true}
	}

	query := `INSERT INTO bookings (
				reference, name, email, phone, date, time, guests, duration, type,
				special_requests, decorations, total_price, contact_method, status, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	result, err := db.ExecContext(ctx, query,
		booking.Reference,
		booking.Name,
		booking.Email,
		booking.Phone,
		booking.Date,
		booking.Time,
		booking.Guests,
		booking.Duration,
		booking.Type,
		booking.SpecialRequests,
		decorations,
		total,
		booking.ContactMethod,
		booking.Status,
		toNanos(booking.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	booking.ID = strconv.FormatInt(id, 10)
	return nil
}

func (db *DB) ListBookings(ctx context.Context) ([]models.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id DESC`
	if err := db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	out := make([]models.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (db *DB) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return getBooking(ctx, db.DB, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, n)
}

// GetBookingByReference returns the earliest booking carrying reference.
func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	return getBooking(ctx, db.DB, `SELECT `+bookingColumns+` FROM bookings WHERE reference = ? ORDER BY id ASC LIMIT 1`, reference)
}

func (db *DB) UpdateBookingStatus(ctx context.Context, id, status string, guard domain.StatusGuard) (*models.Booking, error) {
	n, ok := parseID(id)
	if !ok {
		return nil, domain.ErrNotFound
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	booking, err := getBooking(ctx, tx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, n)
	if err != nil {
		return nil, err
	}
	if guard != nil {
		if err := guard(booking.Status); err != nil {
			return nil, err
		}
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, n); err != nil {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	booking.Status = status
	return booking, nil
}

func getBooking(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*models.Booking, error) {
	var row bookingRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	b, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &b, nil
}
