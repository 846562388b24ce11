package models

import "time"

type Decoration struct {
	ID    string  `json:"id" yaml:"id"`
	Name  string  `json:"name" yaml:"name"`
	Price float64 `json:"price" yaml:"price"`
	Icon  string  `json:"icon,omitempty" yaml:"icon,omitempty"`
}

type Booking struct {
	ID              string       `json:"id"`
	Reference       string       `json:"reference"`
	Name            string       `json:"name"`
	Email           string       `json:"email,omitempty"`
	Phone           string       `json:"phone"`
	Date            string       `json:"date"`
	Time            string       `json:"time"`
	Guests          string       `json:"guests"`
	Duration        string       `json:"duration,omitempty"`
	Type            string       `json:"type"` // table, party
	SpecialRequests string       `json:"specialRequests,omitempty"`
	Decorations     []Decoration `json:"decorations,omitempty"`
	TotalPrice      *float64     `json:"totalPrice,omitempty"`
	ContactMethod   string       `json:"contactMethod"` // sms, whatsapp
	Status          string       `json:"status"`        // pending, confirmed, rejected
	CreatedAt       time.Time    `json:"createdAt"`
}

// BookingInput is the guest-submitted part of a booking. Identity, reference,
// status and timestamps are always assigned server side.
type BookingInput struct {
	Name            string       `json:"name" validate:"required"`
	Email           string       `json:"email"`
	Phone           string       `json:"phone" validate:"required"`
	Date            string       `json:"date"`
	Time            string       `json:"time"`
	Guests          string       `json:"guests"`
	Duration        string       `json:"duration"`
	Type            string       `json:"type" validate:"omitempty,oneof=table party"`
	SpecialRequests string       `json:"specialRequests"`
	Decorations     []Decoration `json:"decorations"`
	TotalPrice      *float64     `json:"totalPrice"`
	ContactMethod   string       `json:"contactMethod" validate:"omitempty,oneof=sms whatsapp"`
}

// NewBooking copies the input into a fresh Booking without identity.
func (in BookingInput) NewBooking() Booking {
	b := Booking{
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		Date:            in.Date,
		Time:            in.Time,
		Guests:          in.Guests,
		Duration:        in.Duration,
		Type:            in.Type,
		SpecialRequests: in.SpecialRequests,
		ContactMethod:   in.ContactMethod,
	}
	if in.Decorations != nil {
		b.Decorations = append([]Decoration(nil), in.Decorations...)
	}
	if in.TotalPrice != nil {
		price := *in.TotalPrice
		b.TotalPrice = &price
	}
	return b
}

// Clone returns a deep copy so callers never share slices or pointers with a store.
func (b Booking) Clone() Booking {
	out := b
	if b.Decorations != nil {
		out.Decorations = append([]Decoration(nil), b.Decorations...)
	}
	if b.TotalPrice != nil {
		price := *b.TotalPrice
		out.TotalPrice = &price
	}
	return out
}

// StatusUpdate is the admin request body for PUT /api/bookings/status.
type StatusUpdate struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	AdminNotes string `json:"adminNotes,omitempty"`
}
