package models

// Response envelopes shared by the HTTP API and its clients.

type BookingResponse struct {
	Success   bool     `json:"success"`
	Message   string   `json:"message"`
	Reference string   `json:"reference,omitempty"`
	Booking   *Booking `json:"booking,omitempty"`
}

type BookingListResponse struct {
	Success  bool      `json:"success"`
	Bookings []Booking `json:"bookings"`
}

type MenuResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Item    *MenuItem `json:"item,omitempty"`
}

type MenuListResponse struct {
	Success bool       `json:"success"`
	Message string     `json:"message"`
	Items   []MenuItem `json:"items"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
