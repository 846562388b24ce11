package notify

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"butterfly/internal/models"
)

const (
	confirmationTemplate = `Hello {{.Booking.Name}}, your {{with .Booking.Type}}{{.}} {{end}}booking` +
		`{{with .Booking.Guests}} for {{.}} guests{{end}} at {{.Restaurant}} has been received! ` +
		`Reference: {{.Booking.Reference}}.` +
		`{{if .Booking.Date}} Date: {{.Booking.Date}}{{with .Booking.Time}} at {{.}}{{end}}.{{end}}` +
		` We'll confirm within 24 hours. Call {{.Phone}} for questions.`

	updateTemplate = `Hello {{.Booking.Name}}, your booking {{.Booking.Reference}} status has been updated to: ` +
		`{{.Booking.Status}}. Thank you for choosing {{.Restaurant}}!`

	managerTemplate = `New {{with .Booking.Type}}{{.}} {{end}}booking {{.Booking.Reference}}
Name: {{.Booking.Name}}
Phone: {{.Booking.Phone}}
{{- with .Booking.Date}}
Date: {{.}}{{with $.Booking.Time}} at {{.}}{{end}}{{end}}
{{- with .Booking.Guests}}
Guests: {{.}}{{end}}
{{- with .Booking.SpecialRequests}}
Requests: {{.}}{{end}}
Contact via: {{.Method}}`
)

// Messages renders guest and manager texts for a booking.
type Messages struct {
	restaurant   string
	phone        string
	confirmation *template.Template
	update       *template.Template
	manager      *template.Template
}

type messageData struct {
	Booking    models.Booking
	Restaurant string
	Phone      string
	Method     string
}

func NewMessages(restaurant, phone string) *Messages {
	if restaurant == "" {
		restaurant = models.DefaultRestaurantName
	}
	if phone == "" {
		phone = models.DefaultContactPhone
	}
	return &Messages{
		restaurant:   restaurant,
		phone:        phone,
		confirmation: template.Must(template.New(models.NotifyConfirmation).Parse(confirmationTemplate)),
		update:       template.Must(template.New(models.NotifyUpdate).Parse(updateTemplate)),
		manager:      template.Must(template.New("manager").Parse(managerTemplate)),
	}
}

// Render returns the guest-facing text for kind.
func (m *Messages) Render(kind string, booking models.Booking) (string, error) {
	switch kind {
	case models.NotifyConfirmation:
		return m.execute(m.confirmation, booking)
	case models.NotifyUpdate:
		return m.execute(m.update, booking)
	default:
		return "", fmt.Errorf("unknown notification kind %q", kind)
	}
}

// ManagerAlert returns the staff-facing summary of a new booking.
func (m *Messages) ManagerAlert(booking models.Booking) (string, error) {
	return m.execute(m.manager, booking)
}

func (m *Messages) execute(tmpl *template.Template, booking models.Booking) (string, error) {
	var buf bytes.Buffer
	data := messageData{
		Booking:    booking,
		Restaurant: m.restaurant,
		Phone:      m.phone,
		Method:     strings.ToUpper(methodOf(booking)),
	}
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// methodOf returns the delivery method, sms when the guest did not choose.
func methodOf(booking models.Booking) string {
	method := strings.ToLower(strings.TrimSpace(booking.ContactMethod))
	if method == "" {
		return models.ContactSMS
	}
	return method
}
