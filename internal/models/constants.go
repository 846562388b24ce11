package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusRejected  = "rejected"
)

const (
	BookingTypeTable = "table"
	BookingTypeParty = "party"
)

const (
	ContactSMS      = "sms"
	ContactWhatsApp = "whatsapp"
)

const (
	NotifyConfirmation = "confirmation"
	NotifyUpdate       = "update"
)

const (
	// DefaultRestaurantName используется в шаблонах уведомлений
	DefaultRestaurantName = "Butterfly Restaurant"

	// DefaultContactPhone номер для вопросов гостей
	DefaultContactPhone = "7992240355"

	// DefaultSubmissionWindow окно ограничения повторных заявок, секунды
	DefaultSubmissionWindow = 60 * 60

	// WorkerQueueSize размер очереди воркера уведомлений
	WorkerQueueSize = 128

	// DefaultNotifyTimeout таймаут одной отправки уведомления, секунды
	DefaultNotifyTimeout = 5
)

// IsKnownStatus reports whether s is one of the booking statuses.
func IsKnownStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusRejected:
		return true
	}
	return false
}

// CanTransition reports whether the strict workflow allows from -> to.
// Only pending bookings may be decided, and only to confirmed or rejected.
func CanTransition(from, to string) bool {
	return from == StatusPending && (to == StatusConfirmed || to == StatusRejected)
}
