package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "butterfly"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		},
		[]string{"route", "method", "status"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookings_created_total",
			Help:      "Bookings accepted by the API.",
		},
	)

	statusUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_status_updates_total",
			Help:      "Booking status changes by target status.",
		},
		[]string{"status"},
	)

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	workerTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "worker_tasks_total",
			Help:      "Background tasks by outcome.",
		},
		[]string{"outcome"},
	)

	events = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Domain events by type.",
		},
		[]string{"type"},
	)

	botUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_updates_total",
			Help:      "Telegram updates handled by the manager bot, by outcome.",
		},
		[]string{"outcome"},
	)

	botUpdateSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bot_update_processing_seconds",
			Help:      "Time spent processing one Telegram update.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, statusUpdates, notifications, workerTasks, events, botUpdates, botUpdateSeconds)
	})
}

// IncHTTP increments the request counter for a route pattern.
func IncHTTP(route, method string, status int) {
	httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

func IncBookingCreated() {
	bookingsCreated.Inc()
}

func IncStatusUpdate(status string) {
	statusUpdates.WithLabelValues(status).Inc()
}

// IncNotification records a delivery attempt: outcome is "sent" or "failed".
func IncNotification(channel, outcome string) {
	notifications.WithLabelValues(channel, outcome).Inc()
}

// IncWorkerTask records a pool task: "ok", "error", "panic" or "dropped".
func IncWorkerTask(outcome string) {
	workerTasks.WithLabelValues(outcome).Inc()
}

func IncEvent(eventType string) {
	events.WithLabelValues(eventType).Inc()
}

// IncBotUpdate records a bot update: "handled", "denied" or "panic".
func IncBotUpdate(outcome string) {
	botUpdates.WithLabelValues(outcome).Inc()
}

func ObserveBotUpdate(seconds float64) {
	botUpdateSeconds.Observe(seconds)
}
