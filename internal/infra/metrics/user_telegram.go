package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersRegisteredTotal,
		registrationTimeoutsTotal,
		telegramUpdatesReceivedTotal,
		telegramRateLimitTriggeredTotal,
		ordersRelayedTotal,
		usersRegisteredCurrent,
		pendingRegistrations,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of completed registrations (location received).",
		},
	)

	registrationTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "registration_location_timeouts_total",
			Help: "Times a user did not share a location in time after sharing a phone.",
		},
	)

	telegramUpdatesReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Counts incoming messages by content kind.",
		},
		[]string{"kind"},
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	ordersRelayedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orders_relayed_total",
			Help: "Storefront payloads by outcome.",
		},
		[]string{"status"}, // accepted|malformed|error
	)

	usersRegisteredCurrent = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "users_registered",
			Help: "Registered users in the store at the last stats run.",
		},
	)

	pendingRegistrations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registrations_pending",
			Help: "Users who shared a phone and are still expected to share a location.",
		},
	)
)

func SetRegisteredUsers(n int) {
	usersRegisteredCurrent.Set(float64(n))
}

func SetPendingRegistrations(n int) {
	pendingRegistrations.Set(float64(n))
}

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncRegistrationTimeout() {
	registrationTimeoutsTotal.Inc()
}

func IncTelegramUpdate(kind string) {
	telegramUpdatesReceivedTotal.WithLabelValues(norm(kind)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncOrder(status string) {
	ordersRelayedTotal.WithLabelValues(norm(status)).Inc()
}

// RegisteredUsersGauge exposes the gauge for tests in other packages.
func RegisteredUsersGauge() prometheus.Gauge { return usersRegisteredCurrent }
