package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		storesRegisteredTotal,
		storesModeratedTotal,
		offersPublishedTotal,
		offersExpiredTotal,
		bookingsTotal,
	)
}

var (
	storesRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "stores_registered_total",
			Help: "Total number of stores submitted for moderation.",
		},
	)

	storesModeratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stores_moderated_total",
			Help: "Moderation decisions by result.",
		},
		[]string{"result"}, // 'approved', 'rejected'
	)

	offersPublishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offers_published_total",
			Help: "Total number of offers published.",
		},
	)

	offersExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "offers_expired_total",
			Help: "Offers deactivated by the expiry sweeper.",
		},
	)

	bookingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookings_total",
			Help: "Bookings by status transition (created/confirmed/cancelled).",
		},
		[]string{"status"},
	)
)

func IncStoreRegistered() {
	storesRegisteredTotal.Inc()
}

func IncStoreModerated(result string) {
	storesModeratedTotal.WithLabelValues(norm(result)).Inc()
}

func AddOffersPublished(n int) {
	offersPublishedTotal.Add(float64(n))
}

func AddOffersExpired(n int) {
	offersExpiredTotal.Add(float64(n))
}

func IncBooking(status string) {
	bookingsTotal.WithLabelValues(norm(status)).Inc()
}
