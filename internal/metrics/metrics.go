package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "book_rental"

var (
	once sync.Once

	rentalCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rental_created_total",
			Help:      "Count of rentals created.",
		},
	)

	rentalConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rental_conflict_total",
			Help:      "Count of rental creations or edits rejected because the book was already rented.",
		},
	)

	rentalClosed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rental_closed_total",
			Help:      "Count of rentals leaving the active state, by new status.",
		},
		[]string{"status"},
	)

	availabilityCheck = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_check_total",
			Help:      "Count of availability checks by outcome.",
		},
		[]string{"result"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(rentalCreated, rentalConflict, rentalClosed, availabilityCheck)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func IncRentalCreated() {
	rentalCreated.Inc()
}

func IncRentalConflict() {
	rentalConflict.Inc()
}

func IncRentalClosed(status string) {
	rentalClosed.WithLabelValues(status).Inc()
}

func IncAvailabilityCheck(available bool) {
	result := "unavailable"
	if available {
		result = "available"
	}
	availabilityCheck.WithLabelValues(result).Inc()
}
