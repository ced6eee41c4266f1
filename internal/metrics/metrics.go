package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	allocationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostel_allocation",
			Name:      "allocation_attempts_total",
			Help:      "Allocation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	reservationOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "hostel_allocation",
			Name:      "reservation_attempts_total",
			Help:      "Reservation creation attempts by outcome.",
		},
		[]string{"outcome"},
	)

	occupancyDrift = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "hostel_allocation",
			Name:      "occupancy_drift_corrections_total",
			Help:      "Reconcile runs that found and corrected counter drift.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(allocationOutcomes, reservationOutcomes, occupancyDrift)
	})
}

// IncAllocation increments the allocation counter for an outcome label.
func IncAllocation(outcome string) {
	allocationOutcomes.WithLabelValues(outcome).Inc()
}

// IncReservation increments the reservation counter for an outcome label.
func IncReservation(outcome string) {
	reservationOutcomes.WithLabelValues(outcome).Inc()
}

// IncDriftCorrection records a reconcile that had to correct occupancy.
func IncDriftCorrection() {
	occupancyDrift.Inc()
}
