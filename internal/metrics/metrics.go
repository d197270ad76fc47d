package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	fetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "fetch_total",
			Help:      "Count of upstream reservation fetches by outcome.",
		},
		[]string{"outcome"},
	)

	staleFetchDiscarded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "stale_fetch_discarded_total",
			Help:      "Count of fetch results discarded because a newer generation already committed.",
		},
	)

	droppedIntervals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "dropped_intervals_total",
			Help:      "Count of reservations excluded from display due to malformed intervals.",
		},
	)

	occupancyQueries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "occupancy_queries_total",
			Help:      "Count of grid occupancy computations served.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "reserva",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(fetchTotal, staleFetchDiscarded, droppedIntervals, occupancyQueries, httpRequests)
	})
}

func IncFetch(outcome string) {
	fetchTotal.WithLabelValues(outcome).Inc()
}

func IncStaleFetchDiscarded() {
	staleFetchDiscarded.Inc()
}

func AddDroppedIntervals(n int) {
	if n > 0 {
		droppedIntervals.Add(float64(n))
	}
}

func IncOccupancyQuery() {
	occupancyQueries.Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
