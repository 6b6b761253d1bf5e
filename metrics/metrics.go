package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	listFetch = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskmaster",
			Name:      "job_list_fetch_total",
			Help:      "Count of job list fetches by list and outcome.",
		},
		[]string{"list", "outcome"},
	)

	storeRefresh = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "taskmaster",
			Name:      "booking_store_refresh_total",
			Help:      "Count of booking store refreshes.",
		},
	)

	jobAccept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskmaster",
			Name:      "job_accept_total",
			Help:      "Count of job accept attempts by outcome.",
		},
		[]string{"outcome"},
	)

	otpVerify = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "taskmaster",
			Name:      "otp_verify_total",
			Help:      "Count of OTP verification attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(listFetch, storeRefresh, jobAccept, otpVerify)
	})
}

func IncListFetch(list, outcome string) {
	listFetch.WithLabelValues(list, outcome).Inc()
}

func IncStoreRefresh() {
	storeRefresh.Inc()
}

func IncJobAccept(outcome string) {
	jobAccept.WithLabelValues(outcome).Inc()
}

func IncOTPVerify(outcome string) {
	otpVerify.WithLabelValues(outcome).Inc()
}
