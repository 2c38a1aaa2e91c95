// internal/service/payment/application/metrics.go
package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// outcome 取值：finalized / noop / accepted_no_action /
// unauthenticated / not_found / malformed / storage_error
var (
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_notifications_total",
		Help: "Inbound payment notifications by reconciliation outcome.",
	}, []string{"outcome"})

	cartClearFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_cart_clear_failures_total",
		Help: "Cart clear side effects that failed after a successful payment finalization.",
	})
)
