package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Telegram update'lar: kind = message/callback/command, status = ok/error/panic/timeout
	UpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poizon",
		Subsystem: "bot",
		Name:      "updates_total",
		Help:      "Handled telegram updates",
	}, []string{"kind", "status"})

	UpdateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "poizon",
		Subsystem: "bot",
		Name:      "update_duration_seconds",
		Help:      "Time spent handling one update",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})

	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "poizon",
		Subsystem: "orders",
		Name:      "created_total",
		Help:      "Orders persisted from confirmed carts",
	})

	StatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poizon",
		Subsystem: "orders",
		Name:      "status_changes_total",
		Help:      "Order status transitions",
	}, []string{"status", "result"}) // result: ok / illegal / not_found / error

	RegistrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poizon",
		Subsystem: "users",
		Name:      "registrations_total",
		Help:      "Completed registrations",
	}, []string{"kind"}) // created / updated

	PriceImportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "poizon",
		Subsystem: "admin",
		Name:      "price_import_sections_total",
		Help:      "Applied price list sections",
	}, []string{"section", "result"})
)

func ObserveUpdate(kind string, started time.Time, status string) {
	UpdatesTotal.WithLabelValues(kind, status).Inc()
	UpdateDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

func Handler() http.Handler {
	return promhttp.Handler()
}
