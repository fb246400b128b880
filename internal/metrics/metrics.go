package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

type ShopMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec

	OrdersCreated   prometheus.Counter
	OrdersCancelled prometheus.Counter
	OrderAmount     prometheus.Histogram
}

// reg が nil ならデフォルトレジストリに登録する
func New(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shop",
		Subsystem: "api",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "shop",
		Subsystem: "api",
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "orders_created_total",
		Help:      "Orders assembled from carts.",
	})
	cancelled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "shop",
		Name:      "orders_cancelled_total",
		Help:      "Orders moved to cancelled.",
	})
	amount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "shop",
		Name:      "order_total_amount",
		Help:      "Total amount of created orders.",
		Buckets:   prometheus.ExponentialBuckets(10, 2, 10),
	})

	reg.MustRegister(requests, latency, created, cancelled, amount)
	return &ShopMetrics{
		Requests:        requests,
		LatencyMS:       latency,
		OrdersCreated:   created,
		OrdersCancelled: cancelled,
		OrderAmount:     amount,
	}
}

func (m *ShopMetrics) ObserveOrderCreated(total decimal.Decimal) {
	m.OrdersCreated.Inc()
	m.OrderAmount.Observe(total.InexactFloat64())
}

func (m *ShopMetrics) ObserveOrderCancelled() {
	m.OrdersCancelled.Inc()
}

func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
