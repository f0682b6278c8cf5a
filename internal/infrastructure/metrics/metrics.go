package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	Requests       *prometheus.CounterVec
	LatencyMS      *prometheus.HistogramVec
	OrdersCreated  *prometheus.CounterVec
	InjectedFaults *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// NewServerMetrics registers the collectors on a private registry so several
// servers (tests included) can coexist in one process.
func NewServerMetrics(service string) *ServerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omnipizza",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "omnipizza",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"method", "route"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omnipizza",
		Subsystem: service,
		Name:      "orders_created_total",
		Help:      "Orders created, by country.",
	}, []string{"country"})
	faults := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "omnipizza",
		Subsystem: service,
		Name:      "injected_faults_total",
		Help:      "Simulated failures returned to callers, by behavior.",
	}, []string{"behavior"})

	reg.MustRegister(requests, latency, orders, faults)
	return &ServerMetrics{
		Requests:       requests,
		LatencyMS:      latency,
		OrdersCreated:  orders,
		InjectedFaults: faults,
		gatherer:       reg,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
