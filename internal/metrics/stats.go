// Package metrics holds the storefront's Prometheus statistics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Stats holds server statistics.
type Stats struct {
	reg *prometheus.Registry

	ordersCreated  prometheus.Counter
	cartMutations  *prometheus.CounterVec
	logins         *prometheus.CounterVec
	storeFailures  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
}

// New registers the storefront metrics in a fresh registry.
func New() *Stats {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reg.MustRegister(collectors.NewGoCollector())
	return &Stats{
		reg: reg,

		ordersCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "storefront_orders_created_total",
			Help: "Total orders placed",
		}),
		cartMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Cart changes by operation",
		}, []string{"op"}),
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_logins_total",
			Help: "Sign-ins and registrations by role",
		}, []string{"role"}),
		storeFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "storefront_store_failures_total",
			Help: "Swallowed key-value store failures by operation",
		}, []string{"op"}),
		requestLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "storefront_http_request_seconds",
			Help:    "HTTP request latency by route",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"route"}),
	}
}

func (s *Stats) OrderCreated() { s.ordersCreated.Inc() }
func (s *Stats) CartMutation(op string) { s.cartMutations.WithLabelValues(op).Inc() }
func (s *Stats) Login(role string) { s.logins.WithLabelValues(role).Inc() }
func (s *Stats) StoreFailure(op string) { s.storeFailures.WithLabelValues(op).Inc() }

// Observe records how long a request to route took.
func (s *Stats) Observe(route string, d time.Duration) {
	s.requestLatency.WithLabelValues(route).Observe(d.Seconds())
}

// Registry returns the underlying registry.
func (s *Stats) Registry() *prometheus.Registry {
	return s.reg
}

// Handler serves the registry in the Prometheus text format.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{})
}
