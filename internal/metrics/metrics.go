package metrics

import (
	"net/http"
	"strconv"
	"time"

	"marketplace-be/internal/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

// Metrics holds every collector the service exports. Build one per process
// with New and hand it to whatever needs to record.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge

	ordersCreated     prometheus.Counter
	itemMutations     *prometheus.CounterVec
	statusTransitions *prometheus.CounterVec
	rejections        prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served.",
		}),
		ordersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Orders successfully created.",
		}),
		itemMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_item_mutations_total",
			Help:      "Committed order item mutations by operation.",
		}, []string{"op"}),
		statusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_transitions_total",
			Help:      "Committed order status transitions.",
		}, []string{"from", "to"}),
		rejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_transition_rejections_total",
			Help:      "Status transitions refused by the transition table.",
		}),
	}

	reg.MustRegister(
		m.requests,
		m.duration,
		m.inFlight,
		m.ordersCreated,
		m.itemMutations,
		m.statusTransitions,
		m.rejections,
	)
	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the exposition page for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

/* ---------- order.Recorder ---------- */

func (m *Metrics) OrderCreated() {
	m.ordersCreated.Inc()
}

func (m *Metrics) ItemMutated(op string) {
	m.itemMutations.WithLabelValues(op).Inc()
}

func (m *Metrics) StatusChanged(from, to string) {
	m.statusTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) TransitionRejected(from, to string) {
	m.rejections.Inc()
}

/* ---------- HTTP ---------- */

// Middleware records request count and latency labelled by the chi route
// pattern, so /orders/1 and /orders/2 share one series.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := strconv.Itoa(logger.StatusOf(ww))

		m.requests.WithLabelValues(r.Method, route, status).Inc()
		m.duration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}
