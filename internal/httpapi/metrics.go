package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"inferd/internal/dispatch"
	"inferd/pkg/types"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route, method and status",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inferd",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)

	httpInflight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Requests currently being served",
		},
		[]string{"path"},
	)

	backpressureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "http",
			Name:      "backpressure_total",
			Help:      "Requests rejected with 429, by reason",
		},
		[]string{"reason"},
	)

	initsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "models",
			Name:      "initializations_total",
			Help:      "Model initializations by outcome",
		},
		[]string{"outcome"},
	)

	infersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inferd",
			Subsystem: "infer",
			Name:      "operations_total",
			Help:      "Inference operations by outcome",
		},
		[]string{"outcome"},
	)

	modelsByState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "models",
			Name:      "by_state",
			Help:      "Tracked models by lifecycle state",
		},
		[]string{"state"},
	)

	poolQueueLen = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "inferd",
			Subsystem: "pool",
			Name:      "queue_len",
			Help:      "Inference tasks waiting for a worker",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal, httpRequestDuration, httpInflight, backpressureTotal,
		initsTotal, infersTotal, modelsByState, poolQueueLen,
	)
}

// statusWriter captures the status code written by the handler chain.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records request counters and latency for Prometheus.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The route pattern is only known after routing, so the inflight
		// gauge uses the raw path while counters use the pattern.
		inflightPath := r.URL.Path
		httpInflight.WithLabelValues(inflightPath).Inc()
		defer httpInflight.WithLabelValues(inflightPath).Dec()

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)

		path := routePatternOrPath(r)
		code := itoa(rec.status)
		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpRequestDuration.WithLabelValues(path, r.Method, code).Observe(time.Since(start).Seconds())
	})
}

// routePatternOrPath prefers the chi route pattern over the raw URL path so
// routes with path parameters collapse into one label value.
func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// IncrementBackpressure counts a 429 sent to a client.
func IncrementBackpressure(reason string) {
	if reason == "" {
		reason = "unspecified"
	}
	backpressureTotal.WithLabelValues(reason).Inc()
}

// MetricsPublisher converts dispatcher events into Prometheus series and
// forwards each event to next when one is chained behind it.
type MetricsPublisher struct {
	next dispatch.EventPublisher
}

// NewMetricsPublisher returns a publisher counting initialization and
// inference outcomes. next may be nil.
func NewMetricsPublisher(next dispatch.EventPublisher) *MetricsPublisher {
	return &MetricsPublisher{next: next}
}

func (p *MetricsPublisher) Publish(ev dispatch.Event) {
	switch ev.Name {
	case dispatch.EventInitReady:
		initsTotal.WithLabelValues("ready").Inc()
	case dispatch.EventInitFailed:
		initsTotal.WithLabelValues("failed").Inc()
	case dispatch.EventInferOK:
		infersTotal.WithLabelValues("ok").Inc()
	case dispatch.EventInferFailed:
		infersTotal.WithLabelValues("failed").Inc()
	case dispatch.EventInferRejected:
		infersTotal.WithLabelValues("rejected").Inc()
	}
	if p.next != nil {
		p.next.Publish(ev)
	}
}

// UpdateStatusGauges refreshes the model-state and pool gauges from a status
// snapshot. Called when /status or /metrics is served so scrapes see the
// current picture.
func UpdateStatusGauges(st types.StatusResponse) {
	for _, state := range []types.ModelState{
		types.StateUnregistered, types.StateInitializing, types.StateReady, types.StateFailed,
	} {
		modelsByState.WithLabelValues(state.String()).Set(float64(st.Counts[state]))
	}
	poolQueueLen.Set(float64(st.Pool.QueueLen))
}

// fast integer to ascii for small set of status codes
func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [4]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
