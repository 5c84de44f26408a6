// Package metrics, Prometheus collector'larını ve HTTP instrumentation'ı barındırır.
//
// Registry uygulamaya özeldir (global default registry kullanılmaz),
// /metrics endpoint'i Handler() ile servis edilir.
package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "portal"

var (
	// Registry, uygulamanın tüm collector'larını tutar.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "path"},
	)

	// Subscribers, o an bağlı WebSocket subscriber sayısı.
	Subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "subscribers",
			Help:      "Currently connected status subscribers.",
		},
	)

	// Evictions, liveness probe'a cevap vermediği için düşürülen subscriber sayısı.
	Evictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ws",
			Name:      "evictions_total",
			Help:      "Subscribers dropped after missing a liveness probe.",
		},
	)

	// BroadcastTicks, çalışan broadcast tick sayısı.
	BroadcastTicks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "status",
			Name:      "broadcast_ticks_total",
			Help:      "Number of status broadcast ticks.",
		},
	)

	// SnapshotSource, snapshot'ın hangi yoldan üretildiği: upstream, fallback, offline.
	SnapshotSource = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "status",
			Name:      "snapshots_total",
			Help:      "Computed server status snapshots by source.",
		},
		[]string{"source"},
	)
)

func init() {
	Registry.MustRegister(
		httpRequests,
		httpDuration,
		Subscribers,
		Evictions,
		BroadcastTicks,
		SnapshotSource,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler, registry'yi expose eden HTTP handler döner.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler, her request için sayaç ve süre kaydeder.
//
// Path label'ı olarak ServeMux'un eşleştirdiği pattern kullanılır
// (ör: "GET /api/news/{slug}"), böylece label cardinality sınırlı kalır.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		path := r.Pattern
		if path == "" {
			path = "unmatched"
		}
		httpRequests.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// statusRecorder, yazılan HTTP status kodunu yakalar.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap, http.ResponseController'ın (ve WebSocket upgrade'in)
// altta yatan writer'a ulaşmasını sağlar.
func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Hijack, WebSocket upgrade için altta yatan bağlantıyı devreder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("metrics: underlying ResponseWriter does not support hijacking")
	}
	return h.Hijack()
}
