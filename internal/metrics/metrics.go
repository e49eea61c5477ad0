package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the gateway's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gateway",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path"},
	)

	uiSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "gateway",
			Subsystem: "ui",
			Name:      "sessions_active",
			Help:      "Open interactive UI sessions.",
		},
	)

	uiEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "ui",
			Name:      "events_total",
			Help:      "UI events received, by decoded kind.",
		},
		[]string{"kind"},
	)

	signatures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Name:      "signatures_total",
			Help:      "Signatures produced, by surface and result.",
		},
		[]string{"surface", "result"},
	)

	assetsServed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gateway",
			Subsystem: "assets",
			Name:      "served_total",
			Help:      "Asset lookups, by outcome.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		uiSessions,
		uiEvents,
		signatures,
		assetsServed,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one finished request. path should already be
// canonical (see CanonicalPath).
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func IncInFlight() { httpInFlight.Inc() }
func DecInFlight() { httpInFlight.Dec() }

func UISessionOpened() { uiSessions.Inc() }
func UISessionClosed() { uiSessions.Dec() }

func RecordUIEvent(kind string) {
	uiEvents.WithLabelValues(kind).Inc()
}

func RecordSignature(surface string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	signatures.WithLabelValues(surface, result).Inc()
}

func RecordAsset(kind string) {
	assetsServed.WithLabelValues(kind).Inc()
}

// CanonicalPath folds release-scoped paths into low-cardinality labels.
func CanonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) < 3 || parts[0] != "Build" || parts[1] != "Release" {
		if len(parts) == 1 {
			return "/" + parts[0]
		}
		return "/other"
	}
	switch {
	case len(parts) == 3:
		return "/Build/Release/:version/"
	case len(parts) == 4 && parts[3] == "instance":
		return "/Build/Release/:version/instance"
	case len(parts) >= 5 && parts[3] == "Streamables" && parts[4] == "assets":
		return "/Build/Release/:version/Streamables/assets/*path"
	default:
		return "/Build/Release/:version/other"
	}
}

// StatusRecorder captures the response status while keeping the Hijacker and
// Flusher capabilities of the wrapped writer, which WebSocket upgrades and
// chunked asset streaming rely on.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
}

func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w}
}

func (r *StatusRecorder) WriteHeader(code int) {
	if r.Status == 0 {
		r.Status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *StatusRecorder) Write(b []byte) (int, error) {
	if r.Status == 0 {
		r.Status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func (r *StatusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		if r.Status == 0 {
			r.Status = http.StatusOK
		}
		flusher.Flush()
	}
}

func (r *StatusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	if r.Status == 0 {
		r.Status = http.StatusSwitchingProtocols
	}
	return hijacker.Hijack()
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (r *StatusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Code returns the recorded status, defaulting to 200 when nothing was
// written.
func (r *StatusRecorder) Code() int {
	if r.Status == 0 {
		return http.StatusOK
	}
	return r.Status
}
