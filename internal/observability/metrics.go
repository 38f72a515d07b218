package observability

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Fallback reasons recorded by RecordFallback.
const (
	ReasonProbeFailed = "probe_failed"
	ReasonDisabled    = "disabled"
	ReasonUnreachable = "unreachable"
	ReasonRejected    = "rejected"
)

var (
	dataOperations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdc",
		Subsystem: "data",
		Name:      "operations_total",
		Help:      "Data-access operations by operation and the store that served them.",
	}, []string{"op", "source"})

	dataFallbacks = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdc",
		Subsystem: "data",
		Name:      "fallbacks_total",
		Help:      "Data-access operations that fell back to local storage, by reason.",
	}, []string{"op", "reason"})

	apiRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mdc",
		Subsystem: "api",
		Name:      "requests_total",
		Help:      "Requests served by the collection API.",
	}, []string{"method", "route", "status"})
)

func init() {
	prometheus.MustRegister(dataOperations, dataFallbacks, apiRequests)
}

// RecordOperation counts an operation served by source ("api" or "local").
func RecordOperation(op, source string) {
	dataOperations.WithLabelValues(op, source).Inc()
}

// RecordFallback counts an operation that fell back to local storage.
func RecordFallback(op, reason string) {
	dataFallbacks.WithLabelValues(op, reason).Inc()
}

// RecordAPIRequest counts a request handled by the collection API.
func RecordAPIRequest(method, route string, status int) {
	apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// OperationCount returns the current operations counter for op/source.
// Intended for tests.
func OperationCount(op, source string) prometheus.Counter {
	return dataOperations.WithLabelValues(op, source)
}

// FallbackCount returns the current fallbacks counter for op/reason.
// Intended for tests.
func FallbackCount(op, reason string) prometheus.Counter {
	return dataFallbacks.WithLabelValues(op, reason)
}

// APIRequestCount returns the requests counter for method/route/status.
// Intended for tests.
func APIRequestCount(method, route string, status int) prometheus.Counter {
	return apiRequests.WithLabelValues(method, route, strconv.Itoa(status))
}
