package web

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	renderDurations = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Name: "pages_render_duration",
		Help: "Duration of rendering a matched page",
	}, []string{"template"})

	responseStatusCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pages_response_status_count",
		Help: "HTTP Status per rendered page",
	}, []string{"status", "template"})

	passThroughCount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pages_passthrough_count",
		Help: "Requests handed to the next handler without rendering",
	}, []string{"method"})
)

// methodLabel keeps the method label bounded: clients may send any token as a method.
func methodLabel(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return method
	default:
		return "other"
	}
}
