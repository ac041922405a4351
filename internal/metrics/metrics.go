// Package metrics exposes Prometheus counters for the serving path and
// the batch pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trivia_http_requests_total",
		Help: "HTTP requests served, by status class.",
	}, []string{"status"})

	RateLimitDenied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_rate_limit_denied_total",
		Help: "Requests rejected by the rate limit guard.",
	})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_auth_failures_total",
		Help: "Requests rejected for missing or invalid credentials.",
	})

	PipelineProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_pipeline_processed_total",
		Help: "Clues successfully processed by the batch pipeline.",
	})

	PipelineErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_pipeline_errors_total",
		Help: "Clues that failed after exhausting retries.",
	})

	GenerationFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trivia_generation_fallbacks_total",
		Help: "Generation responses that could not be parsed and fell back to the source clue.",
	})
)

// Handler returns the /metrics scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
