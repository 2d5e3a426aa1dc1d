package metrics

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/middleware"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/auth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// ProvideMetrics is the fx provider for the /metrics handler.
func ProvideMetrics() http.Handler { return Handler() }

// Collect records request counters and latency once the response is written.
// The route label is read after the inner handler ran, so a labeler backed by
// the route match sees the matched pattern.
func Collect(ca *auth.Middleware) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipped(r) {
				next.ServeHTTP(w, r)
				return
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() { record(r, ww.Status(), time.Since(start), ca) }()
			next.ServeHTTP(ww, r)
		})
	}
}

func record(r *http.Request, status int, took time.Duration, ca *auth.Middleware) {
	if status == 0 {
		status = http.StatusOK
	}
	code := strconv.Itoa(status)
	route := routeLabel(r)

	role := ""
	if ca != nil {
		role = ca.GetUser(r.Context()).Role.Name
	}

	totalHttpRequestsFromRole.WithLabelValues(role).Inc()
	totalHttpRequestsToRoute.WithLabelValues(code, route, r.Method).Inc()
	totalHttpRequests.WithLabelValues(code, r.Method).Inc()
	responseTime.WithLabelValues(r.Method, route).Observe(took.Seconds())
}

// ObserveHook counts one run of a hook phase by outcome.
func ObserveHook(phase string, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	hookRuns.WithLabelValues(phase, outcome).Inc()
}
