package metrics

import (
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
)

// Unmatched labels requests the route table had no pattern for.
const Unmatched = "unmatched"

var (
	skipMu    sync.RWMutex
	skipPaths = map[string]struct{}{"/metrics": {}}

	labeler atomic.Pointer[func(*http.Request) string]
)

// AddMetricsSkipPaths extends the paths left out of the request metrics.
// /metrics is always skipped.
func AddMetricsSkipPaths(paths ...string) {
	skipMu.Lock()
	defer skipMu.Unlock()
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			skipPaths[p] = struct{}{}
		}
	}
}

// SetRouteLabeler picks the route label of a finished request. An empty
// label counts as Unmatched. Without a labeler the raw path is used.
func SetRouteLabeler(fn func(*http.Request) string) {
	if fn == nil {
		labeler.Store(nil)
		return
	}
	labeler.Store(&fn)
}

func skipped(r *http.Request) bool {
	skipMu.RLock()
	defer skipMu.RUnlock()
	_, ok := skipPaths[r.URL.Path]
	return ok
}

func routeLabel(r *http.Request) string {
	fn := labeler.Load()
	if fn == nil {
		return r.URL.Path
	}
	if l := (*fn)(r); l != "" {
		return l
	}
	return Unmatched
}
