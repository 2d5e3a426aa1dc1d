package logger

import (
	"mime"
	"net/http"
	"strings"
	"sync"
)

// maxLoggedBody caps the request bodies copied into access lines.
const maxLoggedBody = 64 << 10

var (
	bodyLogMu    sync.RWMutex
	bodyLogPaths = map[string]struct{}{}
)

// AddBodyLogPaths allowlists request paths whose JSON bodies the access log
// records. Every other body stays out of the logs.
func AddBodyLogPaths(paths ...string) {
	bodyLogMu.Lock()
	defer bodyLogMu.Unlock()
	for _, p := range paths {
		if p = strings.TrimSpace(p); p != "" {
			bodyLogPaths[p] = struct{}{}
		}
	}
}

func bodyLogged(path string) bool {
	bodyLogMu.RLock()
	defer bodyLogMu.RUnlock()
	_, ok := bodyLogPaths[path]
	return ok
}

// peekable says whether the body of r may end up in its access line, before
// anything was read.
func peekable(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return false
	}
	if r.Body == nil || r.Body == http.NoBody {
		return false
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mt == "application/json" && bodyLogged(r.URL.Path)
}
