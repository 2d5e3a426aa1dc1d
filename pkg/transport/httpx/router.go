// pkg/transport/httpx/router.go
package httpx

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Tree is the raw routing table contract the dispatch pipeline depends on:
// insert a (method, pattern) pair, find the pattern a request path resolves to.
// NewChi implements it.
type Tree interface {
	Insert(method, pattern string) error
	Find(method, path string) (pattern string, params map[string]string, ok bool)
}

// chiTree is our default Tree backed by github.com/go-chi/chi. Only the
// radix tree is used; chi never serves a request itself.
type chiTree struct{ r *chi.Mux }

// NewChi returns a Chi-backed Tree.
func NewChi() Tree { return &chiTree{r: chi.NewRouter()} }

var noop = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})

func (c *chiTree) Insert(method, pattern string) (err error) {
	defer func() {
		// chi panics on malformed or conflicting patterns
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%v", rec)
		}
	}()
	c.r.Method(method, ChiPattern(pattern), noop)
	return nil
}

func (c *chiTree) Find(method, path string) (string, map[string]string, bool) {
	rctx := chi.NewRouteContext()
	pattern := c.r.Find(rctx, method, path)
	if pattern == "" {
		return "", nil, false
	}
	params := make(map[string]string, len(rctx.URLParams.Keys))
	for i, k := range rctx.URLParams.Keys {
		params[k] = rctx.URLParams.Values[i]
	}
	return pattern, params, true
}

// ChiPattern rewrites `/user/:id` segments into chi's `/user/{id}` form.
// A trailing `*` is already chi syntax.
func ChiPattern(pattern string) string {
	if !strings.Contains(pattern, ":") {
		return pattern
	}
	segs := strings.Split(pattern, "/")
	for i, s := range segs {
		if len(s) > 1 && s[0] == ':' {
			segs[i] = "{" + s[1:] + "}"
		}
	}
	return strings.Join(segs, "/")
}

// StripQuery drops the query string and fragment from a request target.
func StripQuery(target string) string {
	if i := strings.IndexAny(target, "?#"); i >= 0 {
		target = target[:i]
	}
	if target == "" {
		return "/"
	}
	return target
}
