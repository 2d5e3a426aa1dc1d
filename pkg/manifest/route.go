package manifest

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
)

// Route describes a single HTTP route.
type Route struct {
	Path     string   `toml:"path"`
	Method   string   `toml:"method"`
	Guard    Guard    `toml:"guard"`
	Policy   Policy   `toml:"policy"`
	Handler  HSpec    `toml:"handler"`
	BodyType string   `toml:"body_type"`
	Query    []string `toml:"query"`
	Tags     []string `toml:"tags"`
}

type Guard struct {
	Roles       []string `toml:"roles"`
	Users       []string `toml:"users"`
	RequireAuth bool     `toml:"require_auth"`
}

// Guarded reports whether the route needs an authenticated caller.
func (g Guard) Guarded() bool {
	return g.RequireAuth || len(g.Users) > 0 || len(g.Roles) > 0
}

type Policy struct {
	TimeoutMS int `toml:"timeout_ms"`
}

type HSpec struct {
	Type   HandlerType `toml:"type"`
	Name   string      `toml:"name"`
	Static *StaticSpec `toml:"static"`
}

type StaticSpec struct {
	Status      int    `toml:"status"`
	Body        string `toml:"body"`
	ContentType string `toml:"content_type"`
}

var methods = []string{
	http.MethodDelete, http.MethodGet, http.MethodHead, http.MethodPatch,
	http.MethodPost, http.MethodPut, http.MethodOptions,
}

// normalize path/method/handler type
func (r *Route) normalize() error {
	if r.Path == "" {
		return errors.New("path is required")
	}
	if !strings.HasPrefix(r.Path, "/") {
		r.Path = "/" + r.Path
	}
	if r.Path != "/" {
		r.Path = path.Clean(r.Path)
	}
	r.Method = strings.ToUpper(strings.TrimSpace(r.Method))
	if r.Method == "" {
		r.Method = http.MethodGet
	}
	if r.Handler.Type == "" {
		r.Handler.Type = HandlerInproc
	}
	r.BodyType = strings.TrimSpace(r.BodyType)
	return nil
}

// validate fields that are independent of global state.
func (r *Route) validate() error {
	ok := false
	for _, m := range methods {
		if m == r.Method {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("method %q not supported", r.Method)
	}

	switch r.Handler.Type {
	case HandlerInproc:
		if strings.TrimSpace(r.Handler.Name) == "" {
			return errors.New("handler.name required for inproc")
		}
	case HandlerStatic:
		s := r.Handler.Static
		if s == nil {
			return errors.New("handler.static required for static")
		}
		if s.Status == 0 {
			s.Status = http.StatusOK
		}
		if s.Status < 100 || s.Status > 599 {
			return fmt.Errorf("handler.static.status %d invalid", s.Status)
		}
	default:
		return fmt.Errorf("unknown handler type %q", r.Handler.Type)
	}

	if r.Policy.TimeoutMS < 0 {
		return errors.New("policy.timeout_ms must be >= 0")
	}
	for _, q := range r.Query {
		if strings.TrimSpace(q) == "" {
			return errors.New("query keys must not be empty")
		}
	}
	return nil
}
