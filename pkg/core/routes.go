package core

import (
	"fmt"
	"iter"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	httpx "github.com/joeydtaylor/steeze-fast/pkg/transport/httpx"
	"go.uber.org/zap"
)

var supportedMethods = []string{
	http.MethodDelete,
	http.MethodGet,
	http.MethodHead,
	http.MethodPatch,
	http.MethodPost,
	http.MethodPut,
	http.MethodOptions,
}

// Handler answers a matched request through its Reply.
type Handler func(req *Request, rep *Reply)

// Validator checks a decoded request before the preHandler hooks run.
type Validator func(req *Request) error

// RouteOptions is what Route registers. The schema builder may append Validators.
type RouteOptions struct {
	Method     string
	URL        string
	Schema     *Schema
	Handler    Handler
	Timeout    time.Duration
	Validators []Validator
}

// RouteOption tweaks the options of a shorthand registration.
type RouteOption func(*RouteOptions)

func WithSchema(s *Schema) RouteOption {
	return func(o *RouteOptions) { o.Schema = s }
}

// WithTimeout bounds the handler context of one route.
func WithTimeout(d time.Duration) RouteOption {
	return func(o *RouteOptions) { o.Timeout = d }
}

// Route is one registered (method, url) pair together with the registries of
// the scope it was declared in. It does not change after registration.
type Route struct {
	Method  string
	URL     string
	Schema  *Schema
	Handler Handler
	Timeout time.Duration

	validators      []Validator
	hooks           *Hooks
	parsers         *Parsers
	requestDecorate *decorations
	replyDecorate   *decorations
}

type routeTable struct {
	mu    sync.RWMutex
	tree  httpx.Tree
	order []string
	nodes map[string]map[string]*Route
	byChi map[string]string
}

func newRouteTable() *routeTable {
	return &routeTable{
		tree:  httpx.NewChi(),
		nodes: map[string]map[string]*Route{},
		byChi: map[string]string{},
	}
}

func (t *routeTable) insert(rt *Route) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	node, ok := t.nodes[rt.URL]
	if ok {
		if _, dup := node[rt.Method]; dup {
			return ErrDuplicateRoute
		}
	}
	chiPattern := httpx.ChiPattern(rt.URL)
	if other, taken := t.byChi[chiPattern]; taken && other != rt.URL {
		return fmt.Errorf("%w: %q matches the same paths as %q", ErrInvalidPattern, rt.URL, other)
	}
	if err := t.tree.Insert(rt.Method, rt.URL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	if !ok {
		node = map[string]*Route{}
		t.nodes[rt.URL] = node
		t.order = append(t.order, rt.URL)
		t.byChi[chiPattern] = rt.URL
	}
	node[rt.Method] = rt
	return nil
}

// match resolves a request target. Unknown paths and unregistered methods on a
// known path both report false.
func (t *routeTable) match(method, target string) (*Route, map[string]string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	pattern, params, ok := t.tree.Find(method, httpx.StripQuery(target))
	if !ok {
		return nil, nil, false
	}
	rt, ok := t.nodes[t.byChi[pattern]][method]
	if !ok {
		return nil, nil, false
	}
	return rt, params, true
}

func (t *routeTable) each(yield func(string, map[string]Route) bool) {
	t.mu.RLock()
	order := slices.Clone(t.order)
	t.mu.RUnlock()

	for _, url := range order {
		t.mu.RLock()
		methods := make(map[string]Route, len(t.nodes[url]))
		for m, rt := range t.nodes[url] {
			methods[strings.ToLower(m)] = *rt
		}
		t.mu.RUnlock()
		if !yield(url, methods) {
			return
		}
	}
}

// Route registers a route against the table shared by every scope, binding
// this scope's hooks, parsers and request/reply decorations to it.
func (s *Instance) Route(opts RouteOptions) error {
	fail := func(err error) error {
		return &RegistrationError{Op: "route", Method: opts.Method, URL: opts.URL, Err: err}
	}

	if !slices.Contains(supportedMethods, opts.Method) {
		return fail(ErrUnsupportedMethod)
	}
	if opts.Handler == nil {
		return fail(ErrMissingHandler)
	}
	if s.root.serving.Load() {
		return fail(ErrAlreadyListening)
	}
	if opts.Schema != nil {
		if err := s.root.opts.SchemaBuilder.Build(&opts); err != nil {
			return fail(err)
		}
	}
	if !strings.HasPrefix(opts.URL, "/") {
		return fail(fmt.Errorf("%w: %q must start with /", ErrInvalidPattern, opts.URL))
	}
	if strings.ContainsAny(opts.URL, "{}") {
		return fail(fmt.Errorf("%w: %q uses braces, parameters are written :name", ErrInvalidPattern, opts.URL))
	}

	rt := &Route{
		Method:          opts.Method,
		URL:             opts.URL,
		Schema:          opts.Schema,
		Handler:         opts.Handler,
		Timeout:         opts.Timeout,
		validators:      slices.Clone(opts.Validators),
		hooks:           s.hooks,
		parsers:         s.parsers,
		requestDecorate: s.requestDecorations,
		replyDecorate:   s.replyDecorations,
	}
	if err := s.root.routes.insert(rt); err != nil {
		return fail(err)
	}
	s.root.log.Debug("route registered", zap.String("method", rt.Method), zap.String("url", rt.URL))
	return nil
}

func (s *Instance) route(method, url string, h Handler, opts []RouteOption) error {
	o := RouteOptions{Method: method, URL: url, Handler: h}
	for _, fn := range opts {
		fn(&o)
	}
	return s.Route(o)
}

func (s *Instance) Get(url string, h Handler, opts ...RouteOption) error {
	return s.route(http.MethodGet, url, h, opts)
}

func (s *Instance) Head(url string, h Handler, opts ...RouteOption) error {
	return s.route(http.MethodHead, url, h, opts)
}

func (s *Instance) Post(url string, h Handler, opts ...RouteOption) error {
	return s.route(http.MethodPost, url, h, opts)
}

func (s *Instance) Put(url string, h Handler, opts ...RouteOption) error {
	return s.route(http.MethodPut, url, h, opts)
}

func (s *Instance) Patch(url string, h Handler, opts ...RouteOption) error {
	return s.route(http.MethodPatch, url, h, opts)
}

func (s *Instance) Delete(url string, h Handler, opts ...RouteOption) error {
	return s.route(http.MethodDelete, url, h, opts)
}

func (s *Instance) Options(url string, h Handler, opts ...RouteOption) error {
	return s.route(http.MethodOptions, url, h, opts)
}

// Routes yields every registered pattern with copies of its routes keyed by
// lower-cased method, in first-registration order. Each iteration reads the
// live table.
func (s *Instance) Routes() iter.Seq2[string, map[string]Route] {
	return s.root.routes.each
}
