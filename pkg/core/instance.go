package core

import (
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeydtaylor/steeze-fast/pkg/codec"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware"
	"go.uber.org/zap"
)

// Options configure a top-level Instance.
type Options struct {
	Logger        *zap.Logger
	BodyLimit     int64
	HookTimeout   time.Duration
	Serializer    codec.Codec
	SchemaBuilder SchemaBuilder
	TLSCertFile   string
	TLSKeyFile    string
	// PhaseObserver is told how every hook phase of every request ended.
	PhaseObserver func(phase Phase, err error)
}

type Option func(*Options)

func WithLogger(l *zap.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithBodyLimit caps request bodies; larger ones get 413.
func WithBodyLimit(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.BodyLimit = n
		}
	}
}

// WithHookTimeout bounds each request's whole pipeline so a hook that never
// calls next, or a handler that never sends, cannot hold the connection
// forever. The default is 30s; zero disables it.
func WithHookTimeout(d time.Duration) Option {
	return func(o *Options) { o.HookTimeout = d }
}

func WithSerializer(c codec.Codec) Option {
	return func(o *Options) {
		if c != nil {
			o.Serializer = c
		}
	}
}

func WithSchemaBuilder(b SchemaBuilder) Option {
	return func(o *Options) {
		if b != nil {
			o.SchemaBuilder = b
		}
	}
}

func WithTLS(certFile, keyFile string) Option {
	return func(o *Options) {
		o.TLSCertFile = certFile
		o.TLSKeyFile = keyFile
	}
}

func WithPhaseObserver(fn func(phase Phase, err error)) Option {
	return func(o *Options) { o.PhaseObserver = fn }
}

const (
	defaultBodyLimit = 1 << 20
	// matches the server's WriteTimeout
	defaultHookTimeout = 30 * time.Second
)

// root is the state every scope of one server shares.
type root struct {
	opts   Options
	log    *zap.Logger
	routes *routeTable
	mw     *middleware.Runner
	top    *Instance

	mu       sync.Mutex
	bootErr  error
	srv      *http.Server
	ln       net.Listener
	serving  atomic.Bool
	serveErr chan error
}

// Instance is one registration scope. The value returned by New is the
// top-level scope; Register derives children from it.
type Instance struct {
	root   *root
	parent *Instance
	name   string

	hooks              *Hooks
	parsers            *Parsers
	decorations        *decorations
	requestDecorations *decorations
	replyDecorations   *decorations

	pending []pendingPlugin
}

// New builds a top-level instance. It is an http.Handler.
func New(opts ...Option) *Instance {
	o := Options{
		Logger:        zap.NewNop(),
		BodyLimit:     defaultBodyLimit,
		HookTimeout:   defaultHookTimeout,
		Serializer:    codec.JSON,
		SchemaBuilder: DefaultSchemaBuilder,
	}
	for _, fn := range opts {
		fn(&o)
	}

	rt := &root{
		opts:   o,
		log:    o.Logger,
		routes: newRouteTable(),
		mw:     middleware.NewRunner(),
	}
	s := &Instance{
		root:               rt,
		name:               "root",
		hooks:              newTopHooks(),
		parsers:            NewParsers(),
		decorations:        newDecorations(),
		requestDecorations: newDecorations(),
		replyDecorations:   newDecorations(),
	}
	_ = s.parsers.Add("application/json", jsonParser)
	rt.top = s
	return s
}

// Top returns the top-level instance of s's tree.
func (s *Instance) Top() *Instance { return s.root.top }

// Parent returns the scope s was created in, nil for the top-level one.
func (s *Instance) Parent() *Instance { return s.parent }

func (s *Instance) Log() *zap.Logger { return s.root.log }

// Use appends net/http middleware to the runner every request goes through,
// whichever scope it is called on.
func (s *Instance) Use(mw ...func(http.Handler) http.Handler) {
	s.root.mw.Use(mw...)
}

// AddHook appends fn to the scope's phase sequence. See Hooks.Add for the
// signature each phase wants.
func (s *Instance) AddHook(phase Phase, fn any) error {
	if s.root.serving.Load() {
		return &RegistrationError{Op: "addHook", Err: ErrAlreadyListening}
	}
	if err := s.hooks.Add(phase, fn); err != nil {
		return &RegistrationError{Op: "addHook", Err: err}
	}
	return nil
}

func (s *Instance) AddContentTypeParser(mimeType string, fn Parser) error {
	if s.root.serving.Load() {
		return &RegistrationError{Op: "addContentTypeParser", Err: ErrAlreadyListening}
	}
	if err := s.parsers.Add(mimeType, fn); err != nil {
		return &RegistrationError{Op: "addContentTypeParser", Err: err}
	}
	return nil
}

func (s *Instance) HasContentTypeParser(mimeType string) bool {
	return s.parsers.Has(mimeType)
}

// HookCounts is a read-only view of one scope's hook registry. Hooks are
// added through AddHook.
type HookCounts struct{ h *Hooks }

// Len reports how many hooks the phase holds.
func (v HookCounts) Len(phase Phase) int { return v.h.Len(phase) }

// Hooks exposes the scope's registry for introspection.
func (s *Instance) Hooks() HookCounts { return HookCounts{s.hooks} }
