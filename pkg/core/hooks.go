package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
)

// Phase names one stage of the request lifecycle.
type Phase string

const (
	OnRequest  Phase = "onRequest"
	PreRouting Phase = "preRouting"
	PreHandler Phase = "preHandler"
	OnClose    Phase = "onClose"
)

// Next is the continuation handed to every hook. Call it once: nil to
// proceed, non-nil to end the phase with that error.
type Next func(err error)

// RequestHook runs in the onRequest and preRouting phases, before a route is known.
type RequestHook func(w http.ResponseWriter, r *http.Request, next Next)

// HandlerHook runs in the preHandler phase with the route's façades.
type HandlerHook func(req *Request, rep *Reply, next Next)

// CloseHook runs when the top-level instance closes.
type CloseHook func(s *Instance, next Next)

// Hooks is one scope's ordered hook sequences. Scopes never share a Hooks
// value unless registered with SkipOverride.
type Hooks struct {
	onRequest  []RequestHook
	preRouting []RequestHook
	preHandler []HandlerHook
	onClose    []CloseHook

	// top marks the top-level registry. For scope copies, inherited counts the
	// leading onRequest/preRouting hooks that came from the top-level registry.
	top       bool
	inherited [2]int
}

func NewHooks() *Hooks { return &Hooks{} }

func newTopHooks() *Hooks { return &Hooks{top: true} }

// Add appends fn to the phase's sequence.
func (h *Hooks) Add(phase Phase, fn any) error {
	switch phase {
	case OnRequest, PreRouting:
		hook, ok := asRequestHook(fn)
		if !ok {
			return fmt.Errorf("%w: %s wants func(http.ResponseWriter, *http.Request, Next), got %T", ErrInvalidHook, phase, fn)
		}
		if phase == OnRequest {
			h.onRequest = append(h.onRequest, hook)
		} else {
			h.preRouting = append(h.preRouting, hook)
		}
	case PreHandler:
		hook, ok := asHandlerHook(fn)
		if !ok {
			return fmt.Errorf("%w: %s wants func(*Request, *Reply, Next), got %T", ErrInvalidHook, phase, fn)
		}
		h.preHandler = append(h.preHandler, hook)
	case OnClose:
		hook, ok := asCloseHook(fn)
		if !ok {
			return fmt.Errorf("%w: %s wants func(*Instance, Next), got %T", ErrInvalidHook, phase, fn)
		}
		h.onClose = append(h.onClose, hook)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPhase, phase)
	}
	return nil
}

// Len reports how many hooks the phase holds; unknown phases hold none.
func (h *Hooks) Len(phase Phase) int {
	switch phase {
	case OnRequest:
		return len(h.onRequest)
	case PreRouting:
		return len(h.preRouting)
	case PreHandler:
		return len(h.preHandler)
	case OnClose:
		return len(h.onClose)
	}
	return 0
}

func (h *Hooks) clone() *Hooks {
	c := &Hooks{
		onRequest:  append([]RequestHook(nil), h.onRequest...),
		preRouting: append([]RequestHook(nil), h.preRouting...),
		preHandler: append([]HandlerHook(nil), h.preHandler...),
		onClose:    append([]CloseHook(nil), h.onClose...),
		inherited:  h.inherited,
	}
	if h.top {
		c.inherited = [2]int{len(h.onRequest), len(h.preRouting)}
	}
	return c
}

// scoped returns the request-phase hooks added below the top-level registry.
// The top-level ones already ran before routing.
func (h *Hooks) scoped(phase Phase) []RequestHook {
	if h.top {
		return nil
	}
	switch phase {
	case OnRequest:
		return h.onRequest[min(h.inherited[0], len(h.onRequest)):]
	case PreRouting:
		return h.preRouting[min(h.inherited[1], len(h.preRouting)):]
	}
	return nil
}

// RunRequest runs the onRequest or preRouting sequence.
func (h *Hooks) RunRequest(ctx context.Context, phase Phase, w http.ResponseWriter, r *http.Request) error {
	var seq []RequestHook
	switch phase {
	case OnRequest:
		seq = h.onRequest
	case PreRouting:
		seq = h.preRouting
	default:
		return fmt.Errorf("%w: %q is not a request phase", ErrInvalidPhase, phase)
	}
	return runSeries(ctx, seq, func(fn RequestHook, next Next) { fn(w, r, next) })
}

// RunScoped runs the onRequest then preRouting hooks that an encapsulated
// scope added on top of the top-level ones.
func (h *Hooks) RunScoped(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	for _, phase := range []Phase{OnRequest, PreRouting} {
		err := runSeries(ctx, h.scoped(phase), func(fn RequestHook, next Next) { fn(w, r, next) })
		if err != nil {
			return err
		}
	}
	return nil
}

// RunPreHandler runs the preHandler sequence.
func (h *Hooks) RunPreHandler(ctx context.Context, req *Request, rep *Reply) error {
	return runSeries(ctx, h.preHandler, func(fn HandlerHook, next Next) { fn(req, rep, next) })
}

// RunClose runs the onClose sequence against s.
func (h *Hooks) RunClose(ctx context.Context, s *Instance) error {
	return runSeries(ctx, h.onClose, func(fn CloseHook, next Next) { fn(s, next) })
}

// runSeries invokes each hook only after the previous one called next,
// stopping at the first error. A hook may call next from another goroutine.
func runSeries[F any](ctx context.Context, seq []F, call func(F, Next)) error {
	for _, fn := range seq {
		done := make(chan error, 1)
		var once sync.Once
		next := func(err error) {
			once.Do(func() { done <- err })
		}

		if err := invoke(call, fn, next); err != nil {
			return err
		}

		select {
		case err := <-done:
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func invoke[F any](call func(F, Next), fn F, next Next) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("hook panic: %v", rec)
		}
	}()
	call(fn, next)
	return nil
}

func asRequestHook(fn any) (RequestHook, bool) {
	switch f := fn.(type) {
	case RequestHook:
		return f, f != nil
	case func(http.ResponseWriter, *http.Request, Next):
		return f, f != nil
	}
	return nil, false
}

func asHandlerHook(fn any) (HandlerHook, bool) {
	switch f := fn.(type) {
	case HandlerHook:
		return f, f != nil
	case func(*Request, *Reply, Next):
		return f, f != nil
	}
	return nil, false
}

func asCloseHook(fn any) (CloseHook, bool) {
	switch f := fn.(type) {
	case CloseHook:
		return f, f != nil
	case func(*Instance, Next):
		return f, f != nil
	}
	return nil, false
}
