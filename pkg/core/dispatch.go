package core

import (
	"context"
	"fmt"
	"net/http"

	"github.com/joeydtaylor/steeze-fast/pkg/middleware/logger"
	"go.uber.org/zap"
)

// ServeHTTP runs one request through the pipeline: onRequest hooks, the
// middleware runner, preRouting hooks, route match, body decoding and
// validation, preHandler hooks, then the route handler. Any phase error ends
// the request with a single error reply.
func (s *Instance) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt := s.root

	ctx := r.Context()
	if rt.opts.HookTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.opts.HookTimeout)
		defer cancel()
	}
	r, _ = withLocals(r.WithContext(ctx))

	id := requestID(r)
	// chi's RequestID middleware picks the header up, so both ids agree
	r.Header.Set(RequestIDHeader, id)
	w.Header().Set(RequestIDHeader, id)
	log := rt.requestLogger(r, id)

	err := rt.top.hooks.RunRequest(ctx, OnRequest, w, r)
	if rt.observe(OnRequest, err) != nil {
		rt.fail(w, r, log, "onRequest", err)
		return
	}

	rt.mw.Run(w, r, func(w http.ResponseWriter, r *http.Request, err error) {
		if err != nil {
			rt.fail(w, r, log, "middleware", err)
			return
		}
		rt.dispatch(w, r, id, log)
	})
}

func (rt *root) dispatch(w http.ResponseWriter, r *http.Request, id string, log *zap.Logger) {
	ctx := r.Context()

	err := rt.top.hooks.RunRequest(ctx, PreRouting, w, r)
	if rt.observe(PreRouting, err) != nil {
		rt.fail(w, r, log, "preRouting", err)
		return
	}

	route, params, ok := rt.routes.match(r.Method, r.URL.Path)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	LocalsFrom(r).setRoute(route.URL)

	req := &Request{
		ID:          id,
		Params:      params,
		Raw:         r,
		Query:       r.URL.Query(),
		Log:         log,
		decorations: route.requestDecorate,
	}
	rep := newReply(w, r, log, rt.opts.Serializer, route.replyDecorate)
	fail := func(err error) { _ = rep.Send(err) }

	if err := route.hooks.RunScoped(ctx, w, r); err != nil {
		fail(pipelineError("scopedHooks", err))
		return
	}

	body, err := decodeBody(route.parsers, r, rt.opts.BodyLimit)
	if err != nil {
		fail(err)
		return
	}
	req.Body = body

	for _, v := range route.validators {
		if err := v(req); err != nil {
			fail(&PipelineError{Phase: "validation", Status: statusOf(err, http.StatusBadRequest), Err: err})
			return
		}
	}

	err = route.hooks.RunPreHandler(ctx, req, rep)
	if rt.observe(PreHandler, err) != nil {
		fail(pipelineError("preHandler", err))
		return
	}
	if rep.Sent() {
		<-rep.done
		return
	}

	rt.handle(ctx, route, req, rep)
}

// handle calls the route handler and waits until its reply went out or the
// handler context ended, in which case the request gets a 503.
func (rt *root) handle(ctx context.Context, route *Route, req *Request, rep *Reply) {
	hctx := ctx
	if route.Timeout > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, route.Timeout)
		defer cancel()
	}
	req.Raw = req.Raw.WithContext(hctx)

	func() {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				_ = rep.Send(&PipelineError{Phase: "handler", Status: http.StatusInternalServerError, Err: fmt.Errorf("handler panic: %v", rec)})
			}
		}()
		route.Handler(req, rep)
	}()

	select {
	case <-rep.done:
	case <-hctx.Done():
		err := rep.Send(&PipelineError{
			Phase:  "handler",
			Status: http.StatusServiceUnavailable,
			Err:    fmt.Errorf("%w: %v", ErrHandlerTimeout, hctx.Err()),
		})
		if err == ErrReplySent {
			<-rep.done
		}
	}
}

func (rt *root) fail(w http.ResponseWriter, r *http.Request, log *zap.Logger, phase string, err error) {
	_ = newReply(w, r, log, rt.opts.Serializer, nil).Send(pipelineError(phase, err))
}

func (rt *root) observe(phase Phase, err error) error {
	if rt.opts.PhaseObserver != nil {
		rt.opts.PhaseObserver(phase, err)
	}
	return err
}

// requestLogger never takes the request down with it.
func (rt *root) requestLogger(r *http.Request, id string) (l *zap.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			l = rt.log
		}
	}()
	return logger.ForRequest(rt.log, r, id)
}
