package core

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Listen loads every queued plugin, binds addr and serves in the background.
// Registration calls fail once it returned nil.
func (s *Instance) Listen(ctx context.Context, addr string) error {
	if err := s.Ready(ctx); err != nil {
		return err
	}

	rt := s.root
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.srv != nil {
		return ErrAlreadyListening
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:      rt.top,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorLog:     zap.NewStdLog(rt.log),
	}
	useTLS := rt.opts.TLSCertFile != "" && rt.opts.TLSKeyFile != ""
	if useTLS {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS13, MaxVersion: tls.VersionTLS13}
	}

	rt.srv, rt.ln = srv, ln
	rt.serveErr = make(chan error, 1)
	rt.serving.Store(true)

	go func() {
		var err error
		if useTLS {
			err = srv.ServeTLS(ln, rt.opts.TLSCertFile, rt.opts.TLSKeyFile)
		} else {
			err = srv.Serve(ln)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.log.Error("server failed", zap.Error(err))
			rt.serveErr <- err
		}
		close(rt.serveErr)
	}()

	rt.log.Info("server listening", zap.String("addr", ln.Addr().String()), zap.Bool("tls", useTLS))
	return nil
}

// Addr is the bound address, nil before Listen.
func (s *Instance) Addr() net.Addr {
	s.root.mu.Lock()
	defer s.root.mu.Unlock()
	if s.root.ln == nil {
		return nil
	}
	return s.root.ln.Addr()
}

// Close runs the top-level onClose hooks in order, then shuts the server down.
// A failing hook leaves the server running and comes back as *CloseError.
func (s *Instance) Close(ctx context.Context) error {
	rt := s.root
	err := rt.top.hooks.RunClose(ctx, rt.top)
	if rt.observe(OnClose, err) != nil {
		return &CloseError{Err: err}
	}

	rt.mu.Lock()
	srv, done := rt.srv, rt.serveErr
	rt.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}
	rt.log.Info("server closed")
	return <-done
}
