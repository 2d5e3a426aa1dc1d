package core

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func ready(t *testing.T, s *Instance) {
	t.Helper()
	if err := s.Ready(context.Background()); err != nil {
		t.Fatalf("ready: %v", err)
	}
}

func do(s *Instance, method, target, contentType, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, target, rd)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func hello(_ *Request, rep *Reply) { _ = rep.Send(map[string]string{"hello": "world"}) }

func mustNil(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func flag(key string) RequestHook {
	return func(_ http.ResponseWriter, r *http.Request, next Next) {
		LocalsFrom(r).Set(key, true)
		next(nil)
	}
}

func has(req *Request, key string) bool {
	v, ok := req.Locals().Get(key)
	return ok && v == true
}
