package core

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestScopeIsolation(t *testing.T) {
	s := New()
	noop := func(_ http.ResponseWriter, _ *http.Request, next Next) { next(nil) }
	mustNil(t, s.AddHook(OnRequest, noop))

	var child *Instance
	s.Register(func(c *Instance, _ any) error {
		child = c
		if c.Hooks().Len(OnRequest) != 1 {
			t.Errorf("expected the child to start with the parent's hook")
		}
		if err := c.AddHook(OnRequest, noop); err != nil {
			return err
		}
		return c.AddContentTypeParser("text/plain", func(*http.Request, io.Reader) (any, error) { return nil, nil })
	})
	ready(t, s)

	if s.Hooks().Len(OnRequest) != 1 {
		t.Fatalf("expected the parent to keep 1 onRequest hook, got %d", s.Hooks().Len(OnRequest))
	}
	if s.HasContentTypeParser("text/plain") {
		t.Fatalf("expected child parser to stay in the child")
	}

	mustNil(t, s.AddHook(OnRequest, noop))
	mustNil(t, s.AddContentTypeParser("text/csv", func(*http.Request, io.Reader) (any, error) { return nil, nil }))
	if child.Hooks().Len(OnRequest) != 2 {
		t.Fatalf("expected later parent hooks not to reach the child, got %d", child.Hooks().Len(OnRequest))
	}
	if child.HasContentTypeParser("text/csv") {
		t.Fatalf("expected later parent parser not to reach the child")
	}
	if child.Parent() != s || child.Top() != s {
		t.Fatalf("expected child to point back at the top-level instance")
	}
}

func TestSiblingScopesIsolated(t *testing.T) {
	s := New()
	s.Register(func(c *Instance, _ any) error {
		return c.Decorate("a", 1)
	})
	s.Register(func(c *Instance, _ any) error {
		if c.HasDecorator("a") {
			t.Errorf("expected sibling decorator to be invisible")
		}
		return c.Decorate("a", 2)
	})
	ready(t, s)
	if s.HasDecorator("a") {
		t.Fatalf("expected decorators to stay in their scopes")
	}
}

func TestSkipOverrideShares(t *testing.T) {
	s := New()
	s.Register(func(c *Instance, _ any) error {
		if err := c.Decorate("db", "conn"); err != nil {
			return err
		}
		return c.AddHook(PreHandler, func(_ *Request, _ *Reply, next Next) { next(nil) })
	}, SkipOverride())
	ready(t, s)

	if v, ok := s.Decorator("db"); !ok || v != "conn" {
		t.Fatalf("expected shared decorator, got %v %v", v, ok)
	}
	if s.Hooks().Len(PreHandler) != 1 {
		t.Fatalf("expected shared preHandler hook")
	}
}

func TestDecoratorDuplicate(t *testing.T) {
	s := New()
	mustNil(t, s.Decorate("x", 1))
	if err := s.Decorate("x", 2); !errors.Is(err, ErrDecoratorExists) {
		t.Fatalf("expected ErrDecoratorExists, got %v", err)
	}
	mustNil(t, s.DecorateRequest("x", 1))
	if err := s.DecorateRequest("x", 2); !errors.Is(err, ErrDecoratorExists) {
		t.Fatalf("expected ErrDecoratorExists, got %v", err)
	}
	mustNil(t, s.DecorateReply("x", 1))
	if err := s.DecorateReply("x", 2); !errors.Is(err, ErrDecoratorExists) {
		t.Fatalf("expected ErrDecoratorExists, got %v", err)
	}
}

func TestReadyDepthFirst(t *testing.T) {
	s := New()
	var order []string
	s.Register(func(c *Instance, _ any) error {
		order = append(order, "a")
		c.Register(func(*Instance, any) error {
			order = append(order, "a.1")
			return nil
		})
		return nil
	})
	s.Register(func(_ *Instance, opts any) error {
		order = append(order, opts.(string))
		return nil
	}, WithOptions("b"))
	ready(t, s)

	if got := strings.Join(order, ","); got != "a,a.1,b" {
		t.Fatalf("expected a,a.1,b got %s", got)
	}
	// Ready again is a no-op
	ready(t, s)
	if len(order) != 3 {
		t.Fatalf("expected plugins to load once, got %v", order)
	}
}

func TestReadyStopsOnFirstError(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	loaded := false
	s.Register(func(*Instance, any) error { return boom }, WithName("broken"))
	s.Register(func(*Instance, any) error { loaded = true; return nil })

	err := s.Ready(context.Background())
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "broken") {
		t.Fatalf("expected named boom error, got %v", err)
	}
	if loaded {
		t.Fatalf("expected later plugins not to load")
	}
	if err2 := s.Ready(context.Background()); !errors.Is(err2, boom) {
		t.Fatalf("expected the boot error to stick, got %v", err2)
	}
}

func TestReadyRecoversPluginPanic(t *testing.T) {
	s := New()
	s.Register(func(*Instance, any) error { panic("bad plugin") })
	if err := s.Ready(context.Background()); err == nil || !strings.Contains(err.Error(), "bad plugin") {
		t.Fatalf("expected panic error, got %v", err)
	}
}

func TestReadyNilPlugin(t *testing.T) {
	s := New()
	s.Register(nil)
	if err := s.Ready(context.Background()); err == nil {
		t.Fatalf("expected nil plugin to fail boot")
	}
}
