package core

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joeydtaylor/steeze-fast/pkg/codec"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestParsersAddHas(t *testing.T) {
	p := NewParsers()
	mustNil(t, p.Add(" Text/Plain ", func(*http.Request, io.Reader) (any, error) { return "ok", nil }))
	if !p.Has("text/plain") || !p.Has("text/plain; charset=utf-8") {
		t.Fatalf("expected text/plain to be registered")
	}
	if p.Has("text/html") {
		t.Fatalf("expected text/html to be missing")
	}
	if err := p.Add("text/html", nil); !errors.Is(err, ErrMissingParser) {
		t.Fatalf("expected ErrMissingParser, got %v", err)
	}
}

func TestTopLevelHasJSONParser(t *testing.T) {
	s := New()
	if !s.HasContentTypeParser("application/json") {
		t.Fatalf("expected application/json parser on a new instance")
	}
	if err := s.AddContentTypeParser("", jsonParser); err == nil {
		t.Fatalf("expected empty content type to fail")
	}
}

func post(body, ct string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if ct != "" {
		r.Header.Set("Content-Type", ct)
	}
	return r
}

func TestDecodeBody(t *testing.T) {
	p := NewParsers()
	mustNil(t, p.Add("application/json", jsonParser))

	v, err := decodeBody(p, post(`{"a":1}`, "application/json; charset=utf-8"), 1<<10)
	if err != nil {
		t.Fatalf("expected decoded body, got %v", err)
	}
	if m, ok := v.(map[string]any); !ok || m["a"] != float64(1) {
		t.Fatalf("expected map with a=1, got %#v", v)
	}

	if v, err := decodeBody(p, post("", ""), 1<<10); v != nil || err != nil {
		t.Fatalf("expected empty body to decode to nil, got %v %v", v, err)
	}

	get := httptest.NewRequest(http.MethodGet, "/", strings.NewReader("ignored"))
	if v, err := decodeBody(p, get, 1<<10); v != nil || err != nil {
		t.Fatalf("expected GET body to be skipped, got %v %v", v, err)
	}
}

func TestDecodeBodyFailures(t *testing.T) {
	p := NewParsers()
	mustNil(t, p.Add("application/json", jsonParser))

	cases := map[string]struct {
		r      *http.Request
		status int
	}{
		"no parser":  {post("x=1", "application/x-www-form-urlencoded"), http.StatusUnsupportedMediaType},
		"no type":    {post("x=1", ""), http.StatusUnsupportedMediaType},
		"bad json":   {post("{", "application/json"), http.StatusBadRequest},
		"over limit": {post(strings.Repeat("a", 20), "application/json"), http.StatusRequestEntityTooLarge},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeBody(p, tc.r, 10)
			var pe *PipelineError
			if !errors.As(err, &pe) || pe.Status != tc.status {
				t.Fatalf("expected status %d, got %v", tc.status, err)
			}
		})
	}

	_, err := decodeBody(p, post("x", "text/plain"), 10)
	if !errors.Is(err, ErrUnsupportedMediaType) {
		t.Fatalf("expected ErrUnsupportedMediaType, got %v", err)
	}
}

func TestCodecParserProtobuf(t *testing.T) {
	raw, err := proto.Marshal(wrapperspb.String("hi"))
	mustNil(t, err)

	fn := CodecParser(codec.Protobuf, func() any { return &wrapperspb.StringValue{} })
	v, err := fn(nil, strings.NewReader(string(raw)))
	mustNil(t, err)
	if sv, ok := v.(*wrapperspb.StringValue); !ok || sv.GetValue() != "hi" {
		t.Fatalf("expected StringValue hi, got %#v", v)
	}
}
