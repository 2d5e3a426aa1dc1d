package core

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/joeydtaylor/steeze-fast/pkg/codec"
)

// Parser decodes a request body of one content type.
type Parser func(r *http.Request, body io.Reader) (any, error)

// Parsers maps media types to body parsers; each scope owns its own copy.
type Parsers struct {
	m map[string]Parser
}

func NewParsers() *Parsers { return &Parsers{m: map[string]Parser{}} }

// Add registers fn for mimeType, replacing any previous parser.
func (p *Parsers) Add(mimeType string, fn Parser) error {
	key := normalizeMediaType(mimeType)
	if key == "" {
		return fmt.Errorf("%w: empty content type", ErrMissingParser)
	}
	if fn == nil {
		return fmt.Errorf("%w for %q", ErrMissingParser, mimeType)
	}
	p.m[key] = fn
	return nil
}

func (p *Parsers) Has(mimeType string) bool {
	_, ok := p.m[normalizeMediaType(mimeType)]
	return ok
}

func (p *Parsers) get(mimeType string) (Parser, bool) {
	fn, ok := p.m[normalizeMediaType(mimeType)]
	return fn, ok
}

func (p *Parsers) clone() *Parsers {
	m := make(map[string]Parser, len(p.m))
	for k, v := range p.m {
		m[k] = v
	}
	return &Parsers{m: m}
}

// CodecParser decodes bodies with c into the value returned by zero (a pointer),
// and yields that pointer as the request body.
func CodecParser(c codec.Codec, zero func() any) Parser {
	return func(_ *http.Request, body io.Reader) (any, error) {
		raw, err := io.ReadAll(body)
		if err != nil {
			return nil, err
		}
		dst := zero()
		if err := c.Unmarshal(raw, dst); err != nil {
			return nil, err
		}
		return dst, nil
	}
}

func jsonParser(_ *http.Request, body io.Reader) (any, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	var v any
	if err := codec.JSON.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func normalizeMediaType(s string) string {
	s = strings.TrimSpace(s)
	if mt, _, err := mime.ParseMediaType(s); err == nil {
		return mt
	}
	return strings.ToLower(s)
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodOptions, http.MethodDelete:
		return true
	}
	return false
}

// decodeBody reads at most limit bytes and hands them to the parser of the
// request's content type. Empty bodies decode to nil without a parser.
func decodeBody(p *Parsers, r *http.Request, limit int64) (any, error) {
	if !hasBody(r.Method) || r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, &PipelineError{Phase: "body", Status: http.StatusBadRequest, Err: err}
	}
	if int64(len(raw)) > limit {
		return nil, &PipelineError{Phase: "body", Status: http.StatusRequestEntityTooLarge, Err: errors.New("request body is too large")}
	}
	if len(raw) == 0 {
		return nil, nil
	}

	ct := r.Header.Get("Content-Type")
	fn, ok := p.get(ct)
	if !ok {
		return nil, &PipelineError{Phase: "body", Status: http.StatusUnsupportedMediaType, Err: fmt.Errorf("%w: %q", ErrUnsupportedMediaType, ct)}
	}
	v, err := fn(r, bytes.NewReader(raw))
	if err != nil {
		return nil, &PipelineError{Phase: "body", Status: statusOf(err, http.StatusBadRequest), Err: err}
	}
	return v, nil
}
