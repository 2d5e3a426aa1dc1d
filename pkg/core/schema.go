package core

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/joeydtaylor/steeze-fast/pkg/codec"
)

// Schema describes what a route accepts. Body is a prototype value (or a
// pointer to one) that the decoded body must fit exactly.
type Schema struct {
	Body  any
	Query []string
}

// SchemaBuilder compiles a route's schema into validators at registration time.
type SchemaBuilder interface {
	Build(opts *RouteOptions) error
}

// SchemaBuilderFunc adapts a func to SchemaBuilder.
type SchemaBuilderFunc func(opts *RouteOptions) error

func (f SchemaBuilderFunc) Build(opts *RouteOptions) error { return f(opts) }

type defaultSchemaBuilder struct{}

// DefaultSchemaBuilder checks required query keys and re-decodes bodies
// strictly into the Body prototype's type.
var DefaultSchemaBuilder SchemaBuilder = defaultSchemaBuilder{}

func (defaultSchemaBuilder) Build(opts *RouteOptions) error {
	s := opts.Schema
	if len(s.Query) > 0 {
		keys := append([]string(nil), s.Query...)
		opts.Validators = append(opts.Validators, func(req *Request) error {
			for _, k := range keys {
				if !req.Query.Has(k) {
					return NewHTTPError(http.StatusBadRequest, fmt.Sprintf("missing query parameter %q", k))
				}
			}
			return nil
		})
	}
	if s.Body != nil {
		t := reflect.TypeOf(s.Body)
		if t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct && t.Kind() != reflect.Map && t.Kind() != reflect.Slice {
			return fmt.Errorf("schema body must be a struct, map or slice, got %s", t)
		}
		opts.Validators = append(opts.Validators, bodyValidator(t, codec.JSONStrict))
	}
	return nil
}

// bodyValidator re-encodes the lenient body and decodes it strictly into a
// fresh value of t, which then replaces Request.Body.
func bodyValidator(t reflect.Type, c codec.Codec) Validator {
	return func(req *Request) error {
		if req.Body == nil {
			return NewHTTPError(http.StatusBadRequest, "body is required")
		}
		if reflect.TypeOf(req.Body) == reflect.PointerTo(t) {
			return nil
		}
		raw, err := c.Marshal(req.Body)
		if err != nil {
			return NewHTTPError(http.StatusBadRequest, err.Error())
		}
		dst := reflect.New(t).Interface()
		if err := c.Unmarshal(raw, dst); err != nil {
			return NewHTTPError(http.StatusBadRequest, err.Error())
		}
		req.Body = dst
		return nil
	}
}
