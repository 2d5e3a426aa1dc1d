// core/types_registry.go
package core

import (
	"fmt"

	"github.com/joeydtaylor/steeze-fast/pkg/codec"
	manifest "github.com/joeydtaylor/steeze-fast/pkg/manifest"
)

// RegisterType binds T to a symbolic name with a codec. The manifest's
// body_type refers to it and each request decodes into a fresh *T.
func RegisterType[T any](name string, c codec.Codec) error {
	return manifest.BindType(manifest.TypeBinding{
		Name:  name,
		Codec: c,
		Zero:  func() any { return new(T) },
	})
}

func MustRegisterType[T any](name string, c codec.Codec) {
	if err := RegisterType[T](name, c); err != nil {
		panic(err)
	}
}

// TypeSchema builds the route schema for a registered body type. JSON types
// get a strict body check; other codecs decode through their own parser.
func TypeSchema(name string, query ...string) (*Schema, error) {
	b, ok := manifest.LookupType(name)
	if !ok {
		return nil, fmt.Errorf("unregistered type %q", name)
	}
	return &Schema{Body: b.Zero(), Query: query}, nil
}
