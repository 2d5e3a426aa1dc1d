package manifest

import (
	"fmt"
	"sync"

	"github.com/joeydtaylor/steeze-fast/pkg/codec"
)

// HandlerType enumerates the supported handler kinds.
type HandlerType string

const (
	// HandlerInproc routes to a handler registered by name in process.
	HandlerInproc HandlerType = "inproc"
	// HandlerStatic answers with a fixed status and body from the manifest.
	HandlerStatic HandlerType = "static"
)

// TypeBinding ties a symbolic body type name to its codec and zero-value constructor.
type TypeBinding struct {
	Name  string
	Codec codec.Codec
	Zero  func() any
}

var (
	typesMu sync.RWMutex
	types   = map[string]TypeBinding{}
)

// BindType adds b under b.Name. Names bind once.
func BindType(b TypeBinding) error {
	if b.Name == "" || b.Codec == nil || b.Zero == nil {
		return fmt.Errorf("type name, codec and constructor required")
	}
	typesMu.Lock()
	defer typesMu.Unlock()
	if _, ok := types[b.Name]; ok {
		return fmt.Errorf("type %q already registered", b.Name)
	}
	types[b.Name] = b
	return nil
}

// LookupType finds the binding a route's body_type names.
func LookupType(name string) (TypeBinding, bool) {
	typesMu.RLock()
	defer typesMu.RUnlock()
	b, ok := types[name]
	return b, ok
}
