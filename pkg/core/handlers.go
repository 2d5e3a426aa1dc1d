// core/handlers.go
package core

import (
	"fmt"
	"sync"
)

var (
	handlersMu sync.RWMutex
	handlers   = map[string]Handler{}
)

// RegisterHandler makes a handler available under a name referenced in manifest.toml
func RegisterHandler(name string, h Handler) error {
	if name == "" || h == nil {
		return fmt.Errorf("handler name and function required")
	}
	handlersMu.Lock()
	defer handlersMu.Unlock()
	if _, ok := handlers[name]; ok {
		return fmt.Errorf("handler %q already registered", name)
	}
	handlers[name] = h
	return nil
}

func MustRegisterHandler(name string, h Handler) {
	if err := RegisterHandler(name, h); err != nil {
		panic(err)
	}
}

// LookupHandler retrieves a registered handler by name.
func LookupHandler(name string) (Handler, bool) {
	handlersMu.RLock()
	defer handlersMu.RUnlock()
	h, ok := handlers[name]
	return h, ok
}
