package core

import "fmt"

// decorations holds named values a scope attaches to itself, its requests or
// its replies.
type decorations struct {
	m map[string]any
}

func newDecorations() *decorations { return &decorations{m: map[string]any{}} }

func (d *decorations) clone() *decorations {
	m := make(map[string]any, len(d.m))
	for k, v := range d.m {
		m[k] = v
	}
	return &decorations{m: m}
}

func (d *decorations) add(name string, v any) error {
	if _, ok := d.m[name]; ok {
		return fmt.Errorf("%w: %q", ErrDecoratorExists, name)
	}
	d.m[name] = v
	return nil
}

func (d *decorations) get(name string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.m[name]
	return v, ok
}

// Decorate attaches a named value to this scope. Scopes registered below it
// start with a copy.
func (s *Instance) Decorate(name string, v any) error {
	if err := s.decorations.add(name, v); err != nil {
		return &RegistrationError{Op: "decorate", Err: err}
	}
	return nil
}

// DecorateRequest attaches a named value to every Request of the routes
// declared in this scope.
func (s *Instance) DecorateRequest(name string, v any) error {
	if err := s.requestDecorations.add(name, v); err != nil {
		return &RegistrationError{Op: "decorateRequest", Err: err}
	}
	return nil
}

// DecorateReply is DecorateRequest for Reply.
func (s *Instance) DecorateReply(name string, v any) error {
	if err := s.replyDecorations.add(name, v); err != nil {
		return &RegistrationError{Op: "decorateReply", Err: err}
	}
	return nil
}

func (s *Instance) HasDecorator(name string) bool {
	_, ok := s.decorations.get(name)
	return ok
}

func (s *Instance) Decorator(name string) (any, bool) {
	return s.decorations.get(name)
}
