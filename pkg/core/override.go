package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"go.uber.org/zap"
)

// Plugin registers routes, hooks, parsers and decorators on the scope it is
// handed. opts is whatever was passed with WithOptions.
type Plugin func(s *Instance, opts any) error

type RegisterOption func(*pendingPlugin)

// WithOptions hands v to the plugin as its opts argument.
func WithOptions(v any) RegisterOption {
	return func(p *pendingPlugin) { p.opts = v }
}

// SkipOverride makes the plugin run against its parent's registries instead
// of private copies, so what it adds is visible to the parent.
func SkipOverride() RegisterOption {
	return func(p *pendingPlugin) { p.skip = true }
}

// WithName names the plugin in boot errors and logs.
func WithName(name string) RegisterOption {
	return func(p *pendingPlugin) {
		if name != "" {
			p.name = name
		}
	}
}

type pendingPlugin struct {
	fn   Plugin
	opts any
	skip bool
	name string
}

// Register queues fn to run at Ready in a child scope of s.
func (s *Instance) Register(fn Plugin, opts ...RegisterOption) *Instance {
	p := pendingPlugin{fn: fn, name: pluginName(fn)}
	for _, o := range opts {
		o(&p)
	}
	s.pending = append(s.pending, p)
	return s
}

// Ready runs every queued plugin of the tree, depth first in registration
// order: whatever a plugin registers on its own scope loads before its next
// sibling. The first failure stops boot and is returned by every later call.
func (s *Instance) Ready(ctx context.Context) error {
	rt := s.root
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.bootErr != nil {
		return rt.bootErr
	}
	if err := rt.top.load(ctx); err != nil {
		rt.bootErr = err
		rt.log.Error("boot failed", zap.Error(err))
		return err
	}
	return nil
}

func (s *Instance) load(ctx context.Context) error {
	for len(s.pending) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		p := s.pending[0]
		s.pending = s.pending[1:]

		if p.fn == nil {
			return fmt.Errorf("plugin %s: %w", p.name, errors.New("missing plugin function"))
		}
		child := s.override(p)
		if err := runPlugin(p, child); err != nil {
			return fmt.Errorf("plugin %s: %w", p.name, err)
		}
		s.root.log.Debug("plugin loaded", zap.String("plugin", p.name))
		if err := child.load(ctx); err != nil {
			return err
		}
	}
	return nil
}

func runPlugin(p pendingPlugin, child *Instance) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("plugin panic: %v", rec)
		}
	}()
	return p.fn(child, p.opts)
}

// override derives the scope a plugin runs in. Registries are copied from s as
// they are now; later changes on either side stay on that side.
func (s *Instance) override(p pendingPlugin) *Instance {
	child := &Instance{root: s.root, parent: s, name: p.name}
	if p.skip {
		child.hooks = s.hooks
		child.parsers = s.parsers
		child.decorations = s.decorations
		child.requestDecorations = s.requestDecorations
		child.replyDecorations = s.replyDecorations
		return child
	}
	child.hooks = s.hooks.clone()
	child.parsers = s.parsers.clone()
	child.decorations = s.decorations.clone()
	child.requestDecorations = s.requestDecorations.clone()
	child.replyDecorations = s.replyDecorations.clone()
	return child
}

func pluginName(fn Plugin) string {
	if fn == nil {
		return "<nil>"
	}
	f := runtime.FuncForPC(reflect.ValueOf(fn).Pointer())
	if f == nil {
		return "anonymous"
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}
