package core

import (
	"fmt"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	manifest "github.com/joeydtaylor/steeze-fast/pkg/manifest"
	hmetrics "github.com/joeydtaylor/steeze-fast/pkg/middleware/metrics"
)

// BuildServer installs the standard middleware stack, the /metrics route and
// the manifest routes on s.
func BuildServer(s *Instance, cfg manifest.Config, d BuildDeps) error {
	s.Use(chimd.RequestID, chimd.Heartbeat("/ping"))
	if d.Auth != nil {
		s.Use(d.Auth.Middleware())
	}
	if d.LogMW != nil {
		d.LogMW.LabelRoutes(MatchedRoute)
		s.Use(d.LogMW.Middleware(d.Auth))
	}
	// label by route pattern so ids in paths do not become series
	hmetrics.SetRouteLabeler(MatchedRoute)
	s.Use(hmetrics.Collect(d.Auth))

	if d.Metrics != nil {
		if err := s.Get("/metrics", WrapHandler(d.Metrics)); err != nil {
			return err
		}
	}
	if len(cfg.Routes) > 0 {
		s.Register(ManifestPlugin(cfg, d), WithName("manifest"))
	}
	return nil
}

// ManifestPlugin registers every manifest route. Guarded routes and routes
// whose body type uses a non-JSON codec get a scope of their own, holding the
// guard hook or the extra content-type parser.
func ManifestPlugin(cfg manifest.Config, d BuildDeps) Plugin {
	return func(s *Instance, _ any) error {
		for _, rt := range cfg.Routes {
			opts, err := manifestRoute(rt)
			if err != nil {
				return fmt.Errorf("%s %s: %w", rt.Method, rt.Path, err)
			}

			var parser *bodyParser
			if rt.BodyType != "" {
				b, _ := manifest.LookupType(rt.BodyType)
				if ct := b.Codec.ContentType(); normalizeMediaType(ct) != "application/json" {
					parser = &bodyParser{mime: ct, fn: CodecParser(b.Codec, b.Zero)}
				}
			}

			if !rt.Guard.Guarded() && parser == nil {
				if err := s.Route(opts); err != nil {
					return err
				}
				continue
			}

			guard := rt.Guard
			s.Register(func(scope *Instance, _ any) error {
				if guard.Guarded() {
					if err := scope.AddHook(PreHandler, guardHook(d.Auth, guard)); err != nil {
						return err
					}
				}
				if parser != nil {
					if err := scope.AddContentTypeParser(parser.mime, parser.fn); err != nil {
						return err
					}
				}
				return scope.Route(opts)
			}, WithName("manifest "+rt.Method+" "+rt.Path))
		}
		return nil
	}
}

type bodyParser struct {
	mime string
	fn   Parser
}

func manifestRoute(rt manifest.Route) (RouteOptions, error) {
	opts := RouteOptions{Method: rt.Method, URL: rt.Path}
	if rt.Policy.TimeoutMS > 0 {
		opts.Timeout = time.Duration(rt.Policy.TimeoutMS) * time.Millisecond
	}

	switch rt.Handler.Type {
	case manifest.HandlerInproc:
		h, ok := LookupHandler(rt.Handler.Name)
		if !ok {
			return opts, fmt.Errorf("handler %q not registered", rt.Handler.Name)
		}
		opts.Handler = h
	case manifest.HandlerStatic:
		opts.Handler = staticHandler(*rt.Handler.Static)
	default:
		return opts, fmt.Errorf("unknown handler type %q", rt.Handler.Type)
	}

	switch {
	case rt.BodyType != "":
		sc, err := TypeSchema(rt.BodyType, rt.Query...)
		if err != nil {
			return opts, err
		}
		opts.Schema = sc
	case len(rt.Query) > 0:
		opts.Schema = &Schema{Query: rt.Query}
	}
	return opts, nil
}

func staticHandler(s manifest.StaticSpec) Handler {
	status := s.Status
	if status == 0 {
		status = http.StatusOK
	}
	return func(_ *Request, rep *Reply) {
		if s.ContentType != "" {
			rep.Header("Content-Type", s.ContentType)
		}
		_ = rep.Code(status).Send(s.Body)
	}
}
