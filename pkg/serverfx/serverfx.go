package serverfx

import (
	"context"
	"net/http"
	"os"

	"github.com/joeydtaylor/steeze-fast/pkg/bundlefx"
	"github.com/joeydtaylor/steeze-fast/pkg/config"
	"github.com/joeydtaylor/steeze-fast/pkg/core"
	"github.com/joeydtaylor/steeze-fast/pkg/manifest"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ---------- Options ----------

type Config struct {
	SettingsEnv     string // e.g., STEEZE_SETTINGS
	DefaultSettings string // e.g., "steeze.toml"
	Plugins         []core.Plugin
}

type Option func(*Config)

func WithSettingsEnv(k string) Option        { return func(c *Config) { c.SettingsEnv = k } }
func WithDefaultSettings(path string) Option { return func(c *Config) { c.DefaultSettings = path } }

// WithPlugins registers app plugins on the top-level instance next to the manifest.
func WithPlugins(p ...core.Plugin) Option {
	return func(c *Config) { c.Plugins = append(c.Plugins, p...) }
}

func defaultConfig() Config {
	return Config{
		SettingsEnv:     "STEEZE_SETTINGS",
		DefaultSettings: "steeze.toml",
	}
}

// Module returns a complete Fx option set; add app-specific fx.Invoke(...) alongside.
func Module(opts ...Option) fx.Option {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return fx.Options(
		// Config into DI
		fx.Supply(cfg),
		fx.Provide(provideSettings),
		// Core middleware
		bundlefx.Module,
		// Instance
		fx.Provide(provideInstance),
		// Lifecycle
		fx.Invoke(registerHooks),
	)
}

func provideSettings(cfg Config) (config.Settings, error) {
	return config.Load(envOr(cfg.SettingsEnv, cfg.DefaultSettings))
}

// ---------- Instance ----------

type instanceDeps struct {
	fx.In

	Cfg      Config
	Settings config.Settings
	Log      *zap.Logger
	AuthMW   *auth.Middleware
	LogMW    *logger.Middleware
	Metrics  http.Handler `name:"metrics"`
}

func provideInstance(d instanceDeps) (*core.Instance, error) {
	metrics.AddMetricsSkipPaths(d.Settings.MetricsSkipPaths...)
	logger.AddBodyLogPaths(d.Settings.LogBodyPaths...)

	s := core.New(
		core.WithLogger(d.Log),
		core.WithBodyLimit(d.Settings.BodyLimit),
		core.WithHookTimeout(d.Settings.HookTimeout),
		core.WithTLS(d.Settings.TLSCert, d.Settings.TLSKey),
		core.WithPhaseObserver(func(p core.Phase, err error) {
			metrics.ObserveHook(string(p), err != nil)
		}),
	)

	var man manifest.Config
	if path := d.Settings.Manifest; path != "" && fileExists(path) {
		var err error
		if man, err = core.LoadConfig(path); err != nil {
			d.Log.Error("manifest load failed", zap.Error(err), zap.String("path", path))
			return nil, err
		}
	} else if path != "" {
		d.Log.Warn("manifest not found, serving without manifest routes", zap.String("path", path))
	}

	err := core.BuildServer(s, man, core.BuildDeps{
		Auth:    d.AuthMW,
		LogMW:   d.LogMW,
		Metrics: d.Metrics,
	})
	if err != nil {
		return nil, err
	}
	for _, p := range d.Cfg.Plugins {
		s.Register(p)
	}
	return s, nil
}

// ---------- Lifecycle ----------

func registerHooks(lc fx.Lifecycle, s *core.Instance, st config.Settings, zl *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			zl.Info("server starting",
				zap.String("service", st.Service),
				zap.String("addr", st.ListenAddress),
				zap.Bool("tls", st.TLSCert != ""),
			)
			return s.Listen(ctx, st.ListenAddress)
		},
		OnStop: func(ctx context.Context) error {
			zl.Info("server stopping", zap.String("service", st.Service))
			return s.Close(ctx)
		},
	})
}

// ---------- tiny helpers ----------

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
