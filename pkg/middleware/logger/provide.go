package logger

import (
	"github.com/joeydtaylor/steeze-fast/pkg/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Module provides the access log middleware and the system logger.
var Module = fx.Options(
	fx.Provide(ProvideLoggerMiddleware),
	fx.Provide(ProvideLogger),
)

func ProvideLoggerMiddleware(s config.Settings) *Middleware {
	return NewMiddleware(NewLogIn(s.LogDir, "http-access.log", ParseLevel(s.LogLevel)))
}

func ProvideLogger(s config.Settings) *zap.Logger {
	return NewLogIn(s.LogDir, "system.log", ParseLevel(s.LogLevel)).With(zap.String("service", s.Service))
}
