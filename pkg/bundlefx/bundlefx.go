// bundlefx/bundlefx.go
package bundlefx

import (
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/metrics"
	"go.uber.org/fx"
)

// Module provides the auth, logger and metrics middleware to fx. It needs a
// config.Settings in the graph; serverfx supplies one.
var Module = fx.Options(
	auth.Module,
	logger.Module,
	fx.Provide(fx.Annotate(metrics.ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
)
