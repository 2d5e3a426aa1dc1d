package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-fast/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/logger"
)

// BuildDeps are the collaborators BuildServer installs. Any of them may be nil.
type BuildDeps struct {
	Auth    *auth.Middleware
	LogMW   *logger.Middleware
	Metrics http.Handler
}
