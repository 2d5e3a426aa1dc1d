package core

import (
	"context"
	"net/http"
	"slices"

	manifest "github.com/joeydtaylor/steeze-fast/pkg/manifest"
	"github.com/joeydtaylor/steeze-fast/pkg/middleware/auth"
)

// guardHook is the preHandler hook placed in the scope of a guarded manifest
// route. It fails the request with 401 or 403 through next.
func guardHook(a *auth.Middleware, g manifest.Guard) HandlerHook {
	return func(req *Request, _ *Reply, next Next) {
		next(checkGuard(req.Context(), a, g))
	}
}

func checkGuard(ctx context.Context, a *auth.Middleware, g manifest.Guard) error {
	unauthorized := NewHTTPError(http.StatusUnauthorized, "")
	forbidden := NewHTTPError(http.StatusForbidden, "")

	// If no auth middleware wired, only allow when route doesn't require auth
	if a == nil {
		if g.Guarded() {
			return unauthorized
		}
		return nil
	}

	if g.RequireAuth && !a.IsAuthenticated(ctx) {
		return unauthorized
	}
	if len(g.Users) > 0 {
		u := a.GetUser(ctx).Username
		if u == "" {
			return unauthorized
		}
		if slices.Contains(g.Users, u) {
			return nil
		}
		return forbidden
	}
	if len(g.Roles) > 0 {
		u := a.GetUser(ctx)
		if u.Username == "" {
			return unauthorized
		}
		if slices.ContainsFunc(g.Roles, func(r string) bool { return a.IsRole(ctx, auth.Role{Name: r}) }) {
			return nil
		}
		return forbidden
	}
	return nil
}
