package auth

import "context"

type Role struct {
	Name string `json:"name"`
}

type AuthenticationSource struct {
	Provider string `json:"provider"`
}

// User is who a request runs as. The zero User is anonymous.
type User struct {
	Username             string               `json:"username"`
	AuthenticationSource AuthenticationSource `json:"authenticationSource"`
	Role                 Role                 `json:"role"`
}

type contextKey struct{ name string }

var userCtxKey = &contextKey{"user"}

// WithUser stores u on ctx the way the middleware does.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userCtxKey, u)
}

func userFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userCtxKey).(User)
	return u, ok && u.Username != ""
}

func (m *Middleware) admin(u User) bool {
	return m.adminRole != "" && u.Role.Name == m.adminRole
}

func (m *Middleware) GetUser(ctx context.Context) User {
	u, _ := userFrom(ctx)
	return u
}

func (m *Middleware) IsAuthenticated(ctx context.Context) bool {
	_, ok := userFrom(ctx)
	return ok
}

func (m *Middleware) IsAdmin(ctx context.Context) bool {
	u, ok := userFrom(ctx)
	return ok && m.admin(u)
}

// IsRole matches the role by name. Admins hold every role.
func (m *Middleware) IsRole(ctx context.Context, role Role) bool {
	u, ok := userFrom(ctx)
	return ok && (u.Role.Name == role.Name || m.admin(u))
}

// IsUser matches the username. Admins pass as anyone.
func (m *Middleware) IsUser(ctx context.Context, username string) bool {
	u, ok := userFrom(ctx)
	return ok && (u.Username == username || m.admin(u))
}
