package auth

import "net/http"

// devUser reads the user from X-Dev-* headers. Only honored with DevBypass.
func devUser(r *http.Request) (User, bool) {
	name := r.Header.Get("X-Dev-User")
	if name == "" {
		return User{}, false
	}
	return User{
		Username:             name,
		AuthenticationSource: AuthenticationSource{Provider: r.Header.Get("X-Dev-Provider")},
		Role:                 Role{Name: r.Header.Get("X-Dev-Role")},
	}, true
}
