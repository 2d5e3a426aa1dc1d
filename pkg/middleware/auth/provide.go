package auth

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(ProvideAuthentication),
)

// ProvideAuthentication wires defaults and env config.
// ASSERTION_PUBLIC_KEY holds a PEM key; ASSERTION_PUBLIC_KEY_FILE points at one.
func ProvideAuthentication() (*Middleware, error) {
	leeway := 60 * time.Second
	if v := strings.TrimSpace(os.Getenv("ASSERTION_LEEWAY_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			leeway = time.Duration(n) * time.Second
		}
	}

	pem := []byte(os.Getenv("ASSERTION_PUBLIC_KEY"))
	if p := strings.TrimSpace(os.Getenv("ASSERTION_PUBLIC_KEY_FILE")); p != "" && len(pem) == 0 {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read assertion key: %w", err)
		}
		pem = b
	}

	return New(Config{
		AdminRole:    os.Getenv("ADMIN_ROLE_NAME"),
		DevBypass:    os.Getenv("AUTH_DEV_BYPASS") == "true",
		CookieName:   strings.TrimSpace(os.Getenv("ASSERTION_COOKIE_NAME")),
		Issuer:       strings.TrimSpace(os.Getenv("ASSERTION_ISSUER")),
		Audience:     strings.TrimSpace(os.Getenv("ASSERTION_AUDIENCE")),
		Leeway:       leeway,
		PublicKeyPEM: pem,
	})
}

// SetKeyPEM swaps the RSA key assertions are verified against.
func (m *Middleware) SetKeyPEM(b []byte) error {
	k, err := jwt.ParseRSAPublicKeyFromPEM(b)
	if err != nil {
		return fmt.Errorf("parse assertion key: %w", err)
	}
	m.setKey(k)
	return nil
}
