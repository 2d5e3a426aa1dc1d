package auth

import (
	"cmp"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type assertionClaims struct {
	jwt.RegisteredClaims
	UID   string   `json:"uid"`
	Roles []string `json:"roles"`
	Role  string   `json:"role"`
}

func (c *assertionClaims) role() string {
	if c.Role != "" || len(c.Roles) == 0 {
		return c.Role
	}
	return c.Roles[0]
}

func (m *Middleware) parser() *jwt.Parser {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(m.assertLeeway),
	}
	if m.assertIssuer != "" {
		opts = append(opts, jwt.WithIssuer(m.assertIssuer))
	}
	if m.assertAudience != "" {
		opts = append(opts, jwt.WithAudience(m.assertAudience))
	}
	return jwt.NewParser(opts...)
}

// validateAssertion verifies an RS256 assertion and maps its claims to a User.
func (m *Middleware) validateAssertion(raw string) (User, error) {
	pub := m.getKey()
	if pub == nil {
		return User{}, errors.New("assertion key not configured")
	}

	var claims assertionClaims
	if _, err := m.parser().ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return pub, nil
	}); err != nil {
		return User{}, fmt.Errorf("invalid assertion: %w", err)
	}

	username := cmp.Or(claims.UID, claims.Subject)
	if username == "" {
		return User{}, errors.New("missing uid")
	}
	return User{
		Username:             username,
		AuthenticationSource: AuthenticationSource{Provider: "assert"},
		Role:                 Role{Name: claims.role()},
	}, nil
}
