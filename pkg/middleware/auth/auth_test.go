package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newKeyPair(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}
	return key, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

// serve runs the middleware and returns the user seen downstream.
func serve(m *Middleware, r *http.Request) User {
	var seen User
	h := m.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = m.GetUser(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), r)
	return seen
}

func TestBearerAssertionAuthenticates(t *testing.T) {
	key, pub := newKeyPair(t)
	m, err := New(Config{PublicKeyPEM: pub, Issuer: "steeze", AdminRole: "admin"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok := sign(t, key, jwt.MapClaims{
		"iss":  "steeze",
		"sub":  "alice",
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Minute).Unix(),
	})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	u := serve(m, r)
	if u.Username != "alice" {
		t.Fatalf("expected alice, got %+v", u)
	}
	ctx := WithUser(context.Background(), u)
	if !m.IsAdmin(ctx) || !m.IsAuthenticated(ctx) {
		t.Fatalf("expected authenticated admin")
	}
}

func TestCookieAssertionAuthenticates(t *testing.T) {
	key, pub := newKeyPair(t)
	m, err := New(Config{PublicKeyPEM: pub})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok := sign(t, key, jwt.MapClaims{"uid": "bob", "roles": []string{"ops"}, "exp": time.Now().Add(time.Minute).Unix()})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(&http.Cookie{Name: "assert", Value: tok})
	u := serve(m, r)
	if u.Username != "bob" || u.Role.Name != "ops" {
		t.Fatalf("expected bob/ops, got %+v", u)
	}
}

func TestWrongIssuerFallsThrough(t *testing.T) {
	key, pub := newKeyPair(t)
	m, err := New(Config{PublicKeyPEM: pub, Issuer: "steeze"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	tok := sign(t, key, jwt.MapClaims{"iss": "other", "sub": "mallory", "exp": time.Now().Add(time.Minute).Unix()})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer "+tok)
	if u := serve(m, r); u.Username != "" {
		t.Fatalf("expected anonymous request, got %+v", u)
	}
}

func TestDevBypassHeaders(t *testing.T) {
	m, err := New(Config{DevBypass: true})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Dev-User", "dev")
	r.Header.Set("X-Dev-Role", "tester")
	u := serve(m, r)
	if u.Username != "dev" || u.Role.Name != "tester" {
		t.Fatalf("expected dev/tester, got %+v", u)
	}
}

func TestNewRejectsGarbageKey(t *testing.T) {
	if _, err := New(Config{PublicKeyPEM: []byte("not a key")}); err == nil {
		t.Fatalf("expected key parse error")
	}
}

func TestUserHelpers(t *testing.T) {
	m, err := New(Config{AdminRole: "admin"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	anon := context.Background()
	if m.IsAuthenticated(anon) || m.IsUser(anon, "") || m.IsRole(anon, Role{}) {
		t.Fatalf("expected an anonymous context to match nothing")
	}

	ctx := WithUser(anon, User{Username: "ada", Role: Role{Name: "editor"}})
	if !m.IsUser(ctx, "ada") || m.IsUser(ctx, "bob") {
		t.Fatalf("expected IsUser to match only ada")
	}
	if !m.IsRole(ctx, Role{Name: "editor"}) || m.IsRole(ctx, Role{Name: "ops"}) || m.IsAdmin(ctx) {
		t.Fatalf("expected editor only")
	}

	root := WithUser(anon, User{Username: "root", Role: Role{Name: "admin"}})
	if !m.IsRole(root, Role{Name: "ops"}) || !m.IsUser(root, "bob") {
		t.Fatalf("expected the admin role to pass role and user checks")
	}
}
