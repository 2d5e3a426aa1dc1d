package auth

import (
	"crypto/rsa"
	"sync"
	"time"
)

type Middleware struct {
	adminRole string
	devBypass bool

	// Assertion verification
	assertCookieName string
	assertIssuer     string
	assertAudience   string
	assertLeeway     time.Duration

	// guarded by mu
	mu        sync.RWMutex
	assertKey *rsa.PublicKey
}

// Config is the explicit form of what ProvideAuthentication reads from env.
type Config struct {
	AdminRole    string
	DevBypass    bool
	CookieName   string
	Issuer       string
	Audience     string
	Leeway       time.Duration
	PublicKeyPEM []byte
}

// New builds a Middleware from c. An empty PublicKeyPEM disables assertion checks.
func New(c Config) (*Middleware, error) {
	if c.CookieName == "" {
		c.CookieName = "assert"
	}
	m := &Middleware{
		adminRole:        c.AdminRole,
		devBypass:        c.DevBypass,
		assertCookieName: c.CookieName,
		assertIssuer:     c.Issuer,
		assertAudience:   c.Audience,
		assertLeeway:     c.Leeway,
	}
	if len(c.PublicKeyPEM) > 0 {
		if err := m.SetKeyPEM(c.PublicKeyPEM); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Middleware) getKey() *rsa.PublicKey {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.assertKey
}

func (m *Middleware) setKey(k *rsa.PublicKey) {
	m.mu.Lock()
	m.assertKey = k
	m.mu.Unlock()
}
