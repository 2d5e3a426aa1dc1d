package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.ListenAddress != ":4000" {
		t.Fatalf("expected default listen address, got %q", s.ListenAddress)
	}
	if s.BodyLimit != 1<<20 {
		t.Fatalf("expected 1MiB body limit, got %d", s.BodyLimit)
	}
	if s.HookTimeout != 30*time.Second {
		t.Fatalf("expected a 30s hook timeout, got %s", s.HookTimeout)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steeze.toml")
	content := `
service = "orders"
listen_address = "127.0.0.1:9000"
body_limit = 2048
hook_timeout = "250ms"
log_level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.Service != "orders" || s.ListenAddress != "127.0.0.1:9000" {
		t.Fatalf("unexpected settings %+v", s)
	}
	if s.BodyLimit != 2048 {
		t.Fatalf("expected body limit 2048, got %d", s.BodyLimit)
	}
	if s.HookTimeout != 250*time.Millisecond {
		t.Fatalf("expected 250ms, got %s", s.HookTimeout)
	}
	if s.LogLevel != "debug" {
		t.Fatalf("expected debug, got %q", s.LogLevel)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steeze.toml")
	if err := os.WriteFile(path, []byte(`listen_address = "127.0.0.1:9000"`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STEEZE_LISTEN_ADDRESS", "127.0.0.1:9100")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if s.ListenAddress != "127.0.0.1:9100" {
		t.Fatalf("expected env override, got %q", s.ListenAddress)
	}
}

func TestValidateRejectsHalfTLS(t *testing.T) {
	s := Settings{ListenAddress: ":1", BodyLimit: 1, TLSCert: "cert.pem"}
	if err := s.Validate(); err == nil {
		t.Fatalf("expected tls validation error")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("listen_address = "), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadPathLists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steeze.toml")
	if err := os.WriteFile(path, []byte(`log_body_paths = ["/orders", "/users"]`), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("STEEZE_METRICS_SKIP_PATHS", "/healthz,/ready")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(s.LogBodyPaths) != 2 || s.LogBodyPaths[1] != "/users" {
		t.Fatalf("expected body log paths from file, got %v", s.LogBodyPaths)
	}
	if len(s.MetricsSkipPaths) != 2 || s.MetricsSkipPaths[0] != "/healthz" {
		t.Fatalf("expected skip paths from env, got %v", s.MetricsSkipPaths)
	}
}
