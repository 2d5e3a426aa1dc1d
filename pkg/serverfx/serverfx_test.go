package serverfx

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/joeydtaylor/steeze-fast/pkg/config"
	"github.com/joeydtaylor/steeze-fast/pkg/core"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
)

func init() {
	core.MustRegisterHandler("serverfx_test.hello", func(_ *core.Request, rep *core.Reply) {
		_ = rep.Send("hi from the manifest")
	})
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestModuleServesManifestAndPlugins(t *testing.T) {
	dir := t.TempDir()
	man := writeFile(t, dir, "manifest.toml", `
[[route]]
path = "/hi"
handler = { name = "serverfx_test.hello" }
`)
	settings := writeFile(t, dir, "steeze.toml", `
service = "from-file"
listen_address = "127.0.0.1:0"
manifest = "`+filepath.ToSlash(man)+`"
log_dir = "`+filepath.ToSlash(filepath.Join(dir, "log"))+`"
`)
	t.Setenv("STEEZE_SETTINGS", settings)
	t.Setenv("STEEZE_SERVICE", "fx-test")

	var (
		s  *core.Instance
		st config.Settings
	)
	app := fxtest.New(t,
		Module(WithPlugins(func(p *core.Instance, _ any) error {
			return p.Get("/plugin", func(_ *core.Request, rep *core.Reply) { _ = rep.Send("hi from a plugin") })
		})),
		fx.Populate(&s, &st),
	)
	app.RequireStart()
	defer app.RequireStop()

	if st.Service != "fx-test" {
		t.Fatalf("expected env to override the settings file, got %q", st.Service)
	}

	base := "http://" + s.Addr().String()
	if code, body := get(t, base+"/hi"); code != http.StatusOK || body != "hi from the manifest" {
		t.Fatalf("expected manifest route, got %d %q", code, body)
	}
	if code, body := get(t, base+"/plugin"); code != http.StatusOK || body != "hi from a plugin" {
		t.Fatalf("expected plugin route, got %d %q", code, body)
	}
	if code, _ := get(t, base+"/metrics"); code != http.StatusOK {
		t.Fatalf("expected /metrics 200, got %d", code)
	}
	if code, _ := get(t, base+"/missing"); code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}

func TestModuleWithoutManifest(t *testing.T) {
	dir := t.TempDir()
	settings := writeFile(t, dir, "custom.toml", `
listen_address = "127.0.0.1:0"
manifest = "`+filepath.ToSlash(filepath.Join(dir, "absent.toml"))+`"
log_dir = "`+filepath.ToSlash(filepath.Join(dir, "log"))+`"
`)
	t.Setenv("SERVERFX_TEST_SETTINGS", settings)

	var s *core.Instance
	app := fxtest.New(t,
		Module(WithSettingsEnv("SERVERFX_TEST_SETTINGS")),
		fx.Populate(&s),
	)
	app.RequireStart()
	defer app.RequireStop()

	if code, _ := get(t, "http://"+s.Addr().String()+"/ping"); code != http.StatusOK {
		t.Fatalf("expected heartbeat without a manifest, got %d", code)
	}
}

func TestModuleRejectsBadSettings(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STEEZE_SETTINGS", writeFile(t, dir, "steeze.toml", "body_limit = -1\n"))

	app := fx.New(Module(), fx.NopLogger)
	if app.Err() == nil {
		t.Fatalf("expected invalid settings to fail the app")
	}
}
