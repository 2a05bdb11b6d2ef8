package static

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YaoApp/cui-desktop-proxy/internal/jar"
)

func newTestBundle(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "index.html"), `<!DOCTYPE html><html><head><title>CUI</title></head><body>app</body></html>`)
	mustWrite(t, filepath.Join(dir, "app.js"), `console.log("hi");`)
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(dir, "sub", "page.html"), `<html><head></head><body>sub</body></html>`)
	mustWrite(t, filepath.Join(dir, ".env"), `SECRET=1`)
	return dir
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func newTestServer(t *testing.T, dir string) *Server {
	t.Helper()
	s, err := New(dir, jar.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestServeIndexHTML(t *testing.T) {
	s := newTestServer(t, newTestBundle(t))

	req := httptest.NewRequest(http.MethodGet, PathPrefix, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("content-type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Fatalf("cache-control = %q, want no-cache for HTML", cc)
	}
	if !strings.Contains(rec.Body.String(), "fullscreenElement") {
		t.Fatalf("expected injected script in HTML body")
	}
}

func TestServeStaticAssetCacheControl(t *testing.T) {
	s := newTestServer(t, newTestBundle(t))

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"app.js", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/javascript; charset=utf-8" {
		t.Fatalf("content-type = %q", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc != "public, max-age=3600" {
		t.Fatalf("cache-control = %q", cc)
	}
}

func TestSPAFallbackForUnknownPath(t *testing.T) {
	s := newTestServer(t, newTestBundle(t))

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"some/client/route", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (SPA fallback)", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fullscreenElement") {
		t.Fatalf("expected index.html fallback with injection")
	}
}

func TestDirectoryFallsBackToIndex(t *testing.T) {
	s := newTestServer(t, newTestBundle(t))

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"sub/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), ">sub<") {
		t.Fatalf("expected root index.html, not sub/page.html")
	}
}

func TestPathTraversalForbidden(t *testing.T) {
	s := newTestServer(t, newTestBundle(t))

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"../../../../etc/passwd", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestHiddenFileForbidden(t *testing.T) {
	s := newTestServer(t, newTestBundle(t))

	req := httptest.NewRequest(http.MethodGet, PathPrefix+".env", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestNotBuiltPageWhenNoBundle(t *testing.T) {
	dir := t.TempDir() // empty, no index.html
	s := newTestServer(t, dir)

	req := httptest.NewRequest(http.MethodGet, PathPrefix, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "CUI not built") {
		t.Fatalf("expected not-built page, got %s", rec.Body.String())
	}
}

func TestMimeFor(t *testing.T) {
	tests := map[string]string{
		"a.html": "text/html; charset=utf-8",
		"a.js":   "application/javascript; charset=utf-8",
		"a.css":  "text/css; charset=utf-8",
		"a.json": "application/json; charset=utf-8",
		"a.png":  "image/png",
		"a.wasm": "application/wasm",
		"a.weird": "application/octet-stream",
	}
	for path, want := range tests {
		if got := mimeFor(path); got != want {
			t.Errorf("mimeFor(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLocaleCookieInjectedOnHTML(t *testing.T) {
	j := jar.New()
	j.StoreCookie("__locale=zh-cn; Path=/")
	j.StoreCookie("__theme=dark; Path=/")

	dir := newTestBundle(t)
	s, err := New(dir, j)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	req := httptest.NewRequest(http.MethodGet, PathPrefix, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var sawLocale, sawTheme bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "__locale" && c.Value == "zh-CN" {
			sawLocale = true
		}
		if c.Name == "__theme" && c.Value == "dark" {
			sawTheme = true
		}
	}
	if !sawLocale {
		t.Fatalf("expected __locale=zh-CN Set-Cookie")
	}
	if !sawTheme {
		t.Fatalf("expected __theme=dark Set-Cookie")
	}
	if !strings.Contains(rec.Body.String(), `"zh-CN"`) {
		t.Fatalf("expected mapped locale in injected script")
	}
}
