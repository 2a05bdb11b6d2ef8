package inject

import (
	"strings"
	"testing"
)

func TestMapLocale(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"zh-cn", "zh-CN"},
		{"en-us", "en-US"},
		{"ja-jp", "ja-JP"},
		{"fr-fr", "en-US"},
	}
	for _, tt := range tests {
		if got := MapLocale(tt.in); got != tt.want {
			t.Errorf("MapLocale(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIntoHTMLInsertsAfterHeadOpen(t *testing.T) {
	doc := []byte(`<!DOCTYPE html><html><head data-x="1"><title>CUI</title></head><body></body></html>`)
	out := IntoHTML(doc, "<script>INJECTED</script>")

	s := string(out)
	headClose := strings.Index(s, `data-x="1">`) + len(`data-x="1">`)
	injected := strings.Index(s, "INJECTED")
	if injected < 0 {
		t.Fatalf("injection not found in output: %s", s)
	}
	if injected < headClose {
		t.Fatalf("injection landed before head's closing '>': %s", s)
	}
	if strings.Count(s, "INJECTED") != 1 {
		t.Fatalf("expected exactly one injected block, got %d", strings.Count(s, "INJECTED"))
	}
}

func TestIntoHTMLNoHeadPrepends(t *testing.T) {
	doc := []byte(`<body>hello</body>`)
	out := IntoHTML(doc, "<script>INJECTED</script>")

	if !strings.HasPrefix(string(out), "<script>INJECTED</script>") {
		t.Fatalf("expected scripts prepended, got %s", out)
	}
}

func TestBuildScriptsContainsPreferencesAndPolyfill(t *testing.T) {
	scripts, err := BuildScripts("en-US", "dark")
	if err != nil {
		t.Fatalf("BuildScripts: %v", err)
	}
	if !strings.Contains(scripts, "umi_locale") {
		t.Fatalf("expected locale write, got %s", scripts)
	}
	if !strings.Contains(scripts, "fullscreenElement") {
		t.Fatalf("expected fullscreen polyfill, got %s", scripts)
	}
	if strings.Count(scripts, "<script") != 2 {
		t.Fatalf("expected exactly two script blocks, got %d", strings.Count(scripts, "<script"))
	}
}

func TestBuildScriptsEmptyThemeRemoves(t *testing.T) {
	scripts, err := BuildScripts("", "")
	if err != nil {
		t.Fatalf("BuildScripts: %v", err)
	}
	if !strings.Contains(scripts, "removeItem('__theme')") {
		t.Fatalf("expected theme removal for empty theme, got %s", scripts)
	}
}
