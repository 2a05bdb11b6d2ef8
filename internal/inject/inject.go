// Package inject builds the small head-injection script the static server
// splices into the served CUI shell, and performs the splice itself.
//
// The splice is a substring insertion, not an HTML parse: the target is a
// known SPA shell, and parsing would cost more than it buys. Insertion
// looks for "<head" (case-insensitively) followed by the next ">"; documents
// without a <head> get the scripts prepended instead.
package inject

import (
	"strconv"
	"strings"

	"github.com/YaoApp/cui-desktop-proxy/kit/htmlutil"
)

// MapLocale maps a stored locale value to the locale tag the CUI frontend
// expects, per the closed mapping table: unrecognized non-empty values fall
// back to "en-US", empty stays empty.
func MapLocale(locale string) string {
	switch locale {
	case "":
		return ""
	case "zh-cn":
		return "zh-CN"
	case "en-us":
		return "en-US"
	case "ja-jp":
		return "ja-JP"
	default:
		return "en-US"
	}
}

// BuildScripts renders the two inline <script> blocks described by the
// static server's HTML injection step: one that seeds locale/theme into
// local storage, one that polyfills the Fullscreen API against the desktop
// API endpoint.
func BuildScripts(locale, theme string) (string, error) {
	var b strings.Builder

	if err := htmlutil.RenderInlineScriptToBuilder(preferencesScript(locale, theme), &b); err != nil {
		return "", err
	}
	if err := htmlutil.RenderInlineScriptToBuilder(fullscreenPolyfillScript, &b); err != nil {
		return "", err
	}

	return b.String(), nil
}

func preferencesScript(locale, theme string) string {
	var b strings.Builder
	b.WriteString("(function(){")
	if locale != "" {
		b.WriteString("try{localStorage.setItem('umi_locale',")
		b.WriteString(strconv.Quote(locale))
		b.WriteString(");}catch(e){}")
	}
	if theme != "" {
		b.WriteString("try{localStorage.setItem('__theme',")
		b.WriteString(strconv.Quote(theme))
		b.WriteString(");}catch(e){}")
	} else {
		b.WriteString("try{localStorage.removeItem('__theme');}catch(e){}")
	}
	b.WriteString("})();")
	return b.String()
}

// fullscreenPolyfillScript itself lives in generated_assets.go: it's a
// fixed script with no per-request values, so it's minified once at build
// time by internal/devtool/genassets rather than rebuilt on every request.

// IntoHTML inserts scripts immediately after the opening <head …> tag's
// closing '>'. If the document has no <head>, scripts are prepended.
func IntoHTML(doc []byte, scripts string) []byte {
	idx := indexHeadOpen(doc)
	if idx < 0 {
		out := make([]byte, 0, len(scripts)+len(doc))
		out = append(out, scripts...)
		out = append(out, doc...)
		return out
	}

	out := make([]byte, 0, len(doc)+len(scripts))
	out = append(out, doc[:idx]...)
	out = append(out, scripts...)
	out = append(out, doc[idx:]...)
	return out
}

// indexHeadOpen finds the byte offset just past the '>' that closes the
// opening <head ...> tag, case-insensitively, or -1 if none is found.
func indexHeadOpen(doc []byte) int {
	lower := strings.ToLower(string(doc))
	headIdx := strings.Index(lower, "<head")
	if headIdx < 0 {
		return -1
	}
	closeIdx := strings.IndexByte(lower[headIdx:], '>')
	if closeIdx < 0 {
		return -1
	}
	return headIdx + closeIdx + 1
}
