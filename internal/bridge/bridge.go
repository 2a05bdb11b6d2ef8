// Package bridge serves the synthetic HTML page that bootstraps a user's
// locale/theme preferences into the loopback origin's storage before
// handing off navigation to the CUI shell.
package bridge

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/YaoApp/cui-desktop-proxy/kit/cookies"
)

// Path is the endpoint this package serves.
const Path = "/__yao_bridge"

const yearTTL = 365 * 24 * time.Hour

// ServeHTTP parses locale/theme off the query string by a plain &-split
// (no URL-decoding beyond what arrives on the wire), mirroring the
// upstream's own simple parser rather than net/url's query semantics.
func ServeHTTP(w http.ResponseWriter, r *http.Request) {
	locale, theme := parseQuery(r.URL.RawQuery)

	localeCookie := mapLocaleForCookie(locale)

	http.SetCookie(w, cookies.Build(cookies.Spec{
		Name: "__locale", Value: localeCookie, Path: "/",
		TTL: yearTTL, SameSite: cookies.SameSiteLaxMode,
	}))

	if theme != "" {
		http.SetCookie(w, cookies.Build(cookies.Spec{
			Name: "__theme", Value: theme, Path: "/",
			TTL: yearTTL, SameSite: cookies.SameSiteLaxMode,
		}))
	} else {
		c := cookies.Build(cookies.Spec{Name: "__theme", Value: "", Path: "/", SameSite: cookies.SameSiteLaxMode})
		c.MaxAge = -1 // net/http: MaxAge<0 serializes as "Max-Age=0", deleting the cookie
		http.SetCookie(w, c)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write([]byte(renderPage(locale, theme)))
}

// parseQuery implements a deliberately naive "a=b&c=d" split: no percent
// decoding, no repeated-key handling beyond last-write-wins.
func parseQuery(raw string) (locale, theme string) {
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		eq := strings.IndexByte(pair, '=')
		if eq < 0 {
			continue
		}
		switch pair[:eq] {
		case "locale":
			locale = pair[eq+1:]
		case "theme":
			theme = pair[eq+1:]
		}
	}
	return locale, theme
}

// mapLocaleForCookie maps CUI-facing locale tags back to the lowercase
// form the jar and static server expect, passing through anything else
// unchanged — intentionally asymmetric with the static server's own
// locale mapping (see inject.MapLocale).
func mapLocaleForCookie(locale string) string {
	switch locale {
	case "zh-CN":
		return "zh-cn"
	case "en-US":
		return "en-us"
	default:
		return locale
	}
}

func renderPage(locale, theme string) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"></head><body><script>")
	b.WriteString("(function(){")
	if locale != "" {
		b.WriteString("try{localStorage.setItem('umi_locale',")
		b.WriteString(strconv.Quote(locale))
		b.WriteString(");}catch(e){}")
	}
	if theme != "" {
		b.WriteString("try{localStorage.setItem('__theme',")
		b.WriteString(strconv.Quote(theme))
		b.WriteString(");localStorage.setItem('xgen:xgen_theme',")
		b.WriteString(strconv.Quote(theme))
		b.WriteString(");}catch(e){}")
	}
	b.WriteString("location.replace('/__yao_admin_root/');")
	b.WriteString("})();")
	b.WriteString("</script></body></html>")
	return b.String()
}
