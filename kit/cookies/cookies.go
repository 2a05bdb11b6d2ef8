// Package cookies builds outgoing http.Cookie values and classifies cookie
// names/flags the way RFC 6265bis's "Secure" prefixes do. Unlike a signed or
// encrypted cookie store, every cookie built here carries a plain value —
// this module never needs to authenticate its own cookies, only to relay
// and mint ones for a same-origin browser session.
package cookies

import (
	"net/http"
	"strings"
	"time"
)

type SameSite int

const (
	SameSiteDefaultMode SameSite = iota
	SameSiteLaxMode
	SameSiteStrictMode
	SameSiteNoneMode
)

func (s SameSite) toStd() http.SameSite {
	switch s {
	case SameSiteLaxMode:
		return http.SameSiteLaxMode
	case SameSiteStrictMode:
		return http.SameSiteStrictMode
	case SameSiteNoneMode:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// Spec describes a cookie to build. Name and Value are used as-is: callers
// that need a "__Secure-" or "__Host-" prefixed name include it in Name
// directly, since HasSecurePrefix below needs to inspect the real wire name.
type Spec struct {
	Name     string
	Value    string
	Path     string
	Domain   string
	TTL      time.Duration // zero means session cookie (no Max-Age)
	Secure   bool
	HttpOnly bool
	SameSite SameSite
}

// Build returns an *http.Cookie for the given spec. Path defaults to "/".
func Build(spec Spec) *http.Cookie {
	path := spec.Path
	if path == "" {
		path = "/"
	}

	c := &http.Cookie{
		Name:     spec.Name,
		Value:    spec.Value,
		Path:     path,
		Domain:   spec.Domain,
		Secure:   spec.Secure,
		HttpOnly: spec.HttpOnly,
		SameSite: spec.SameSite.toStd(),
	}

	if spec.TTL > 0 {
		c.MaxAge = int(spec.TTL.Seconds())
		c.Expires = time.Now().Add(spec.TTL)
	}

	return c
}

// HasSecurePrefix reports whether name carries one of the two name prefixes
// that browsers treat as a binding promise about cookie attributes
// ("__Secure-" requires Secure; "__Host-" requires Secure, no Domain, and
// Path "/"). Matching is case-sensitive per the cookie spec.
func HasSecurePrefix(name string) bool {
	return strings.HasPrefix(name, "__Secure-") || strings.HasPrefix(name, "__Host-")
}
