// Package jar implements the cookie-jar state machine: parsing upstream
// Set-Cookie values, classifying them secure vs. forwardable, merging jar
// state into outgoing browser cookie headers, and persisting to disk.
package jar

import (
	"encoding/json"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/YaoApp/cui-desktop-proxy/internal/logging"
	"github.com/YaoApp/cui-desktop-proxy/kit/cookies"
)

// Entry is one stored cookie. ExpiresAt is unix seconds; 0 means a session
// cookie with no expiry. seq records insertion order (not persisted: order
// is reconstructed from file position on load) so GetCookiesHeader can
// honor its documented insertion-order guarantee despite the entries map
// having no iteration order of its own.
type Entry struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Path      string `json:"path"`
	ExpiresAt int64  `json:"expires_at"`
	HTTPOnly  bool   `json:"http_only"`
	seq       int64
}

func (e Entry) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && e.ExpiresAt <= now.Unix()
}

// StoreResult is returned from StoreCookie so the caller (the upstream
// pipeline) can decide whether to also echo the cookie to the browser.
type StoreResult struct {
	IsSecure         bool
	BrowserCookie    string // empty when HasBrowserCookie is false
	HasBrowserCookie bool
}

// Jar is the process-wide cookie store. The zero value is not usable; use
// New.
type Jar struct {
	mu      sync.RWMutex
	entries map[string]Entry
	path    string
	log     *logging.Logger
	nextSeq int64
}

// New returns an empty jar.
func New() *Jar {
	return &Jar{
		entries: make(map[string]Entry),
		log:     logging.New("jar"),
	}
}

// SetPersistencePath configures where the jar is saved/loaded. Passing ""
// disables persistence.
func (j *Jar) SetPersistencePath(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.path = path
}

// LoadFromDisk reads the configured persistence path, if any, replacing the
// in-memory jar with its contents and immediately purging expired entries.
// Read failures are logged at WARN and otherwise ignored.
func (j *Jar) LoadFromDisk() {
	j.mu.Lock()
	path := j.path
	j.mu.Unlock()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			j.log.Warn("failed to read cookie jar file", "path", path, "error", err)
		}
		return
	}

	var loaded []Entry
	if err := json.Unmarshal(data, &loaded); err != nil {
		j.log.Warn("failed to parse cookie jar file", "path", path, "error", err)
		return
	}

	now := time.Now()
	j.mu.Lock()
	j.entries = make(map[string]Entry, len(loaded))
	j.nextSeq = 0
	for _, e := range loaded {
		if !e.expired(now) {
			e.seq = j.nextSeq
			j.nextSeq++
			j.entries[e.Name] = e
		}
	}
	j.mu.Unlock()
}

// saveToDisk must be called with no lock held; it takes its own
// snapshot under a shared lock, then writes outside any lock.
func (j *Jar) saveToDisk() {
	j.mu.RLock()
	path := j.path
	snapshot := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		snapshot = append(snapshot, e)
	}
	j.mu.RUnlock()

	if path == "" {
		return
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		j.log.Warn("failed to encode cookie jar", "error", err)
		return
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		j.log.Warn("failed to write cookie jar file", "path", path, "error", err)
	}
}

// Clear removes all entries and persists the now-empty jar.
func (j *Jar) Clear() {
	j.mu.Lock()
	j.entries = make(map[string]Entry)
	j.mu.Unlock()
	j.saveToDisk()
}

// Count returns the number of stored entries (expired or not).
func (j *Jar) Count() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

func (j *Jar) purgeExpiredLocked(now time.Time) {
	for name, e := range j.entries {
		if e.expired(now) {
			delete(j.entries, name)
		}
	}
}

// purgeExpired takes the write lock to drop expired entries in place.
func (j *Jar) purgeExpired() {
	j.mu.Lock()
	j.purgeExpiredLocked(time.Now())
	j.mu.Unlock()
}

type cookieAttr struct {
	key   string // lowercased
	raw   string // original "Key" or "Key=Value" token
	value string
	has   bool
}

// StoreCookie parses one Set-Cookie value per RFC 6265's attribute grammar
// and applies it to the jar.
func (j *Jar) StoreCookie(raw string) StoreResult {
	tokens := strings.Split(raw, ";")
	if len(tokens) == 0 {
		return StoreResult{}
	}

	first := strings.TrimSpace(tokens[0])
	eq := strings.IndexByte(first, '=')
	if eq <= 0 {
		return StoreResult{}
	}
	name := first[:eq]
	value := first[eq+1:]
	if name == "" {
		return StoreResult{}
	}

	path := "/"
	var expiresAt int64
	httpOnly := false
	hasSecureFlag := false
	hasSameSiteNone := false

	attrs := make([]cookieAttr, 0, len(tokens)-1)

	for _, tok := range tokens[1:] {
		trimmed := strings.TrimSpace(tok)
		if trimmed == "" {
			continue
		}
		var key, val string
		has := false
		if idx := strings.IndexByte(trimmed, '='); idx >= 0 {
			key = trimmed[:idx]
			val = trimmed[idx+1:]
			has = true
		} else {
			key = trimmed
		}
		lower := strings.ToLower(key)

		switch lower {
		case "path":
			path = val
		case "max-age":
			n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
			if err == nil {
				if n > 0 {
					expiresAt = time.Now().Unix() + n
				} else {
					j.deleteAndPersist(name)
					return StoreResult{}
				}
			}
		case "httponly":
			httpOnly = true
		case "secure":
			hasSecureFlag = true
		case "samesite":
			if strings.EqualFold(strings.TrimSpace(val), "none") {
				hasSameSiteNone = true
			}
		}

		attrs = append(attrs, cookieAttr{key: lower, raw: trimmed, value: val, has: has})
	}

	isSecure := hasSecureFlag || cookies.HasSecurePrefix(name)

	entry := Entry{Name: name, Value: value, Path: path, ExpiresAt: expiresAt, HTTPOnly: httpOnly}
	j.mu.Lock()
	if existing, ok := j.entries[name]; ok {
		entry.seq = existing.seq // re-setting an existing name keeps its original position
	} else {
		entry.seq = j.nextSeq
		j.nextSeq++
	}
	j.entries[name] = entry
	j.mu.Unlock()
	j.saveToDisk()

	if isSecure {
		return StoreResult{IsSecure: true}
	}

	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('=')
	b.WriteString(value)
	appendedSameSite := false
	for _, a := range attrs {
		switch a.key {
		case "secure", "domain":
			continue
		case "samesite":
			if hasSameSiteNone {
				b.WriteString("; SameSite=Lax")
				appendedSameSite = true
			}
			continue
		}
		b.WriteString("; ")
		b.WriteString(a.raw)
	}
	if hasSameSiteNone && !appendedSameSite {
		b.WriteString("; SameSite=Lax")
	}

	return StoreResult{IsSecure: false, BrowserCookie: b.String(), HasBrowserCookie: true}
}

func (j *Jar) deleteAndPersist(name string) {
	j.mu.Lock()
	delete(j.entries, name)
	j.mu.Unlock()
	j.saveToDisk()
}

// GetMergedCookies purges expired entries, parses browserCookieHeader into
// a name->value map, overlays every jar entry whose path is a literal
// prefix of requestPath (jar wins on conflict), and serializes the result.
func (j *Jar) GetMergedCookies(browserCookieHeader, requestPath string) string {
	j.purgeExpired()

	merged := parseCookieHeader(browserCookieHeader)

	j.mu.RLock()
	for _, e := range j.entries {
		if strings.HasPrefix(requestPath, e.Path) {
			merged[e.Name] = e.Value
		}
	}
	j.mu.RUnlock()

	return serializeCookieMap(merged)
}

// Value returns the current value of a single named entry, if present and
// unexpired. Used by the static server to read preference cookies like
// __locale and __theme directly by name.
func (j *Jar) Value(name string) (string, bool) {
	j.purgeExpired()

	j.mu.RLock()
	defer j.mu.RUnlock()
	e, ok := j.entries[name]
	if !ok {
		return "", false
	}
	return e.Value, true
}

// GetCookiesHeader returns jar-only cookies applicable to requestPath,
// preserving insertion order, kept for compatibility with callers that
// don't have a browser header to merge against.
func (j *Jar) GetCookiesHeader(requestPath string) string {
	j.purgeExpired()

	j.mu.RLock()
	matches := make([]Entry, 0, len(j.entries))
	for _, e := range j.entries {
		if strings.HasPrefix(requestPath, e.Path) {
			matches = append(matches, e)
		}
	}
	j.mu.RUnlock()

	sort.Slice(matches, func(i, k int) bool { return matches[i].seq < matches[k].seq })

	pairs := make([]string, len(matches))
	for i, e := range matches {
		pairs[i] = e.Name + "=" + e.Value
	}
	return strings.Join(pairs, "; ")
}

func parseCookieHeader(header string) map[string]string {
	out := make(map[string]string)
	if header == "" {
		return out
	}
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		out[part[:eq]] = part[eq+1:]
	}
	return out
}

func serializeCookieMap(m map[string]string) string {
	pairs := make([]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, "; ")
}
