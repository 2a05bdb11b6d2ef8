// Package state holds the single process-wide ProxyState record: the
// mutable configuration the upstream pipeline and router consult on every
// request. It is a singleton-by-construction type (the caller owns the one
// instance, usually embedded in the top-level facade) guarded by a
// readers-writer lock, matching the jar's locking discipline.
package state

import (
	"strings"
	"sync"
)

// Snapshot is an immutable copy of ProxyState's fields, safe to read
// without holding any lock.
type Snapshot struct {
	Running   bool
	Port      int
	ServerURL string
	Token     string
	AuthMode  string
	Dashboard string
}

// State is the process-wide proxy configuration record.
type State struct {
	mu sync.RWMutex

	running   bool
	port      int
	serverURL string
	token     string
	authMode  string
	dashboard string
}

// New returns a State initialized with the defaults from the data model:
// port 15099, empty upstream, auth mode "openapi".
func New() *State {
	return &State{
		port:     15099,
		authMode: "openapi",
	}
}

// Snapshot returns a consistent clone of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Running:   s.running,
		Port:      s.port,
		ServerURL: s.serverURL,
		Token:     s.token,
		AuthMode:  s.authMode,
		Dashboard: s.dashboard,
	}
}

// Update overwrites server URL, token, auth mode, and dashboard path.
// serverURL is stored without a trailing slash; dashboard is normalized per
// NormalizeDashboard before storing.
func (s *State) Update(serverURL, token, authMode, dashboard string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverURL = strings.TrimSuffix(serverURL, "/")
	s.token = token
	s.authMode = authMode
	s.dashboard = NormalizeDashboard(dashboard)
}

// SetRunning sets the running flag.
func (s *State) SetRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
}

// SetPort sets the bound port, called once the listener has bound.
func (s *State) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = port
}

// ServerURL returns just the upstream base URL, the hot path the upstream
// pipeline consults on every request.
func (s *State) ServerURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverURL
}

// Token returns the configured bearer token.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Port returns the configured/bound port.
func (s *State) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// NormalizeDashboard trims whitespace, strips a trailing slash, and ensures
// a leading slash, leaving an empty string empty. It is idempotent:
// NormalizeDashboard(NormalizeDashboard(x)) == NormalizeDashboard(x).
func NormalizeDashboard(path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	for len(trimmed) > 1 && strings.HasSuffix(trimmed, "/") {
		trimmed = trimmed[:len(trimmed)-1]
	}
	if !strings.HasPrefix(trimmed, "/") {
		trimmed = "/" + trimmed
	}
	return trimmed
}
