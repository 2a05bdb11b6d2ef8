// Package proxy is the root-level facade: the control surface a host
// application (the native window shell, auth command surface, startup
// config loader — all external collaborators per spec.md §1) uses to start,
// reconfigure, and stop the embedded reverse-proxy engine, plus the
// cookie-management surface it exposes alongside it.
//
// The engine itself lives under internal/: this file only wires the pieces
// together (state, jar, static server, desktop API, bridge page, upstream
// pipeline, router) behind the small set of calls spec.md §6 names.
package proxy

import (
	"context"
	"fmt"

	"github.com/YaoApp/cui-desktop-proxy/internal/desktop"
	"github.com/YaoApp/cui-desktop-proxy/internal/grace"
	"github.com/YaoApp/cui-desktop-proxy/internal/jar"
	"github.com/YaoApp/cui-desktop-proxy/internal/logging"
	"github.com/YaoApp/cui-desktop-proxy/internal/router"
	"github.com/YaoApp/cui-desktop-proxy/internal/state"
	"github.com/YaoApp/cui-desktop-proxy/internal/static"
	"github.com/YaoApp/cui-desktop-proxy/internal/upstream"
)

type (
	// AppHandle is the host app's capability object, re-exported from
	// internal/desktop so callers never need to import it directly.
	AppHandle = desktop.AppHandle
	// Window is the subset of a native window the desktop API needs.
	Window = desktop.Window
	// Snapshot is an immutable copy of the proxy state, per spec.md §3.
	Snapshot = state.Snapshot
	// StoreResult is returned from StoreCookie, per spec.md §3.
	StoreResult = jar.StoreResult
)

// Proxy is the process-wide engine instance: one Cookie Jar, one Proxy
// State, and — once Start succeeds — one bound listener. The zero value is
// not usable; construct with New.
type Proxy struct {
	state *state.State
	jar   *jar.Jar
	log   *logging.Logger

	desktopSrv *desktop.Server

	listener *router.Listener
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New constructs a Proxy with default state (port 15099, empty upstream,
// auth mode "openapi") and an empty cookie jar. Call Start to bind the
// listener.
func New() *Proxy {
	return &Proxy{
		state:      state.New(),
		jar:        jar.New(),
		log:        logging.New("proxy"),
		desktopSrv: desktop.New(),
	}
}

// Start resolves cuiDir as the static bundle root, assembles the dispatch
// table, and binds the loopback listener on port (0 picks an ephemeral
// port). It returns the bound port. The caller is responsible for running
// Serve (typically in its own goroutine) to actually accept connections.
func (p *Proxy) Start(cuiDir string, port int) (int, error) {
	staticSrv, err := static.New(cuiDir, p.jar)
	if err != nil {
		return 0, fmt.Errorf("proxy: failed to initialize static server: %w", err)
	}

	upstreamPipeline := upstream.New(p.state, p.jar)
	handler := router.New(p.desktopSrv, staticSrv, upstreamPipeline)

	ln, err := router.Bind(port, handler)
	if err != nil {
		return 0, fmt.Errorf("proxy: failed to bind listener: %w", err)
	}

	p.listener = ln
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.state.SetPort(ln.Port())
	p.state.SetRunning(true)

	p.log.Info("listener bound", "port", ln.Port(), "cui_dir", cuiDir)

	return ln.Port(), nil
}

// Serve blocks, accepting connections on the listener bound by Start, until
// Stop is called or an OS interrupt/terminate signal arrives. It returns
// http.ErrServerClosed on a clean shutdown — callers that don't
// care about the distinction can ignore a non-nil return after calling Stop.
func (p *Proxy) Serve() error {
	if p.listener == nil {
		return fmt.Errorf("proxy: Serve called before Start")
	}
	defer close(p.doneCh)

	return grace.Orchestrate(grace.OrchestrateOptions{
		StopCh: p.stopCh,
		StartupCallback: func() error {
			return p.listener.Serve()
		},
		ShutdownCallback: func(ctx context.Context) error {
			return p.stop(ctx)
		},
	})
}

// Stop signals Serve's shutdown path and blocks until the listener has
// stopped accepting new connections and in-flight requests have drained (or
// the bounded grace period has elapsed).
func (p *Proxy) Stop() error {
	if p.listener == nil {
		return nil
	}
	close(p.stopCh)
	<-p.doneCh
	return nil
}

func (p *Proxy) stop(ctx context.Context) error {
	p.state.SetRunning(false)
	return p.listener.Shutdown(ctx)
}

// UpdateState overwrites the upstream base URL, bearer token, auth mode, and
// dashboard path, per spec.md §4.B.
func (p *Proxy) UpdateState(serverURL, token, authMode, dashboard string) {
	p.state.Update(serverURL, token, authMode, dashboard)
}

// SetRunning sets the running flag directly, for callers that track the
// listener's lifecycle themselves.
func (p *Proxy) SetRunning(running bool) {
	p.state.SetRunning(running)
}

// GetSnapshot returns a consistent clone of the current proxy state.
func (p *Proxy) GetSnapshot() Snapshot {
	return p.state.Snapshot()
}

// SetAppHandle registers the host app's capability object with the desktop
// API. Write-once: a handle already set is never replaced.
func (p *Proxy) SetAppHandle(h AppHandle) {
	p.desktopSrv.SetAppHandle(h)
}

// SetCookiePersistencePath configures where the cookie jar loads from and
// saves to. Passing "" disables persistence.
func (p *Proxy) SetCookiePersistencePath(path string) {
	p.jar.SetPersistencePath(path)
}

// LoadCookies loads the jar from its configured persistence path, if any,
// purging expired entries immediately. A missing file is a silent no-op; a
// read or parse failure is logged at WARN and otherwise a no-op.
func (p *Proxy) LoadCookies() {
	p.jar.LoadFromDisk()
}

// ClearCookies empties the jar and persists the now-empty state.
func (p *Proxy) ClearCookies() {
	p.jar.Clear()
}

// StoreCookie parses and applies one Set-Cookie value, per spec.md §4.A.
func (p *Proxy) StoreCookie(raw string) StoreResult {
	return p.jar.StoreCookie(raw)
}

// CookieCount returns the number of entries currently stored in the jar.
func (p *Proxy) CookieCount() int {
	return p.jar.Count()
}

// GetCookiesHeader returns jar-only cookies applicable to requestPath, with
// no browser-supplied cookies merged in. Legacy reader for callers that
// predate GetMergedCookies and only ever had the jar side to read from;
// kept exported per spec.md §4.A.
func (p *Proxy) GetCookiesHeader(requestPath string) string {
	return p.jar.GetCookiesHeader(requestPath)
}
