// Package router wires the reserved local paths and the upstream fallback
// into a single dispatch table, and binds the loopback listener the whole
// proxy runs behind.
package router

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/YaoApp/cui-desktop-proxy/internal/bridge"
	"github.com/YaoApp/cui-desktop-proxy/internal/desktop"
	"github.com/YaoApp/cui-desktop-proxy/internal/logging"
	"github.com/YaoApp/cui-desktop-proxy/internal/static"
	"github.com/YaoApp/cui-desktop-proxy/internal/upstream"
	"github.com/YaoApp/cui-desktop-proxy/kit/id"
	"github.com/YaoApp/cui-desktop-proxy/kit/middleware/secureheaders"
	"github.com/YaoApp/cui-desktop-proxy/kit/netutil"
)

// New assembles the dispatch table: desktop API, bridge page, static
// bundle, the two housekeeping redirects, and the upstream pipeline as the
// catch-all. chi's radix-tree routing prefers the more specific literal and
// prefix routes over the trailing wildcard, which gives exactly the
// first-match-wins order the dispatch table calls for.
func New(desktopSrv *desktop.Server, staticSrv *static.Server, upstreamPipeline *upstream.Pipeline) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(chimiddleware.Logger)
	r.Use(secureheaders.Middleware)
	r.Use(corsMiddleware)
	r.Use(rebindingGuardMiddleware)

	r.Handle("/__yao_desktop/*", desktopSrv)
	r.Handle(bridge.Path, http.HandlerFunc(bridge.ServeHTTP))
	r.Handle(static.PathPrefix+"*", staticSrv)
	r.Handle("/__yao_admin_root", redirectTo(http.StatusMovedPermanently, "/__yao_admin_root/"))
	r.Handle("/", redirectTo(http.StatusTemporaryRedirect, "/__yao_admin_root/"))
	r.Handle("/*", upstreamPipeline)

	return r
}

func redirectTo(status int, target string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target, status)
	})
}

// corsMiddleware applies a very permissive CORS layer: the proxy's whole
// purpose is to make a loopback origin behave like the upstream's origin,
// so it never needs to restrict who can read its responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Allow-Credentials", "true")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rebindingGuardMiddleware rejects requests whose Host header doesn't name
// the loopback interface. The listener only ever binds 127.0.0.1, but a
// malicious page can still point a browser at this port through a DNS name
// that resolves there (DNS rebinding); checking the Host header the browser
// actually sent closes that gap.
func rebindingGuardMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !netutil.IsLocalhost(r.Host) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const requestIDHeader = "X-Request-Id"

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID, err := id.New(12)
		if err == nil {
			w.Header().Set(requestIDHeader, reqID)
		}
		next.ServeHTTP(w, r)
	})
}

// Listener binds the loopback TCP listener and serves the given handler
// until Shutdown is called.
type Listener struct {
	server *http.Server
	ln     net.Listener
	log    *logging.Logger
}

// Bind binds 127.0.0.1:port. On success it returns the bound port (useful
// when port is 0) without yet serving requests.
func Bind(port int, handler http.Handler) (*Listener, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:"+strconv.Itoa(port))
	if err != nil {
		return nil, err
	}
	return &Listener{
		server: &http.Server{Handler: handler},
		ln:     ln,
		log:    logging.New("router"),
	}, nil
}

// Port returns the bound TCP port.
func (l *Listener) Port() int {
	return l.ln.Addr().(*net.TCPAddr).Port
}

// Serve blocks, accepting connections until Shutdown is called. It returns
// http.ErrServerClosed on a clean shutdown.
func (l *Listener) Serve() error {
	return l.server.Serve(l.ln)
}

// Shutdown gives in-flight requests (including SSE streams) ctx's deadline
// to finish before forcibly closing the connections still open. Upgraded
// WebSocket connections are hijacked and no longer tracked by the server:
// Shutdown neither waits for nor closes them.
func (l *Listener) Shutdown(ctx context.Context) error {
	err := l.server.Shutdown(ctx)
	if err != nil {
		l.server.Close()
	}
	return err
}

