// Package desktop implements the tiny desktop API surface the injected
// fullscreen polyfill talks to: a single endpoint that reads and sets the
// host window's fullscreen state through a capability object supplied by
// the native shell.
package desktop

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"

	"github.com/YaoApp/cui-desktop-proxy/internal/logging"
	"github.com/YaoApp/cui-desktop-proxy/kit/jsonutil"
)

const maxBodyBytes = 256

// Path is the single endpoint this package serves.
const Path = "/__yao_desktop/window/fullscreen"

// Window is the subset of a native window the desktop API needs.
type Window interface {
	IsFullscreen() bool
	SetFullscreen(bool) error
}

// AppHandle is the host app's capability object: window lookup by focus or
// label. It is supplied once by the native shell via Server.SetAppHandle.
type AppHandle interface {
	FocusedWindow() (Window, bool)
	Window(label string) (Window, bool)
}

// Server serves the desktop API. Construct it with New; until SetAppHandle
// is called every request reports "app not ready".
type Server struct {
	mu     sync.RWMutex
	handle AppHandle
	log    *logging.Logger
}

// New returns a Server with no app handle registered yet.
func New() *Server {
	return &Server{log: logging.New("desktop")}
}

// SetAppHandle registers the host app's capability object. It is write-once:
// a handle already set is never replaced, matching the native shell's own
// single-construction lifecycle.
func (s *Server) SetAppHandle(h AppHandle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		s.handle = h
	}
}

type fullscreenRequest struct {
	Fullscreen bool `json:"fullscreen"`
}

type fullscreenResponse struct {
	Fullscreen bool `json:"fullscreen"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	s.mu.RLock()
	handle := s.handle
	s.mu.RUnlock()

	if handle == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(errorResponse{Error: "app not ready"})
		return
	}

	win, ok := handle.FocusedWindow()
	if !ok {
		win, ok = handle.Window("main")
	}
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(errorResponse{Error: "window not found"})
		return
	}

	if r.Method == http.MethodPost {
		body, _ := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		req, err := jsonutil.Parse[fullscreenRequest](body)
		if err != nil {
			// Malformed JSON is a silent no-op per the parse-failure policy:
			// defaults apply, so fullscreen stays false.
			req = fullscreenRequest{}
		}
		if err := win.SetFullscreen(req.Fullscreen); err != nil {
			s.log.Warn("failed to set window fullscreen state", "error", err)
		}
	}

	json.NewEncoder(w).Encode(fullscreenResponse{Fullscreen: win.IsFullscreen()})
}
