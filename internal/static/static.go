// Package static serves the CUI single-page bundle from a local directory,
// with SPA fallback, path-traversal protection, and HTML head injection for
// preference synchronization.
package static

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/russross/blackfriday/v2"

	"github.com/YaoApp/cui-desktop-proxy/internal/inject"
	"github.com/YaoApp/cui-desktop-proxy/internal/jar"
	"github.com/YaoApp/cui-desktop-proxy/internal/logging"
	"github.com/YaoApp/cui-desktop-proxy/kit/cookies"
	"github.com/YaoApp/cui-desktop-proxy/kit/lazycache"
)

// PathPrefix is the request path prefix this server answers under.
const PathPrefix = "/__yao_admin_root/"

type cachedFile struct {
	data []byte
	mime string
}

// Server resolves requests against an on-disk CUI bundle.
type Server struct {
	root string // canonical absolute bundle directory

	jar *jar.Jar
	log *logging.Logger

	mu    sync.RWMutex
	cache map[string]cachedFile

	notBuilt *lazycache.Value[[]byte]

	watcher *fsnotify.Watcher
	closeCh chan struct{}
}

// New creates a static server rooted at root. It starts a best-effort
// directory watcher to invalidate the read cache when the bundle changes on
// disk; watcher setup failures are logged and otherwise non-fatal.
func New(root string, j *jar.Jar) (*Server, error) {
	canonical, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	s := &Server{
		root:     canonical,
		jar:      j,
		log:      logging.New("static"),
		cache:    make(map[string]cachedFile),
		notBuilt: &lazycache.Value[[]byte]{},
		closeCh:  make(chan struct{}),
	}

	if w, err := fsnotify.NewWatcher(); err != nil {
		s.log.Warn("failed to start bundle directory watcher", "error", err)
	} else {
		s.watcher = w
		if err := w.Add(canonical); err != nil {
			s.log.Warn("failed to watch bundle directory", "path", canonical, "error", err)
		}
		go s.watchLoop()
	}

	return s, nil
}

// Close stops the directory watcher.
func (s *Server) Close() {
	close(s.closeCh)
	if s.watcher != nil {
		s.watcher.Close()
	}
}

func (s *Server) watchLoop() {
	for {
		select {
		case <-s.closeCh:
			return
		case _, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.invalidateCache()
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("bundle directory watcher error", "error", err)
		}
	}
}

func (s *Server) invalidateCache() {
	s.mu.Lock()
	s.cache = make(map[string]cachedFile)
	s.mu.Unlock()
}

// ServeHTTP implements the algorithm in full: strip prefix, resolve and
// canonicalize, traversal-guard, SPA fallback, read (cached), MIME by
// extension, and HTML head injection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, PathPrefix)
	if rel == "" {
		rel = "index.html"
	}

	resolved, ok := s.resolve(rel)
	if !ok {
		s.serveIndexOrNotBuilt(w)
		return
	}

	if isHidden(rel) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if !s.withinRoot(resolved) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(resolved)
	if err != nil {
		s.serveIndexOrNotBuilt(w)
		return
	}
	if info.IsDir() {
		resolved = filepath.Join(s.root, "index.html")
		if !s.withinRoot(resolved) {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	file, ok := s.readCached(resolved)
	if !ok {
		s.log.Warn("failed to read static file", "path", resolved)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if strings.HasPrefix(file.mime, "text/html") {
		s.serveHTML(w, file.data)
		return
	}

	w.Header().Set("Content-Type", file.mime)
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write(file.data)
}

// resolve joins root and rel, returning the cleaned absolute path. It
// returns ok=false only when rel contains a NUL byte, which is taken as the
// "resolution failure" branch of the algorithm.
func (s *Server) resolve(rel string) (string, bool) {
	if strings.ContainsRune(rel, 0) {
		return "", false
	}
	joined := filepath.Join(s.root, rel)
	return filepath.Clean(joined), true
}

func (s *Server) withinRoot(path string) bool {
	if path == s.root {
		return true
	}
	return strings.HasPrefix(path, s.root+string(filepath.Separator))
}

// isHidden reports whether any path component of rel starts with ".", a
// defense-in-depth check independent of the traversal guard.
func isHidden(rel string) bool {
	matched, _ := doublestar.Match("**/.*", filepath.ToSlash(rel))
	if matched {
		return true
	}
	matchedTop, _ := doublestar.Match(".*", filepath.ToSlash(rel))
	return matchedTop
}

func (s *Server) readCached(path string) (cachedFile, bool) {
	s.mu.RLock()
	cf, ok := s.cache[path]
	s.mu.RUnlock()
	if ok {
		return cf, true
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cachedFile{}, false
	}

	cf = cachedFile{data: data, mime: mimeFor(path)}

	// HTML is never cached: it's re-rendered per response with live jar
	// state, so only non-HTML entries are worth remembering.
	if !strings.HasPrefix(cf.mime, "text/html") {
		s.mu.Lock()
		s.cache[path] = cf
		s.mu.Unlock()
	}

	return cf, true
}

func (s *Server) serveHTML(w http.ResponseWriter, doc []byte) {
	locale, _ := s.jar.Value("__locale")
	theme, _ := s.jar.Value("__theme")

	mappedLocale := inject.MapLocale(locale)

	if mappedLocale != "" {
		http.SetCookie(w, cookies.Build(cookies.Spec{
			Name: "__locale", Value: mappedLocale, Path: "/",
			TTL: yearTTL, SameSite: cookies.SameSiteLaxMode,
		}))
	}
	if theme != "" {
		http.SetCookie(w, cookies.Build(cookies.Spec{
			Name: "__theme", Value: theme, Path: "/",
			TTL: yearTTL, SameSite: cookies.SameSiteLaxMode,
		}))
	}

	scripts, err := inject.BuildScripts(mappedLocale, theme)
	if err != nil {
		s.log.Warn("failed to build injection scripts", "error", err)
		scripts = ""
	}

	out := inject.IntoHTML(doc, scripts)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Content-Length", strconv.Itoa(len(out)))
	w.Write(out)
}

func (s *Server) serveIndexOrNotBuilt(w http.ResponseWriter) {
	indexPath := filepath.Join(s.root, "index.html")
	if data, err := os.ReadFile(indexPath); err == nil {
		s.serveHTML(w, data)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	w.Write(s.notBuiltPage())
}

func (s *Server) notBuiltPage() []byte {
	return lazycache.Get(s.notBuilt, func() []byte {
		source := "# CUI not built\n\n" +
			"No admin UI bundle was found at this path. Build the CUI " +
			"frontend and point the proxy at its output directory.\n"
		return blackfriday.Run([]byte(source),
			blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.AutoHeadingIDs))
	})
}

const yearTTL = 365 * 24 * time.Hour
