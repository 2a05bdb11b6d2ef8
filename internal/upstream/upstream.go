// Package upstream implements the request/response transformation pipeline
// that forwards everything not handled locally to the configured remote
// application server: header sanitization, cookie merging, bearer token
// injection, response streaming (including SSE), redirect rewriting, and
// Set-Cookie interception into the jar. It also relays WebSocket upgrades
// on the same path, since the admin UI's live feeds use them over the same
// same-origin connection as everything else.
package upstream

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/YaoApp/cui-desktop-proxy/internal/jar"
	"github.com/YaoApp/cui-desktop-proxy/internal/logging"
	"github.com/YaoApp/cui-desktop-proxy/internal/state"
)

// MaxBodyBytes bounds inbound request bodies, enforced at read time.
const MaxBodyBytes = 512 << 20 // 512 MiB

var hopByHopSkip = map[string]bool{
	"Host":              true,
	"Connection":        true,
	"Transfer-Encoding": true,
	"Cookie":            true,
}

var responseSkip = map[string]bool{
	"Transfer-Encoding": true,
	"Connection":        true,
}

// Pipeline forwards requests to the configured upstream.
type Pipeline struct {
	state *state.State
	jar   *jar.Jar
	log   *logging.Logger

	client   *http.Client
	upgrader websocket.Upgrader
}

// New constructs a Pipeline with one shared HTTP client: redirects are not
// followed (3xx is surfaced to the browser) and no ambient system proxy is
// used.
func New(st *state.State, j *jar.Jar) *Pipeline {
	return &Pipeline{
		state: st,
		jar:   j,
		log:   logging.New("upstream"),
		client: &http.Client{
			Transport: &http.Transport{Proxy: nil},
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP forwards r to the upstream, relaying a WebSocket upgrade or an
// ordinary request/response as appropriate.
func (p *Pipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serverURL := p.state.ServerURL()
	if serverURL == "" {
		http.Error(w, "Proxy server URL not configured", http.StatusBadGateway)
		return
	}

	if isUpgradeRequest(r) {
		p.serveWebSocket(w, r, serverURL)
		return
	}

	p.serveHTTP(w, r, serverURL)
}

func isUpgradeRequest(r *http.Request) bool {
	if !strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return false
	}
	for _, tok := range strings.Split(r.Header.Get("Connection"), ",") {
		if strings.EqualFold(strings.TrimSpace(tok), "upgrade") {
			return true
		}
	}
	return false
}

func targetURL(serverURL string, r *http.Request) string {
	pathAndQuery := r.URL.RequestURI()
	if pathAndQuery == "" {
		pathAndQuery = "/"
	}
	return serverURL + pathAndQuery
}

// buildUpstreamHeaders applies steps 2-5 of request transformation: copy
// non-hop-by-hop headers (rewriting Origin/Referer), merge cookies, and
// inject the bearer token.
func (p *Pipeline) buildUpstreamHeaders(r *http.Request, serverURL string) http.Header {
	out := make(http.Header, len(r.Header)+2)

	browserCookies := r.Header.Get("Cookie")

	for name, values := range r.Header {
		if hopByHopSkip[http.CanonicalHeaderKey(name)] {
			continue
		}
		for _, v := range values {
			switch http.CanonicalHeaderKey(name) {
			case "Origin":
				v = serverURL
			case "Referer":
				v = rewriteLoopbackPrefix(v, r, serverURL)
			}
			out.Add(name, v)
		}
	}

	merged := p.jar.GetMergedCookies(browserCookies, r.URL.Path)
	if merged != "" {
		out.Set("Cookie", merged)
	}

	if token := p.state.Token(); token != "" {
		out.Set("Authorization", "Bearer "+token)
	}

	return out
}

func loopbackBase(r *http.Request) string {
	port := r.Host
	if idx := strings.LastIndexByte(port, ':'); idx >= 0 {
		port = port[idx+1:]
	}
	return "http://127.0.0.1:" + port
}

func rewriteLoopbackPrefix(value string, r *http.Request, serverURL string) string {
	base := loopbackBase(r)
	if strings.HasPrefix(value, base) {
		return serverURL + strings.TrimPrefix(value, base)
	}
	return value
}

func (p *Pipeline) serveHTTP(w http.ResponseWriter, r *http.Request, serverURL string) {
	var body io.Reader
	if r.Body != nil && r.Method != http.MethodGet && r.Method != http.MethodHead {
		data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes))
		if err != nil {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		if len(data) > 0 {
			body = bytes.NewReader(data)
		}
	}

	upReq, err := http.NewRequestWithContext(r.Context(), r.Method, targetURL(serverURL, r), body)
	if err != nil {
		http.Error(w, "Proxy server URL not configured", http.StatusBadGateway)
		return
	}
	upReq.Header = p.buildUpstreamHeaders(r, serverURL)

	resp, err := p.client.Do(upReq)
	if err != nil {
		http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	p.writeResponse(w, r, resp, serverURL)
}

func (p *Pipeline) writeResponse(w http.ResponseWriter, r *http.Request, resp *http.Response, serverURL string) {
	isSSE := strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
	isRedirect := resp.StatusCode >= 300 && resp.StatusCode <= 399

	header := w.Header()
	for name, values := range resp.Header {
		canon := http.CanonicalHeaderKey(name)
		if responseSkip[canon] {
			continue
		}
		if canon == "Set-Cookie" {
			for _, raw := range values {
				p.forwardSetCookie(w, raw)
			}
			continue
		}
		if canon == "Location" && isRedirect {
			header.Set("Location", rewriteRedirectLocation(values[0], r, serverURL))
			continue
		}
		for _, v := range values {
			header.Add(name, v)
		}
	}

	if isSSE {
		header.Set("Cache-Control", "no-cache")
		header.Set("X-Accel-Buffering", "no")
		w.WriteHeader(resp.StatusCode)
		streamSSE(w, resp.Body)
		return
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		http.Error(w, "upstream body read error", http.StatusBadGateway)
		return
	}
	header.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(resp.StatusCode)
	if _, err := w.Write(data); err != nil {
		p.log.Warn("failed to write downstream response", "error", err)
	}
}

func (p *Pipeline) forwardSetCookie(w http.ResponseWriter, raw string) {
	result := p.jar.StoreCookie(raw)
	if result.IsSecure {
		return
	}
	if result.HasBrowserCookie {
		w.Header().Add("Set-Cookie", result.BrowserCookie)
	}
}

func rewriteRedirectLocation(location string, r *http.Request, serverURL string) string {
	if strings.HasPrefix(location, serverURL) {
		return loopbackBase(r) + strings.TrimPrefix(location, serverURL)
	}
	return location
}

func streamSSE(w http.ResponseWriter, body io.Reader) {
	flusher, _ := w.(http.Flusher)
	buf := make([]byte, 4096)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err != nil {
			return
		}
	}
}

// serveWebSocket dials the upstream with the same transformed headers an
// ordinary request would carry, upgrades the downstream connection, and
// relays each message (type and payload) unmodified in both directions until
// either side closes or errors. Messages are read whole before being
// written on, so original frame boundaries are not preserved, and a close
// frame ends the relay without being forwarded.
func (p *Pipeline) serveWebSocket(w http.ResponseWriter, r *http.Request, serverURL string) {
	target, err := wsTargetURL(serverURL, r)
	if err != nil {
		http.Error(w, "Proxy server URL not configured", http.StatusBadGateway)
		return
	}

	headers := p.buildUpstreamHeaders(r, serverURL)
	for _, h := range []string{"Connection", "Upgrade", "Sec-Websocket-Key", "Sec-Websocket-Version", "Sec-Websocket-Extensions"} {
		headers.Del(h)
	}

	upConn, upResp, err := websocket.DefaultDialer.DialContext(r.Context(), target, headers)
	if err != nil {
		if upResp != nil {
			upResp.Body.Close()
		}
		http.Error(w, fmt.Sprintf("upstream websocket dial failed: %v", err), http.StatusBadGateway)
		return
	}
	defer upConn.Close()

	downConn, err := p.upgrader.Upgrade(w, r, nil)
	if err != nil {
		p.log.Warn("failed to upgrade downstream connection", "error", err)
		return
	}
	defer downConn.Close()

	done := make(chan struct{}, 2)
	go relay(downConn, upConn, done)
	go relay(upConn, downConn, done)
	<-done
}

func wsTargetURL(serverURL string, r *http.Request) (string, error) {
	u, err := url.Parse(targetURL(serverURL, r))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	return u.String(), nil
}

func relay(dst, src *websocket.Conn, done chan<- struct{}) {
	defer func() { done <- struct{}{} }()
	for {
		msgType, data, err := src.ReadMessage()
		if err != nil {
			return
		}
		if err := dst.WriteMessage(msgType, data); err != nil {
			return
		}
	}
}
