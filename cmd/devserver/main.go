// Command devserver is a small harness for exercising the proxy engine
// standalone, outside the native desktop shell: it loads a handful of
// settings from a .env file, wires up proxy.Proxy, and serves until
// interrupted. It is not part of the spec's deliverable surface — the real
// control surface (start/update/stop, the cookie-management calls) is
// proxy.Proxy itself, driven here the way an external collaborator would.
package main

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/term"

	proxy "github.com/YaoApp/cui-desktop-proxy"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("devserver: failed to load .env: %v", err)
	}

	cuiDir := envOr("CUI_DIR", "./dist")
	upstreamURL := envOr("UPSTREAM_URL", "")
	port := envIntOr("PORT", 15099)
	cookieFile := envOr("COOKIE_FILE", "")
	token := os.Getenv("UPSTREAM_TOKEN")
	authMode := envOr("AUTH_MODE", "openapi")

	colored := term.IsTerminal(int(os.Stdout.Fd()))
	logPrefix := "devserver: "
	if colored {
		logPrefix = "\033[36mdevserver:\033[0m "
	}
	logger := log.New(os.Stdout, logPrefix, log.LstdFlags)

	p := proxy.New()

	if cookieFile != "" {
		p.SetCookiePersistencePath(cookieFile)
		p.LoadCookies()
	}

	if upstreamURL != "" {
		p.UpdateState(upstreamURL, token, authMode, "")
	}

	boundPort, err := p.Start(cuiDir, port)
	if err != nil {
		logger.Fatalf("failed to start proxy: %v", err)
	}
	logger.Printf("listening on http://127.0.0.1:%d (cui_dir=%s, upstream=%q)", boundPort, cuiDir, upstreamURL)

	if err := p.Serve(); err != nil {
		logger.Printf("serve exited: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devserver: invalid %s=%q, using default %d\n", key, v, fallback)
		return fallback
	}
	return n
}
