package static

import (
	"path/filepath"
	"strings"
)

// mimeTable is the extension->Content-Type map from spec §6.
var mimeTable = map[string]string{
	".html": "text/html; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".mjs":  "application/javascript; charset=utf-8",
	".css":  "text/css; charset=utf-8",
	".json": "application/json; charset=utf-8",
	".map":  "application/json; charset=utf-8",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".ico":  "image/x-icon",
	".woff": "font/woff",
	".woff2": "font/woff2",
	".ttf":  "font/ttf",
	".eot":  "application/vnd.ms-fontobject",
	".wasm": "application/wasm",
	".txt":  "text/plain; charset=utf-8",
	".xml":  "application/xml; charset=utf-8",
}

const defaultMIME = "application/octet-stream"

// mimeFor determines the Content-Type for path by its extension, matching
// spec §6's closed MIME table exactly; anything else falls back to
// application/octet-stream.
func mimeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if mt, ok := mimeTable[ext]; ok {
		return mt
	}
	return defaultMIME
}
