package secureheaders

import "net/http"

// see https://owasp.org/www-project-secure-headers/ci/headers_add.json
//
// COEP/COOP are deliberately not set here: the proxied admin UI loads its
// resources through the proxy from an upstream whose responses carry no
// cross-origin labels, so COEP require-corp would block them. Fullscreen is
// left off the Permissions-Policy denylist because the desktop API exists
// to broker fullscreen for the embedded view.
var securityHeadersMap = map[string]string{
	"Cross-Origin-Resource-Policy":      "same-origin",
	"Permissions-Policy":                "accelerometer=(), autoplay=(), camera=(), cross-origin-isolated=(), display-capture=(), encrypted-media=(), geolocation=(), gyroscope=(), keyboard-map=(), magnetometer=(), microphone=(), midi=(), payment=(), picture-in-picture=(), publickey-credentials-get=(), screen-wake-lock=(), sync-xhr=(self), usb=(), web-share=(), xr-spatial-tracking=(), clipboard-read=(), clipboard-write=(), gamepad=(), hid=(), idle-detection=(), interest-cohort=(), serial=(), unload=()",
	"Referrer-Policy":                   "no-referrer",
	"Strict-Transport-Security":         "max-age=31536000; includeSubDomains",
	"X-Content-Type-Options":            "nosniff",
	"X-Frame-Options":                   "deny",
	"X-Permitted-Cross-Domain-Policies": "none",
}

// Sets various security-related headers to responses.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for header, value := range securityHeadersMap {
			w.Header().Set(header, value)
		}
		w.Header().Del("Server")
		w.Header().Del("X-Powered-By")
		next.ServeHTTP(w, r)
	})
}
