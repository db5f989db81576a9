package middleware

import (
	"net/http"

	"github.com/taxicast/taxicast/internal/api/models"
)

// securityHeaders are set on every response. The API only serves JSON, so
// nothing may be framed, sniffed or scripted.
var securityHeaders = [...][2]string{
	{"X-Content-Type-Options", "nosniff"},
	{"X-Frame-Options", "DENY"},
	{"Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'"},
	{"Referrer-Policy", "strict-origin-when-cross-origin"},
	{"Permissions-Policy", "geolocation=(), camera=(), microphone=()"},
}

const hsts = "max-age=31536000; includeSubDomains"

// SecurityHeaders adds the security headers above. Strict-Transport-Security
// is only sent over HTTPS; browsers ignore it on plain connections.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		for _, kv := range securityHeaders {
			h.Set(kv[0], kv[1])
		}
		if scheme(r) == "https" {
			h.Set("Strict-Transport-Security", hsts)
		}
		next.ServeHTTP(w, r)
	})
}

// RequireTLS rejects plain HTTP when enabled. Behind the load balancer the
// scheme comes from X-Forwarded-Proto; direct connections without TLS or the
// header (local dev, health checks) pass.
func RequireTLS(enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !enabled {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.TLS == nil && r.Header.Get("X-Forwarded-Proto") != "" && scheme(r) != "https" {
				models.NewError(GetRequestID(r.Context()), "TLS required: this endpoint requires HTTPS").
					Write(w, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
