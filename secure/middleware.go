// Package secure applies a baseline of response security headers to
// every via endpoint. These are ambient hardening, independent of the
// Non-goal that excludes authentication and access control on actions
// (see spec.md §1): a page that requires no login still deserves a
// CSP and a nosniff header.
package secure

import (
	"fmt"
	"net/http"
)

// Options configures the security middleware.
type Options struct {
	// DevMode relaxes framing and disables HSTS for local development.
	DevMode bool

	ContentTypeNosniff bool
	FrameDeny          bool
	XSSProtection      bool

	ContentSecurityPolicy string

	STSSeconds           int64
	STSIncludeSubdomains bool

	ReferrerPolicy string
}

// DefaultOptions returns the secure defaults via ships with.
func DefaultOptions() Options {
	return Options{
		ContentTypeNosniff: true,
		FrameDeny:          true,
		XSSProtection:      true,
		STSSeconds:         31536000,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'self'; " +
			"script-src 'self' 'unsafe-inline'; " +
			"style-src 'self' 'unsafe-inline'; " +
			"img-src 'self' data:; " +
			"connect-src 'self'; " +
			"frame-ancestors 'none';",
	}
}

// Middleware wraps next with the configured security headers.
func Middleware(opts Options) func(http.Handler) http.Handler {
	if opts.DevMode {
		opts.FrameDeny = false
		opts.STSSeconds = 0
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()

			if opts.ContentTypeNosniff {
				h.Set("X-Content-Type-Options", "nosniff")
			}
			if opts.FrameDeny {
				h.Set("X-Frame-Options", "DENY")
			}
			if opts.XSSProtection {
				h.Set("X-XSS-Protection", "1; mode=block")
			}
			if opts.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", opts.ContentSecurityPolicy)
			}
			if !opts.DevMode && opts.STSSeconds > 0 {
				h.Set("Strict-Transport-Security", formatSTSHeader(opts.STSSeconds, opts.STSIncludeSubdomains))
			}
			if opts.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", opts.ReferrerPolicy)
			}
			h.Set("X-Permitted-Cross-Domain-Policies", "none")

			next.ServeHTTP(w, r)
		})
	}
}

func formatSTSHeader(seconds int64, includeSubdomains bool) string {
	header := fmt.Sprintf("max-age=%d", seconds)
	if includeSubdomains {
		header += "; includeSubDomains"
	}
	return header
}
