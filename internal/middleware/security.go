package middleware

import (
	"net/http"

	"github.com/unrolled/secure"
)

var secureHeaders = secure.New(secure.Options{
	FrameDeny:             true,
	ContentTypeNosniff:    true,
	BrowserXssFilter:      true,
	ReferrerPolicy:        "strict-origin-when-cross-origin",
	ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
})

// SecurityHeaders adds common security headers.
func SecurityHeaders(next http.Handler) http.Handler {
	return secureHeaders.Handler(next)
}
