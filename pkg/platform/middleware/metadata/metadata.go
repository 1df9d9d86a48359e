package metadata

import (
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"trustplane/pkg/requestcontext"
)

// DeviceFingerprintHeader carries an optional client-computed fingerprint.
const DeviceFingerprintHeader = "X-Device-Fingerprint"

// ClientMetadata extracts client IP, User-Agent and device hints from the
// request and adds them to the context for handlers, services and audit.
// This middleware should be applied early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIPFromRequest(r)
		userAgent := r.Header.Get("User-Agent")

		ctx := requestcontext.WithClientMetadata(r.Context(), ip, userAgent)
		if summary := DeviceSummary(userAgent); summary != "" {
			ctx = requestcontext.WithDeviceSummary(ctx, summary)
		}
		if fp := strings.TrimSpace(r.Header.Get(DeviceFingerprintHeader)); fp != "" {
			ctx = requestcontext.WithDeviceFingerprint(ctx, fp)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// DeviceSummary renders a user agent as "Browser on OS", or "" when empty.
func DeviceSummary(userAgent string) string {
	if strings.TrimSpace(userAgent) == "" {
		return ""
	}
	ua := useragent.New(userAgent)
	browser, _ := ua.Browser()
	platform := ua.OS()

	switch {
	case ua.Bot():
		return "bot"
	case browser == "" && platform == "":
		return "unknown"
	case platform == "":
		return browser
	case browser == "":
		return "unknown on " + platform
	}
	if ua.Mobile() {
		return browser + " on " + platform + " (mobile)"
	}
	return browser + " on " + platform
}

// ClientIPFromRequest extracts the real client IP from the request, handling proxies and load balancers.
func ClientIPFromRequest(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs (client, proxy1, proxy2, ...)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[::1]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
