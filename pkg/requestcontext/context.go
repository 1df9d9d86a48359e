// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets the values; services read them to enrich audit events
// without importing net/http.
//
//	actorID := requestcontext.ActorID(ctx)
//	ip := requestcontext.ClientIP(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.7", "curl/8.0")
package requestcontext

import (
	"context"

	id "trustplane/pkg/domain"
)

type (
	actorIDKey           struct{}
	apiKeyOwnerKey       struct{}
	deviceFingerprintKey struct{}
	deviceSummaryKey     struct{}
	clientIPKey          struct{}
	userAgentKey         struct{}
	requestIDKey         struct{}
)

// -----------------------------------------------------------------------------
// Principals
// -----------------------------------------------------------------------------

// ActorID returns the authenticated admin actor (JWT subject), or "".
func ActorID(ctx context.Context) string {
	if actor, ok := ctx.Value(actorIDKey{}).(string); ok {
		return actor
	}
	return ""
}

// WithActorID injects the admin actor identifier.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey{}, actorID)
}

// APIKeyOwner returns the owner of the verified API key, or the nil ID.
func APIKeyOwner(ctx context.Context) id.SubjectID {
	if owner, ok := ctx.Value(apiKeyOwnerKey{}).(id.SubjectID); ok {
		return owner
	}
	return id.SubjectID{}
}

// WithAPIKeyOwner injects the owner of a verified API key.
func WithAPIKeyOwner(ctx context.Context, owner id.SubjectID) context.Context {
	return context.WithValue(ctx, apiKeyOwnerKey{}, owner)
}

// -----------------------------------------------------------------------------
// Device and client metadata
// -----------------------------------------------------------------------------

// DeviceFingerprint returns the caller-supplied device fingerprint.
func DeviceFingerprint(ctx context.Context) string {
	if fp, ok := ctx.Value(deviceFingerprintKey{}).(string); ok {
		return fp
	}
	return ""
}

// WithDeviceFingerprint injects a device fingerprint.
func WithDeviceFingerprint(ctx context.Context, fingerprint string) context.Context {
	return context.WithValue(ctx, deviceFingerprintKey{}, fingerprint)
}

// DeviceSummary returns a display form of the user agent ("Chrome on Linux").
func DeviceSummary(ctx context.Context) string {
	if summary, ok := ctx.Value(deviceSummaryKey{}).(string); ok {
		return summary
	}
	return ""
}

// WithDeviceSummary injects a parsed user-agent summary.
func WithDeviceSummary(ctx context.Context, summary string) context.Context {
	return context.WithValue(ctx, deviceSummaryKey{}, summary)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}
