// Package auth authenticates programmatic clients by API key.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "trustplane/pkg/domain"
	dErrors "trustplane/pkg/domain-errors"
	"trustplane/pkg/requestcontext"
)

// APIKeyHeader carries the plaintext API key.
const APIKeyHeader = "X-API-Key"

// APIKeyVerifier resolves a plaintext key to the owning subject. Every miss
// reason must surface as the same not-found error.
type APIKeyVerifier interface {
	Authenticate(ctx context.Context, key string) (id.SubjectID, error)
}

// writeJSONError writes a JSON error response with the given status code and error details.
func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAPIKey verifies X-API-Key and stores the key owner in the context.
func RequireAPIKey(verifier APIKeyVerifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if key == "" {
				logger.WarnContext(ctx, "unauthorized access - missing api key",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing API key")
				return
			}

			owner, err := verifier.Authenticate(ctx, key)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) || errors.Is(err, context.Canceled) {
					logger.WarnContext(ctx, "unauthorized access - invalid api key",
						"request_id", requestcontext.RequestID(ctx),
					)
					writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid API key")
					return
				}
				logger.ErrorContext(ctx, "failed to verify api key",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_error", "Failed to verify API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAPIKeyOwner(ctx, owner)))
		})
	}
}
