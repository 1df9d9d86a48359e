// Package admin authenticates admin-console callers with HS256 bearer tokens.
package admin

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"trustplane/pkg/requestcontext"
)

// Claims are the admin token claims. The actor id is the subject claim.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RoleAdmin is the only role accepted by RequireAdmin.
const RoleAdmin = "admin"

// TokenValidator verifies admin bearer tokens.
type TokenValidator struct {
	key    []byte
	issuer string
	leeway time.Duration
}

func NewTokenValidator(signingKey, issuer string) *TokenValidator {
	return &TokenValidator{key: []byte(signingKey), issuer: issuer, leeway: 30 * time.Second}
}

// Validate returns the actor id carried by a valid admin token.
func (v *TokenValidator) Validate(token string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var claims Claims
	if _, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}, opts...); err != nil {
		return "", fmt.Errorf("parse admin token: %w", err)
	}
	if claims.Role != RoleAdmin {
		return "", errors.New("admin role required")
	}
	if claims.Subject == "" {
		return "", errors.New("admin token has no subject")
	}
	return claims.Subject, nil
}

// Issue signs an admin token for actorID. Used by operators' tooling and tests.
func (v *TokenValidator) Issue(actorID string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actorID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// RequireAdmin rejects requests without a valid admin bearer token and puts
// the actor id into the request context.
func RequireAdmin(validator *TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized admin access - missing token",
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "admin bearer token required")
				return
			}
			actorID, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized admin access - invalid token",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				writeUnauthorized(w, "invalid or expired admin token")
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(ctx, actorID)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprintf(w, `{"error":"unauthorized","error_description":%q}`, desc)
}
