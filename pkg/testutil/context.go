package testutil

import (
	"net/http"

	id "trustplane/pkg/domain"
	"trustplane/pkg/requestcontext"
)

// AsActor is middleware that marks every request as coming from an admin
// actor, standing in for the bearer token check.
func AsActor(actorID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithActorID(r.Context(), actorID)))
		})
	}
}

// AsClient is middleware that marks every request as authenticated by an API
// key owned by owner, standing in for the X-API-Key check.
func AsClient(owner id.SubjectID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithAPIKeyOwner(r.Context(), owner)))
		})
	}
}
