package auth

import (
	"net/http"
	"strings"

	"github.com/loanpro/loanpro-backend/pkg/response"
)

// Middleware parses the bearer token and attaches the actor to the request
// context. Requests without a valid token are rejected.
func Middleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				response.Unauthorized(w, "Missing bearer token")
				return
			}

			actor, err := ParseToken(strings.TrimPrefix(header, "Bearer "), jwtSecret)
			if err != nil {
				response.Unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

// Require wraps a handler with an operation check against the permission
// table.
func Require(op Operation, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			response.Unauthorized(w, "Authentication required")
			return
		}

		if !Allowed(actor.Role, op) {
			response.Forbidden(w, "You do not have permission to perform this action")
			return
		}

		next(w, r)
	}
}
