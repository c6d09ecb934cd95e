// Package auth carries the acting user's identity and role through the
// request context and decides which operations each role may invoke.
package auth

import (
	"context"
	"errors"
	"fmt"

	jwtgo "github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/loanpro/loanpro-backend/internal/domain"
)

var ErrInvalidToken = errors.New("invalid token")

// Actor is the authenticated identity attached to a request.
type Actor struct {
	ID   uuid.UUID
	Role domain.Role
}

type contextKey struct{}

// WithActor returns a context carrying the actor.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, actor)
}

// ActorFromContext extracts the actor set by the middleware.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(contextKey{}).(Actor)
	return actor, ok
}

type claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwtgo.RegisteredClaims
}

// ParseToken validates an HMAC-signed bearer token and returns the actor it
// identifies. Token issuance lives in the identity service, not here.
func ParseToken(tokenString, secret string) (Actor, error) {
	c := &claims{}
	token, err := jwtgo.ParseWithClaims(tokenString, c, func(t *jwtgo.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtgo.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Actor{}, ErrInvalidToken
	}

	id, err := uuid.Parse(c.UserID)
	if err != nil {
		return Actor{}, ErrInvalidToken
	}

	role := domain.Role(c.Role)
	switch role {
	case domain.RoleAdmin, domain.RoleManager, domain.RoleRelationshipOfficer,
		domain.RoleAccountOfficer, domain.RoleCustomer:
	default:
		return Actor{}, ErrInvalidToken
	}

	return Actor{ID: id, Role: role}, nil
}
