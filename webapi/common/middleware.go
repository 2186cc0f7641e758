package common

import (
	"context"
	"errors"

	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/amirasaad/backoffice/pkg/policy"
	"github.com/amirasaad/backoffice/pkg/service/auth"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenKey = "user"
	actorKey = "actor"
)

// IdentityReader looks up the current state of an identity.
type IdentityReader interface {
	Get(ctx context.Context, id uuid.UUID) (*user.Identity, error)
}

// JwtProtected rejects requests without a valid bearer token. The caller's
// role is re-read from identities on every request, so a role change takes
// effect before the token expires.
func JwtProtected(cfg *config.Jwt, identities IdentityReader) fiber.Handler {
	return newJwt(cfg, identities, nil)
}

// JwtOptional authenticates a bearer token when one is sent and lets
// anonymous requests through.
func JwtOptional(cfg *config.Jwt, identities IdentityReader) fiber.Handler {
	return newJwt(cfg, identities, func(c *fiber.Ctx) bool {
		return c.Get(fiber.HeaderAuthorization) == ""
	})
}

func newJwt(cfg *config.Jwt, identities IdentityReader, filter func(*fiber.Ctx) bool) fiber.Handler {
	return jwtware.New(jwtware.Config{
		Filter:     filter,
		ContextKey: tokenKey,
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.Secret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
				return ProblemDetailsJSON(c, "Unauthorized", err, "missing or malformed token", fiber.StatusUnauthorized)
			}
			return ProblemDetailsJSON(c, "Unauthorized", err, "invalid or expired token", fiber.StatusUnauthorized)
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			actor, err := resolveActor(c, identities)
			if err != nil {
				return ProblemDetailsJSON(c, "Unauthorized", err, fiber.StatusUnauthorized)
			}
			c.Locals(actorKey, actor)
			return c.Next()
		},
	})
}

func resolveActor(c *fiber.Ctx, identities IdentityReader) (policy.Actor, error) {
	token, ok := c.Locals(tokenKey).(*jwt.Token)
	if !ok {
		return policy.Anonymous(), auth.ErrTokenInvalid
	}
	claims, err := auth.FromToken(token)
	if err != nil {
		return policy.Anonymous(), err
	}
	identity, err := identities.Get(c.Context(), claims.IdentityID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return policy.Anonymous(), auth.ErrTokenInvalid
		}
		return policy.Anonymous(), err
	}
	return policy.Actor{ID: identity.ID, Role: identity.Role}, nil
}

// ActorFrom returns the authenticated caller, or the anonymous actor.
func ActorFrom(c *fiber.Ctx) policy.Actor {
	if actor, ok := c.Locals(actorKey).(policy.Actor); ok {
		return actor
	}
	return policy.Anonymous()
}

// ParseID parses the named route parameter as a UUID.
func ParseID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		return uuid.Nil, domain.Validationf("%s must be a valid UUID", name)
	}
	return id, nil
}
