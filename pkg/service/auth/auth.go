// Package auth issues and verifies the bearer tokens handed out after a
// successful login.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/backoffice/pkg/config"
	"github.com/amirasaad/backoffice/pkg/domain"
	"github.com/amirasaad/backoffice/pkg/domain/user"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired is returned for a well-formed token past its expiry.
	ErrTokenExpired = fmt.Errorf("token expired: %w", domain.ErrUnauthorized)
	// ErrTokenInvalid is returned for any other token failure.
	ErrTokenInvalid = fmt.Errorf("token invalid: %w", domain.ErrUnauthorized)
)

// Claims is the identity bound into a token.
type Claims struct {
	IdentityID uuid.UUID
	Username   string
	Role       user.Role
	ExpiresAt  time.Time
}

// Service is the JWT token issuer and verifier.
type Service struct {
	cfg    *config.Jwt
	logger *slog.Logger
	now    func() time.Time
}

// New creates a new auth Service.
func New(cfg *config.Jwt, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, logger: logger, now: time.Now}
}

// WithClock returns a copy of s using now as its time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	c := *s
	c.now = now
	return &c
}

// Issue signs a token for identity.
func (s *Service) Issue(identity *user.Identity) (signed string, expiresAt time.Time, err error) {
	log := s.logger.With("context", "Issue", "id", identity.ID)
	expiresAt = s.now().Add(s.cfg.Expiry)

	token := jwt.New(jwt.SigningMethodHS256)
	claims := token.Claims.(jwt.MapClaims)
	claims["sub"] = identity.ID.String()
	claims["username"] = identity.Username
	claims["role"] = string(identity.Role)
	claims["iat"] = s.now().Unix()
	claims["exp"] = expiresAt.Unix()

	signed, err = token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		log.Error("token signing failed", "error", err)
		return "", time.Time{}, err
	}
	log.Debug("token issued")
	return signed, expiresAt, nil
}

// Keyfunc resolves the signing key and rejects tokens not signed with HMAC.
func (s *Service) Keyfunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return []byte(s.cfg.Secret), nil
}

// Verify parses and validates a signed token.
func (s *Service) Verify(signed string) (*Claims, error) {
	token, err := jwt.Parse(signed, s.Keyfunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return FromToken(token)
}

// FromToken extracts Claims from an already validated token, such as the one
// the fiber jwt middleware stores in the request context.
func FromToken(token *jwt.Token) (*Claims, error) {
	if token == nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenInvalid
	}
	sub, err := mc.GetSubject()
	if err != nil {
		return nil, ErrTokenInvalid
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	username, _ := mc["username"].(string)
	role, _ := mc["role"].(string)
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrTokenInvalid
	}
	return &Claims{
		IdentityID: id,
		Username:   username,
		Role:       user.Role(role),
		ExpiresAt:  exp.Time,
	}, nil
}
