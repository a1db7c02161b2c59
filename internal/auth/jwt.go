// Package auth provides optional identity verification for catch owners.
//
// By default the API trusts whatever user_id the client sends. When the
// server is started with JWT_SECRET set, every API request must carry
//
//	Authorization: Bearer <jwt>
//
// whose "sub" claim is the owner identifier, and the service refuses
// requests whose user_id differs from it.
//
// Tokens are HS256-signed with the shared secret; the server can verify
// them without any lookup.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

const (
	issuer = "castiq"

	// minSecretLen is the shortest JWT_SECRET accepted. Use 32+ random bytes
	// in production: JWT_SECRET=$(openssl rand -hex 32)
	minSecretLen = 16
)

// DefaultTokenTTL is the lifetime of tokens minted by Generate.
const DefaultTokenTTL = 24 * time.Hour

var (
	errShortSecret = fmt.Errorf("auth: JWT secret must be at least %d characters", minSecretLen)
	errNoOwner     = errors.New("auth: owner is required")
	errNoSubject   = errors.New("auth: token has no subject")
)

// TokenService mints and verifies owner tokens with one shared HMAC secret.
// It is immutable after construction and safe for concurrent use.
type TokenService struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenService creates a TokenService for secret.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < minSecretLen {
		return nil, errShortSecret
	}
	return &TokenService{
		secret: []byte(secret),
		// Pinning HS256 blocks algorithm-confusion tokens ("alg":"none",
		// or RS256 with the secret as a public key).
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
		),
	}, nil
}

// Generate signs a token for owner valid for DefaultTokenTTL.
func (s *TokenService) Generate(owner string) (string, error) {
	return s.GenerateWithDuration(owner, DefaultTokenTTL)
}

// GenerateWithDuration signs a token whose subject is owner and which
// expires after ttl. Every token carries a fresh xid as "jti", which makes
// two tokens for the same owner distinguishable in logs.
func (s *TokenService) GenerateWithDuration(owner string, ttl time.Duration) (string, error) {
	if owner == "" {
		return "", errNoOwner
	}

	issued := time.Now()
	registered := jwt.RegisteredClaims{
		ID:        xid.New().String(),
		Issuer:    issuer,
		Subject:   owner,
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(issued.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, registered).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token for %q: %w", owner, err)
	}
	return signed, nil
}

// Validate verifies tokenStr and returns the owner in its subject.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	var registered jwt.RegisteredClaims
	if _, err := s.parser.ParseWithClaims(tokenStr, &registered, s.key); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", errors.New("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	if registered.Subject == "" {
		return "", errNoSubject
	}
	return registered.Subject, nil
}

// key hands the parser the HMAC secret once the method check has passed.
func (s *TokenService) key(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
	}
	return s.secret, nil
}
