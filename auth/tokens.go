package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose scopes a token to a single use. The purpose becomes the token's
// audience claim, so a verification token can never be replayed as a
// password-reset token or a session token.
type Purpose string

const (
	// PurposeAccess is for short-lived session (access) tokens.
	PurposeAccess Purpose = "access"
	// PurposeRefresh is for tokens exchanged for a fresh access token.
	PurposeRefresh Purpose = "refresh"
	// PurposeVerify is for email verification tokens.
	PurposeVerify Purpose = "verify"
	// PurposeReset is for password reset tokens.
	PurposeReset Purpose = "reset"
)

// Audience returns the audience claim value for this purpose.
func (p Purpose) Audience() string {
	return "storefront:" + string(p)
}

// Sentinel decode failures. Verify returns exactly one of these so callers
// can map them onto the error taxonomy without string matching.
var (
	ErrTokenExpired          = errors.New("token has expired")
	ErrTokenAudienceMismatch = errors.New("token audience does not match expected purpose")
	ErrTokenMalformed        = errors.New("token is malformed or improperly signed")
	ErrTokenMissingSubject   = errors.New("token carries no subject")
)

// Claims is the signed payload of every storefront token. The subject is
// always the user's UUID, for every purpose; access tokens additionally
// carry the superuser flag so authorization gates do not need a database
// round trip.
type Claims struct {
	Superuser bool `json:"is_superuser,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim into the user's UUID.
func (c *Claims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// TokenCodec issues and verifies signed, time-limited, purpose-scoped
// tokens. Tokens are stateless: nothing is stored server-side, expiry is
// embedded, and a single shared secret with HS256 is the only signing
// scheme accepted.
type TokenCodec struct {
	secret []byte
	issuer string
}

// NewTokenCodec creates a codec signing with the given shared secret.
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		issuer: "storefront",
	}
}

// Issue signs a token for the given subject, purpose and lifetime.
func (c *TokenCodec) Issue(subject uuid.UUID, purpose Purpose, ttl time.Duration) (string, error) {
	return c.sign(subject, false, purpose, ttl)
}

// IssueSession signs an access token that also carries the user's
// superuser flag.
func (c *TokenCodec) IssueSession(subject uuid.UUID, superuser bool, ttl time.Duration) (string, error) {
	return c.sign(subject, superuser, PurposeAccess, ttl)
}

func (c *TokenCodec) sign(subject uuid.UUID, superuser bool, purpose Purpose, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Superuser: superuser,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   subject.String(),
			Audience:  jwt.ClaimStrings{purpose.Audience()},
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token string and checks signature, expiry and audience
// against the expected purpose. The returned claims always contain a
// parseable subject.
func (c *TokenCodec) Verify(tokenString string, purpose Purpose) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithIssuer(c.issuer), jwt.WithAudience(purpose.Audience()))

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, ErrTokenAudienceMismatch
		default:
			return nil, ErrTokenMalformed
		}
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}

	if claims.Subject == "" {
		return nil, ErrTokenMissingSubject
	}
	if _, err := claims.UserID(); err != nil {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
