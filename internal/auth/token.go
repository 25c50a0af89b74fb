package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sebastianrich18/link-shortener/internal/errx"
)

// claims is the JWT payload: the registered subject carries the user id, the
// role claim the user's role.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// IssuerConfig holds configuration for the token issuer.
type IssuerConfig struct {
	TTL time.Duration
	Now func() time.Time // clock override for tests
}

// NewIssuer creates a token issuer with the given signing secret.
func NewIssuer(secret []byte, config *IssuerConfig) *Issuer {
	if config == nil {
		config = &IssuerConfig{}
	}

	ttl := config.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}

	return &Issuer{secret: secret, ttl: ttl, now: now}
}

// Issue returns a signed token for the given user.
func (i *Issuer) Issue(userID int64, role string) (string, error) {
	const op = "auth.issuer.Issue"

	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", errx.E(op, errx.Internal, err)
	}
	return signed, nil
}

// Verify parses and validates a token and returns the identity it carries.
// Any failure, including expiry, is reported as errx.Unauthorized.
func (i *Issuer) Verify(tokenString string) (Identity, error) {
	const op = "auth.issuer.Verify"

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return Identity{}, errx.E(op, errx.Unauthorized, err)
	}
	if !token.Valid {
		return Identity{}, errx.E(op, errx.Unauthorized, errors.New("invalid token"))
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return Identity{}, errx.E(op, errx.Unauthorized,
			fmt.Errorf("malformed subject claim %q", c.Subject))
	}

	return Identity{ID: userID, Role: c.Role}, nil
}
