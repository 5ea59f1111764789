package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/vedran77/dmcore/internal/domain"
	"github.com/vedran77/dmcore/pkg/validator"
)

const DefaultTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Tokens issues and verifies HS256 tokens whose subject is the caller's
// email identity.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

func (t *Tokens) Issue(identity string, ttl time.Duration) (string, error) {
	identity = domain.CanonicalIdentity(identity)
	if err := validator.ValidateEmail(identity); err != nil {
		return "", fmt.Errorf("token subject: %w", err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := t.now()
	claims := jwt.MapClaims{
		"sub": identity,
		"exp": now.Add(ttl).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse returns the canonical identity carried by a valid token.
func (t *Tokens) Parse(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || validator.ValidateEmail(sub) != nil {
		return "", ErrInvalidToken
	}
	return domain.CanonicalIdentity(sub), nil
}
