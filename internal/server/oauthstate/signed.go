package oauthstate

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophaccounts/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const stateAudience = "oauth-state"

// Signed is a stateless Issuer: the state is a short-lived HS256 JWT. It
// cannot detect replay within the validity window.
type Signed struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSigned(secret []byte, ttl time.Duration) *Signed {
	return &Signed{secret: secret, ttl: ttl, now: time.Now}
}

func (s *Signed) Issue(_ context.Context) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Audience:  jwt.ClaimStrings{stateAudience},
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	})

	st, err := token.SignedString(s.secret)
	if err != nil {
		return "", common.Internal(err)
	}
	return st, nil
}

func (s *Signed) Consume(_ context.Context, state string) error {
	if state == "" {
		return ErrInvalidState
	}

	_, err := jwt.ParseWithClaims(state, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(stateAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return ErrInvalidState
	}
	return nil
}
