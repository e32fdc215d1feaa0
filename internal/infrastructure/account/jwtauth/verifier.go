package jwtauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riskibarqy/zeal-league/internal/domain/user"
	"github.com/riskibarqy/zeal-league/internal/usecase"
)

type claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Verifier validates HS256 tokens signed with a shared secret. Used when the
// deployment issues its own tokens instead of introspecting through Anubis.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
	now    func() time.Time
}

func NewVerifier(secret, issuer string) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Verifier{
		secret: []byte(secret),
		issuer: strings.TrimSpace(issuer),
		leeway: 30 * time.Second,
		now:    time.Now,
	}, nil
}

func (v *Verifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, user.ErrTokenMissing)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return user.Principal{}, fmt.Errorf("%w: %w", usecase.ErrUnauthorized, user.ErrTokenExpired)
		}
		return user.Principal{}, fmt.Errorf("%w: %w: %w", usecase.ErrUnauthorized, user.ErrTokenInvalid, err)
	}

	subject := strings.TrimSpace(parsed.Subject)
	if subject == "" {
		return user.Principal{}, fmt.Errorf("%w: %w: subject is empty", usecase.ErrUnauthorized, user.ErrTokenInvalid)
	}

	return user.Principal{
		UserID: subject,
		Email:  strings.TrimSpace(parsed.Email),
	}, nil
}

// Issue signs a token for subject. Used by the seed tooling and tests.
func (v *Verifier) Issue(subject, email string, ttl time.Duration) (string, error) {
	now := v.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := tok.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}
