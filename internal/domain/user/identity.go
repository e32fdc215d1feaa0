package user

import (
	"context"
	"errors"
)

// Identity verification failures. Implementations of IdentityVerifier return
// one of these, wrapped, so callers can branch with errors.Is.
var (
	ErrTokenMissing        = errors.New("token is missing")
	ErrTokenInvalid        = errors.New("token is invalid")
	ErrTokenExpired        = errors.New("token is expired")
	ErrTokenInactive       = errors.New("token is inactive")
	ErrIdentityUnavailable = errors.New("identity provider unavailable")
)

// Principal is the authenticated caller resolved from a bearer token.
type Principal struct {
	UserID string
	Email  string
}

// IdentityVerifier resolves a bearer token to a Principal.
type IdentityVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (Principal, error)
}
