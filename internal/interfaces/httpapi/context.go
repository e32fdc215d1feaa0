package httpapi

import (
	"context"

	"github.com/riskibarqy/zeal-league/internal/domain/user"
)

type ctxKey int

const (
	principalKey ctxKey = iota
	requestInfoKey
)

// requestInfo is shared by reference down the middleware chain so the access
// log can report who made the request after auth ran further in.
type requestInfo struct {
	userID string
}

func withPrincipal(ctx context.Context, p user.Principal) context.Context {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = p.UserID
	}
	return context.WithValue(ctx, principalKey, p)
}

func principalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey).(user.Principal)
	return p, ok
}

func withRequestInfo(ctx context.Context) (context.Context, *requestInfo) {
	info := &requestInfo{}
	return context.WithValue(ctx, requestInfoKey, info), info
}
