package middleware

import (
	"context"

	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
)

type contextKey string

const (
	ctxUserID    contextKey = "user_id"
	ctxSessionID contextKey = "session_id"
	ctxCartOwner contextKey = "cart_identifier"
)

func UserIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxUserID)
}

func SessionIDFromContext(ctx context.Context) string {
	return stringFromContext(ctx, ctxSessionID)
}

// CartIdentifier satisfies cart.IdentifierFunc for requests that went
// through CartIdentity.
func CartIdentifier(ctx context.Context) (string, error) {
	if id := stringFromContext(ctx, ctxCartOwner); id != "" {
		return id, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "cart identity missing from request context")
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithCartIdentifier stores the resolved cart owner. Tests use it to bypass
// CartIdentity.
func WithCartIdentifier(ctx context.Context, identifier string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartOwner, identifier)
}

func stringFromContext(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
