package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/angelmondragon/shoppingcart/api/responses"
	"github.com/angelmondragon/shoppingcart/api/validators"
	"github.com/angelmondragon/shoppingcart/internal/cart"
	pkgAuth "github.com/angelmondragon/shoppingcart/pkg/auth"
	"github.com/angelmondragon/shoppingcart/pkg/config"
	pkgerrors "github.com/angelmondragon/shoppingcart/pkg/errors"
	"github.com/angelmondragon/shoppingcart/pkg/logger"
	"github.com/google/uuid"
)

// SessionHeader carries the guest cart session in both directions.
const SessionHeader = "X-Cart-Session"

var sessionPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

// CartIdentity resolves who owns the cart for this request. A valid bearer
// token yields "user_<sub>". Without credentials the X-Cart-Session header is
// used, or a fresh session id is issued and echoed back. Session ids that
// look like user identifiers are replaced, never honoured. A bearer token that
// fails validation is rejected rather than downgraded to a guest cart.
func CartIdentity(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, err := userFromRequest(cfg, r)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}

			sessionID := ""
			if userID == "" {
				sessionID = strings.TrimSpace(r.Header.Get(SessionHeader))
				if !sessionPattern.MatchString(sessionID) || cart.IsUserIdentifier(sessionID) {
					sessionID = uuid.NewString()
				}
				w.Header().Set(SessionHeader, sessionID)
				ctx = context.WithValue(ctx, ctxSessionID, sessionID)
			} else {
				ctx = WithUserID(ctx, userID)
				if logg != nil {
					ctx = logg.WithUserID(ctx, userID)
				}
			}

			identifier, err := cart.UserOrSession(userID, sessionID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			ctx = WithCartIdentifier(ctx, identifier)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func userFromRequest(cfg config.JWTConfig, r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if strings.TrimSpace(header) == "" {
		return "", nil
	}
	if cfg.Secret == "" {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication is not enabled")
	}
	token, err := validators.BearerToken(header)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "missing credentials")
	}
	claims, err := pkgAuth.ParseUserToken(cfg, token)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}
	return claims.UserID(), nil
}
