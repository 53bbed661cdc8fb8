package auth

import "github.com/golang-jwt/jwt/v5"

// UserClaims identifies an authenticated shopper. The user id travels in the
// registered "sub" claim.
type UserClaims struct {
	jwt.RegisteredClaims
}

// UserID returns the subject claim.
func (c *UserClaims) UserID() string {
	return c.Subject
}
