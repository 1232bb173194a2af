package backend

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// expirySkew refreshes slightly ahead of exp so a request does not race it.
const expirySkew = 10 * time.Second

// tokenExpired decodes the exp claim without verifying the signature; the
// server remains the authority. Opaque or exp-less tokens never count as
// expired.
func tokenExpired(token string, now time.Time) bool {
	if token == "" {
		return false
	}
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Before(claims.ExpiresAt.Add(-expirySkew))
}
