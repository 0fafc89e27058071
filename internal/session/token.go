package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenWellFormed reports whether raw parses as a JWT. The client holds
// no signing key, so the signature is not verified; validity is the
// server's concern. This only guards against corrupt persisted state.
func tokenWellFormed(raw string) bool {
	_, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	return err == nil
}

// TokenExpiry extracts the exp claim from an access token without
// verifying the signature. Returns false when the token is malformed or
// carries no expiry.
func TokenExpiry(raw string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
