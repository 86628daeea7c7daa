package auth

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/saturnines/gqlprobe/pkg/errors"
)

// TokenInfo is what the harness can read from an auth token without the
// signing key.
type TokenInfo struct {
	Username  string
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Claims    map[string]interface{}
}

// Expired reports whether the token carries an expiry that lies before now.
func (i TokenInfo) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}

// InspectToken decodes a JWT without verifying its signature or validating
// its time claims. The username comes from the "username" claim, falling
// back to the subject.
func InspectToken(token string) (TokenInfo, error) {
	if token == "" {
		return TokenInfo{}, errors.WrapError(fmt.Errorf("token is empty"), errors.ErrAuthentication, "inspect token")
	}

	t, err := jwt.ParseString(token, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		return TokenInfo{}, errors.WrapError(err, errors.ErrAuthentication, "inspect token")
	}

	info := TokenInfo{
		Subject:   t.Subject(),
		IssuedAt:  t.IssuedAt(),
		ExpiresAt: t.Expiration(),
		Claims:    t.PrivateClaims(),
	}
	if v, ok := t.Get("username"); ok {
		if s, ok := v.(string); ok {
			info.Username = s
		}
	}
	if info.Username == "" {
		info.Username = info.Subject
	}
	return info, nil
}
