// Package guard authorizes callers. User routes present a bearer token that
// is resolved to an identity; the dispatch route presents a shared service key.
package guard

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/oliverisaac/pushdispatch/types"
)

// IdentityVerifier resolves a bearer token to the user it was issued for.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (types.User, error)
}

// Guard holds no session state; every call re-validates.
type Guard struct {
	verifier   IdentityVerifier
	serviceKey string
}

// New returns a Guard. A nil verifier or an empty service key leave the
// corresponding check unconfigured, which is reported as a config error.
func New(verifier IdentityVerifier, serviceKey string) *Guard {
	return &Guard{
		verifier:   verifier,
		serviceKey: serviceKey,
	}
}

func (g *Guard) AuthorizeUser(ctx context.Context, bearerToken string) (types.User, error) {
	if g.verifier == nil {
		return types.User{}, types.ConfigErrorf("identity verification is not configured")
	}

	token := strings.TrimSpace(bearerToken)
	if t, ok := strings.CutPrefix(token, "Bearer "); ok {
		token = strings.TrimSpace(t)
	}
	if token == "" {
		return types.User{}, types.AuthError("missing bearer token", nil)
	}

	user, err := g.verifier.Verify(ctx, token)
	if err != nil {
		return types.User{}, types.AuthError("invalid bearer token", err)
	}
	if !user.IsSet() {
		return types.User{}, types.AuthError("token has no subject", nil)
	}
	return user, nil
}

func (g *Guard) AuthorizeService(presentedKey string) error {
	if g.serviceKey == "" {
		return types.ConfigErrorf("service credential is not configured")
	}
	if presentedKey == "" {
		return types.AuthzError("missing service credential")
	}
	if subtle.ConstantTimeCompare([]byte(presentedKey), []byte(g.serviceKey)) != 1 {
		return types.AuthzError("invalid service credential")
	}
	return nil
}
