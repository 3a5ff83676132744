package guard

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oliverisaac/pushdispatch/types"
	"github.com/pkg/errors"
)

type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// JWTVerifier verifies HS256 tokens issued by the identity provider. The
// subject claim is the user id.
type JWTVerifier struct {
	secret []byte
	issuer string
}

func NewJWTVerifier(secret []byte, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: secret, issuer: issuer}
}

func (v *JWTVerifier) Verify(_ context.Context, token string) (types.User, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return types.User{}, errors.Wrap(err, "parsing token")
	}
	if !parsed.Valid {
		return types.User{}, errors.New("token is not valid")
	}

	return types.User{ID: claims.Subject, Email: claims.Email}, nil
}

// SignUserToken mints a token JWTVerifier accepts. Used by pushctl and tests.
func SignUserToken(secret []byte, issuer, userID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: email,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return signed, nil
}
