package main

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oliverisaac/pushdispatch/lib/guard"
	"github.com/oliverisaac/pushdispatch/lib/pushclient"
	"github.com/oliverisaac/pushdispatch/types"
	"github.com/sirupsen/logrus"
)

const UserKey = "request-user"

// UserAuth resolves the Authorization bearer token through the guard and
// stores the caller under UserKey.
func UserAuth(g *guard.Guard) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup:  "header:" + echo.HeaderAuthorization,
		AuthScheme: "Bearer",
		Validator: func(token string, c echo.Context) (bool, error) {
			user, err := g.AuthorizeUser(c.Request().Context(), token)
			if err != nil {
				return false, err
			}
			c.Set(UserKey, user)
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			if types.KindOf(err) != 0 {
				return err
			}
			// no header at all: still report config problems before auth ones
			if _, cfgErr := g.AuthorizeUser(c.Request().Context(), ""); types.KindOf(cfgErr) == types.KindConfig {
				return cfgErr
			}
			return types.AuthError("missing bearer token", err)
		},
	})
}

// ServiceAuth checks the shared service credential on dispatch triggers.
func ServiceAuth(g *guard.Guard) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + pushclient.ServiceKeyHeader,
		Validator: func(key string, c echo.Context) (bool, error) {
			if err := g.AuthorizeService(key); err != nil {
				return false, err
			}
			return true, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			if types.KindOf(err) != 0 {
				return err
			}
			if cfgErr := g.AuthorizeService(""); types.KindOf(cfgErr) == types.KindConfig {
				return cfgErr
			}
			return types.AuthzError("missing service credential")
		},
	})
}

func GetRequestUser(c echo.Context) (types.User, bool) {
	u := c.Get(UserKey)
	if u != nil {
		user := u.(types.User)
		logrus.Debugf("Found request user %s", user.ID)
		return user, true
	}
	return types.User{}, false
}
