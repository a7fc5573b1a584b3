package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"clinic-console/internal/auth"
	"clinic-console/internal/model"
)

type ctxKey string

const claimsKey ctxKey = "claims"

// Revocations answers whether a token was logged out.
type Revocations interface {
	Revoked(hash string) bool
}

// Auth requires a valid bearer token on every request it wraps.
func Auth(secret string, rev Revocations) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// token from Authorization: Bearer <jwt>
			raw := strings.TrimPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "no token")
			}

			claims, err := auth.ParseToken(raw, secret)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "bad token")
			}
			if rev != nil && rev.Revoked(auth.HashToken(raw)) {
				return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
			}

			ctx := context.WithValue(c.Request().Context(), claimsKey, claims)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func ClaimsFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok
}

// RequireRole lets the request through when the caller holds one of roles.
// Admins pass every role check.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c.Request().Context())
			if ok {
				for _, has := range claims.Roles {
					if has == string(model.RoleAdmin) {
						return next(c)
					}
					for _, required := range roles {
						if has == string(required) {
							return next(c)
						}
					}
				}
			}
			names := make([]string, len(roles))
			for i, r := range roles {
				names[i] = string(r)
			}
			return echo.NewHTTPError(http.StatusForbidden,
				fmt.Sprintf("required role: %s", strings.Join(names, " or ")))
		}
	}
}
