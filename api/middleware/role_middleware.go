package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequirePrincipalType gates a route to sessions of the given principal
// type (buyer or vendor).
func RequirePrincipalType(principalType string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			currentType, ok := PrincipalTypeFromContext(c)
			if !ok || currentType != principalType {
				return echo.NewHTTPError(http.StatusForbidden, "forbidden")
			}
			return next(c)
		}
	}
}
