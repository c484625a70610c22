package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	contextPrincipalIDKey   = "session_principal_id"
	contextPrincipalName    = "session_principal_name"
	contextPrincipalTypeKey = "session_principal_type"
)

func SetSessionContext(c echo.Context, principalID uuid.UUID, name string, principalType string) {
	c.Set(contextPrincipalIDKey, principalID)
	c.Set(contextPrincipalName, name)
	c.Set(contextPrincipalTypeKey, principalType)
}

func PrincipalIDFromContext(c echo.Context) (uuid.UUID, bool) {
	value := c.Get(contextPrincipalIDKey)
	principalID, ok := value.(uuid.UUID)
	return principalID, ok
}

func PrincipalNameFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextPrincipalName)
	name, ok := value.(string)
	return name, ok
}

func PrincipalTypeFromContext(c echo.Context) (string, bool) {
	value := c.Get(contextPrincipalTypeKey)
	principalType, ok := value.(string)
	return principalType, ok
}
