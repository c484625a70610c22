package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketauth/internal/utils"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sessionRequest(t *testing.T, m AuthMiddleware, authorization string) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := m.RequireSession(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	return rec, handler(c)
}

func TestRequireSessionValidToken(t *testing.T) {
	manager := &utils.JWTManager{Secret: []byte("secret"), SessionTokenTTL: time.Hour}
	token, _, err := manager.IssueSessionToken("6f1a1b1c-0000-0000-0000-000000000001", "Ada", "buyer")
	require.NoError(t, err)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	m := AuthMiddleware{JWT: manager}
	err = m.RequireSession(func(c echo.Context) error {
		principalID, ok := PrincipalIDFromContext(c)
		require.True(t, ok)
		assert.Equal(t, "6f1a1b1c-0000-0000-0000-000000000001", principalID.String())

		name, ok := PrincipalNameFromContext(c)
		require.True(t, ok)
		assert.Equal(t, "Ada", name)

		principalType, ok := PrincipalTypeFromContext(c)
		require.True(t, ok)
		assert.Equal(t, "buyer", principalType)
		return c.NoContent(http.StatusOK)
	})(c)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireSessionRejections(t *testing.T) {
	manager := &utils.JWTManager{Secret: []byte("secret"), SessionTokenTTL: time.Hour}
	m := AuthMiddleware{JWT: manager}

	expiredManager := &utils.JWTManager{Secret: []byte("secret"), SessionTokenTTL: -time.Minute}
	expired, _, err := expiredManager.IssueSessionToken("6f1a1b1c-0000-0000-0000-000000000001", "Ada", "buyer")
	require.NoError(t, err)

	otherManager := &utils.JWTManager{Secret: []byte("other"), SessionTokenTTL: time.Hour}
	forged, _, err := otherManager.IssueSessionToken("6f1a1b1c-0000-0000-0000-000000000001", "Ada", "buyer")
	require.NoError(t, err)

	badSubject, _, err := manager.IssueSessionToken("not-a-uuid", "Ada", "buyer")
	require.NoError(t, err)

	cases := []struct {
		name          string
		authorization string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.jwt"},
		{"expired token", "Bearer " + expired},
		{"wrong signature", "Bearer " + forged},
		{"non-uuid subject", "Bearer " + badSubject},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := sessionRequest(t, m, tc.authorization)
			var httpErr *echo.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
		})
	}
}
