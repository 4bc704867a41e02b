package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trekware/fleetops/internal/middleware"
	"github.com/trekware/fleetops/internal/tenantscope"
	"github.com/trekware/fleetops/pkg/jwtutil"
)

func newJWTUtil() *jwtutil.JWTUtil {
	return jwtutil.NewJWTUtil(&jwtutil.JWTConfig{
		SigningKey:      "test-signing-key",
		ExpirationHours: 1,
	})
}

// runAuth sends a request through JWTAuthMiddleware and reports the
// principal the inner handler observed, if it ran at all.
func runAuth(t *testing.T, jwtUtil *jwtutil.JWTUtil, authHeader string) (*httptest.ResponseRecorder, *tenantscope.Principal) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *tenantscope.Principal
	handler := middleware.JWTAuthMiddleware(jwtUtil)(func(c echo.Context) error {
		p, ok := middleware.PrincipalFromEcho(c)
		require.True(t, ok)
		seen = &p
		return c.NoContent(http.StatusOK)
	})

	require.NoError(t, handler(c))
	return rec, seen
}

func TestJWTAuthResolvesPrincipal(t *testing.T) {
	jwtUtil := newJWTUtil()

	token, err := jwtUtil.GenerateToken("ops@acme.test", 42, 7, string(tenantscope.RoleOperator))
	require.NoError(t, err)

	rec, principal := runAuth(t, jwtUtil, "Bearer "+token)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, principal)
	assert.Equal(t, uint(42), principal.UserID)
	assert.Equal(t, uint(7), principal.TenantID)
	assert.Equal(t, tenantscope.RoleOperator, principal.Role)
	assert.False(t, principal.IsAdmin())
}

func TestJWTAuthRejectsBadTokens(t *testing.T) {
	jwtUtil := newJWTUtil()

	validToken, err := jwtUtil.GenerateToken("ops@acme.test", 42, 7, string(tenantscope.RoleViewer))
	require.NoError(t, err)

	foreign := jwtutil.NewJWTUtil(&jwtutil.JWTConfig{SigningKey: "other-key", ExpirationHours: 1})
	foreignToken, err := foreign.GenerateToken("ops@acme.test", 42, 7, string(tenantscope.RoleViewer))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic " + validToken},
		{"garbage token", "Bearer not-a-jwt"},
		{"wrong signing key", "Bearer " + foreignToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, principal := runAuth(t, jwtUtil, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, principal)
		})
	}
}

func TestJWTAuthRejectsIncompleteSessions(t *testing.T) {
	jwtUtil := newJWTUtil()

	// No home tenant.
	token, err := jwtUtil.GenerateToken("ops@acme.test", 42, 0, string(tenantscope.RoleOperator))
	require.NoError(t, err)

	rec, principal := runAuth(t, jwtUtil, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, principal)

	// Unknown role.
	token, err = jwtUtil.GenerateToken("ops@acme.test", 42, 7, "SUPERUSER")
	require.NoError(t, err)

	rec, principal = runAuth(t, jwtUtil, "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, principal)
}
