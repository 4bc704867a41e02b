package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/trekware/fleetops/internal/tenantscope"
	"github.com/trekware/fleetops/pkg/jwtutil"
	"github.com/trekware/fleetops/pkg/logger"
	"github.com/trekware/fleetops/prometheus"
	"go.uber.org/zap"
)

const principalContextKey = "principal"

// JWTAuthMiddleware validates the bearer token and constructs the request's
// Principal. Handlers behind this middleware can rely on a fully resolved
// principal; anonymous or partial sessions never reach them.
func JWTAuthMiddleware(jwtUtil *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				log.Warn("Missing authorization header")
				prometheus.RecordError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				log.Warn("Invalid authorization header format")
				prometheus.RecordError("invalid_auth_format")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
			}

			claims, err := jwtUtil.ValidateToken(parts[1])
			if err != nil {
				log.Warn("Invalid or expired token", zap.Error(err))
				prometheus.RecordError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}

			principal := tenantscope.Principal{
				UserID:   claims.UserID,
				TenantID: claims.TenantID,
				Role:     tenantscope.Role(claims.Role),
			}

			if principal.TenantID == 0 || !principal.Role.Valid() {
				log.Warn("Session claims missing tenant or role",
					zap.Uint("user_id", claims.UserID),
					zap.String("role", claims.Role))
				prometheus.RecordError("incomplete_session")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "session missing tenant context"})
			}

			c.Set(principalContextKey, principal)
			log.Debug("Authenticated request",
				zap.Uint("user_id", principal.UserID),
				zap.Uint("tenant_id", principal.TenantID),
				zap.String("role", string(principal.Role)))

			return next(c)
		}
	}
}

// PrincipalFromEcho returns the principal resolved by JWTAuthMiddleware.
func PrincipalFromEcho(c echo.Context) (tenantscope.Principal, bool) {
	p, ok := c.Get(principalContextKey).(tenantscope.Principal)
	return p, ok
}

// SetPrincipal stores a principal on the echo context. Tests use this to
// run handlers without minting tokens.
func SetPrincipal(c echo.Context, p tenantscope.Principal) {
	c.Set(principalContextKey, p)
}
