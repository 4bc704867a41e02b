package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/trekware/fleetops/internal/middleware"
	"github.com/trekware/fleetops/internal/tenantscope"
	"github.com/trekware/fleetops/pkg/logger"
	"github.com/trekware/fleetops/prometheus"
)

// scope is the tenant-scope resolver shared by all handlers. Every list
// query and every get-by-id check goes through it; handlers never write
// their own tenant conditionals.
var scope *tenantscope.Resolver

// Init wires the resolver the handlers consult. Called once from main
// after the database is up.
func Init(resolver *tenantscope.Resolver) {
	scope = resolver
}

// requirePrincipal pulls the authenticated principal from the echo context.
// The bool result is false if the middleware did not run; the handler must
// return the response already written.
func requirePrincipal(c echo.Context) (tenantscope.Principal, bool, error) {
	p, ok := middleware.PrincipalFromEcho(c)
	if !ok {
		logger.FromEcho(c).Error("No principal in request context")
		prometheus.RecordError("missing_principal")
		return tenantscope.Principal{}, false, c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	return p, true, nil
}

// requireAdmin is requirePrincipal plus an ADMIN role check for the
// administrative mutation endpoints (tenant CRUD, entity re-homing).
func requireAdmin(c echo.Context) (tenantscope.Principal, bool, error) {
	p, ok, err := requirePrincipal(c)
	if !ok {
		return p, false, err
	}

	if !p.IsAdmin() {
		logger.FromEcho(c).Warn("Non-admin attempted administrative operation")
		prometheus.RecordError("admin_required")
		return p, false, c.JSON(http.StatusForbidden, echo.Map{"error": "admin role required"})
	}

	return p, true, nil
}
