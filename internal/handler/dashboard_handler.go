package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/trekware/fleetops/internal/model"
	"github.com/trekware/fleetops/internal/tenantscope"
	"github.com/trekware/fleetops/pkg/database"
	"github.com/trekware/fleetops/pkg/logger"
	"github.com/trekware/fleetops/prometheus"
	"go.uber.org/zap"
)

// DashboardSummary returns per-kind row counts through the same tenant
// filters the list endpoints use, so the dashboard can never show a number
// the principal could not list.
func DashboardSummary(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("dashboard", "summary")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	counts := echo.Map{}

	kinds := []struct {
		kind  tenantscope.EntityKind
		model interface{}
	}{
		{tenantscope.KindClient, &model.Client{}},
		{tenantscope.KindDriver, &model.Driver{}},
		{tenantscope.KindVehicle, &model.Vehicle{}},
		{tenantscope.KindManifest, &model.Manifest{}},
		{tenantscope.KindOffense, &model.Offense{}},
	}

	for _, entry := range kinds {
		filter, err := scope.BuildFilter(principal, entry.kind)
		if err != nil {
			log.Error("Failed to build tenant filter", zap.Error(err))
			prometheus.RecordError("scope_config")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
		}

		var count int64
		if result := database.GetDB().Model(entry.model).Scopes(filter).Count(&count); result.Error != nil {
			log.Error("Failed to count entities",
				zap.String("kind", string(entry.kind)),
				zap.Error(result.Error))
			prometheus.RecordError("db_error")
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to build summary"})
		}

		counts[string(entry.kind)+"s"] = count
	}

	return c.JSON(http.StatusOK, echo.Map{
		"tenant_id": principal.TenantID,
		"role":      principal.Role,
		"counts":    counts,
	})
}
