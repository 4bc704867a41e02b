package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/trekware/fleetops/internal/model"
	"github.com/trekware/fleetops/internal/tenantscope"
	"github.com/trekware/fleetops/pkg/database"
	"github.com/trekware/fleetops/pkg/logger"
	"github.com/trekware/fleetops/prometheus"
	"go.uber.org/zap"
)

// ListVehiclePings returns recent GPS pings for one vehicle. The pings
// carry no tenant themselves; the tenant filter joins through the
// vehicle's live tenant_id, so a re-homed vehicle's history moves with it.
func ListVehiclePings(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("gps_ping", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	vehicleID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle ID"})
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindGPSPing)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var pings []model.GpsPing
	result := database.GetDB().
		Scopes(filter).
		Where("vehicle_id = ?", vehicleID).
		Order("recorded_at DESC").
		Limit(200).
		Find(&pings)
	if result.Error != nil {
		log.Error("Failed to retrieve pings", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve pings"})
	}

	return c.JSON(http.StatusOK, pings)
}
