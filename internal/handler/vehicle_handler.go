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

// CreateVehicle handles vehicle creation in the principal's home tenant.
func CreateVehicle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("vehicle", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		PlateNumber  string `json:"plate_number"`
		Make         string `json:"make"`
		Model        string `json:"model"`
		Year         int    `json:"year"`
		Registration string `json:"registration"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse vehicle creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.PlateNumber == "" {
		prometheus.RecordError("incomplete_vehicle")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate_number is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	vehicle := model.Vehicle{
		TenantID:     principal.TenantID,
		PlateNumber:  req.PlateNumber,
		Make:         req.Make,
		Model:        req.Model,
		Year:         req.Year,
		Registration: req.Registration,
		Active:       true,
	}

	if result := database.GetDB().Create(&vehicle); result.Error != nil {
		log.Error("Failed to create vehicle", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vehicle creation failed"})
	}

	log.Info("Vehicle created",
		zap.Uint("id", vehicle.ID),
		zap.String("plate", vehicle.PlateNumber),
		zap.Uint("tenant_id", vehicle.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Vehicle created successfully",
		"vehicle": vehicle,
	})
}

// ListVehicles returns the vehicles visible to the principal.
func ListVehicles(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("vehicle", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindVehicle)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var vehicles []model.Vehicle
	if result := database.GetDB().Scopes(filter).Find(&vehicles); result.Error != nil {
		log.Error("Failed to retrieve vehicles", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve vehicles"})
	}

	return c.JSON(http.StatusOK, vehicles)
}

// GetVehicle retrieves one vehicle, re-verifying visibility after the
// primary-key fetch.
func GetVehicle(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("vehicle", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var vehicle model.Vehicle
	if result := database.GetDB().First(&vehicle, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &vehicle)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("vehicle")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	return c.JSON(http.StatusOK, vehicle)
}

// ReassignVehicleTenant moves a vehicle to another tenant. Admin only.
// GPS pings follow the vehicle's current tenant automatically; nothing is
// rewritten on the pings themselves.
func ReassignVehicleTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("vehicle", "reassign")

	_, ok, err := requireAdmin(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid vehicle ID"})
	}

	var req struct {
		TenantID uint `json:"tenant_id"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.TenantID == 0 {
		prometheus.RecordError("invalid_tenant_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tenant_id is required"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, req.TenantID); result.Error != nil {
		prometheus.RecordError("tenant_not_found")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	var vehicle model.Vehicle
	if result := database.GetDB().First(&vehicle, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	previous := vehicle.TenantID

	if result := database.GetDB().Model(&vehicle).Update("tenant_id", req.TenantID); result.Error != nil {
		log.Error("Failed to reassign vehicle", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "vehicle reassignment failed"})
	}

	prometheus.RecordTenantReassign("vehicle")
	log.Info("Vehicle reassigned to new tenant",
		zap.Uint("vehicle_id", vehicle.ID),
		zap.Uint("from_tenant", previous),
		zap.Uint("to_tenant", req.TenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Vehicle reassigned successfully",
		"vehicle": vehicle,
	})
}
