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

// CreateDriver handles driver creation in the principal's home tenant.
func CreateDriver(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("driver", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		Name          string `json:"name"`
		LicenseNumber string `json:"license_number"`
		Phone         string `json:"phone"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse driver creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		prometheus.RecordError("incomplete_driver")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	driver := model.Driver{
		TenantID:      principal.TenantID,
		Name:          req.Name,
		LicenseNumber: req.LicenseNumber,
		Phone:         req.Phone,
		Active:        true,
	}

	if result := database.GetDB().Create(&driver); result.Error != nil {
		log.Error("Failed to create driver", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "driver creation failed"})
	}

	log.Info("Driver created",
		zap.Uint("id", driver.ID),
		zap.Uint("tenant_id", driver.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Driver created successfully",
		"driver":  driver,
	})
}

// ListDrivers returns the drivers visible to the principal.
func ListDrivers(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("driver", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindDriver)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var drivers []model.Driver
	if result := database.GetDB().Scopes(filter).Find(&drivers); result.Error != nil {
		log.Error("Failed to retrieve drivers", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve drivers"})
	}

	return c.JSON(http.StatusOK, drivers)
}

// GetDriver retrieves one driver, re-verifying visibility after the
// primary-key fetch.
func GetDriver(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("driver", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid driver ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var driver model.Driver
	if result := database.GetDB().First(&driver, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "driver not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &driver)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("driver")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "driver not found"})
	}

	return c.JSON(http.StatusOK, driver)
}

// ReassignDriverTenant moves a driver to another tenant. Admin only. No
// writes cascade to the driver's offenses: their visibility follows the
// driver's current tenant from the next read onward.
func ReassignDriverTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("driver", "reassign")

	_, ok, err := requireAdmin(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid driver ID"})
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

	var driver model.Driver
	if result := database.GetDB().First(&driver, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "driver not found"})
	}

	previous := driver.TenantID

	if result := database.GetDB().Model(&driver).Update("tenant_id", req.TenantID); result.Error != nil {
		log.Error("Failed to reassign driver", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "driver reassignment failed"})
	}

	prometheus.RecordTenantReassign("driver")
	log.Info("Driver reassigned to new tenant",
		zap.Uint("driver_id", driver.ID),
		zap.Uint("from_tenant", previous),
		zap.Uint("to_tenant", req.TenantID))

	return c.JSON(http.StatusOK, echo.Map{
		"message": "Driver reassigned successfully",
		"driver":  driver,
	})
}
