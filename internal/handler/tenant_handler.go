package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/trekware/fleetops/internal/model"
	"github.com/trekware/fleetops/pkg/database"
	"github.com/trekware/fleetops/pkg/logger"
	"github.com/trekware/fleetops/prometheus"
	"go.uber.org/zap"
)

// Tenant management is an administrative surface: tenants are the isolation
// boundaries themselves, so these endpoints require the ADMIN role rather
// than going through the scope resolver.

// CreateTenant handles tenant creation. Admin only.
func CreateTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("tenant", "create")

	_, ok, err := requireAdmin(c)
	if !ok {
		return err
	}

	var req struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Description string `json:"description"`
		Settings    string `json:"settings,omitempty"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Slug == "" || req.Name == "" {
		prometheus.RecordError("incomplete_tenant")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slug and name are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	tenant := model.Tenant{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		Settings:    req.Settings,
		Active:      true,
	}

	if result := database.GetDB().Create(&tenant); result.Error != nil {
		log.Error("Failed to create tenant", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "tenant creation failed"})
	}

	prometheus.ActiveTenantsGauge.Inc()
	log.Info("Tenant created",
		zap.Uint("id", tenant.ID),
		zap.String("slug", tenant.Slug))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Tenant created successfully",
		"tenant":  tenant,
	})
}

// ListTenants returns all tenants. Admin only.
func ListTenants(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("tenant", "list")

	_, ok, err := requireAdmin(c)
	if !ok {
		return err
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenants []model.Tenant
	if result := database.GetDB().Find(&tenants); result.Error != nil {
		log.Error("Failed to retrieve tenants", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve tenants"})
	}

	return c.JSON(http.StatusOK, tenants)
}

// GetTenant retrieves one tenant. Admin only.
func GetTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("tenant", "get")

	_, ok, err := requireAdmin(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tenant ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenant model.Tenant
	if result := database.GetDB().First(&tenant, id); result.Error != nil {
		log.Error("Tenant not found", zap.Uint64("id", id), zap.Error(result.Error))
		return c.JSON(http.StatusNotFound, echo.Map{"error": "tenant not found"})
	}

	return c.JSON(http.StatusOK, tenant)
}
