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

// CreateOfficer handles logistics officer creation in the principal's home
// tenant.
func CreateOfficer(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("officer", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		BadgeNumber string `json:"badge_number"`
		Phone       string `json:"phone"`
		Email       string `json:"email"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		prometheus.RecordError("incomplete_officer")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	officer := model.LogisticsOfficer{
		TenantID:    principal.TenantID,
		Name:        req.Name,
		BadgeNumber: req.BadgeNumber,
		Phone:       req.Phone,
		Email:       req.Email,
		Active:      true,
	}

	if result := database.GetDB().Create(&officer); result.Error != nil {
		log.Error("Failed to create officer", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "officer creation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Officer created successfully",
		"officer": officer,
	})
}

// ListOfficers returns the logistics officers visible to the principal.
func ListOfficers(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("officer", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindOfficer)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var officers []model.LogisticsOfficer
	if result := database.GetDB().Scopes(filter).Find(&officers); result.Error != nil {
		log.Error("Failed to retrieve officers", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve officers"})
	}

	return c.JSON(http.StatusOK, officers)
}

// GetOfficer retrieves one officer, re-verifying visibility after the
// primary-key fetch.
func GetOfficer(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("officer", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid officer ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var officer model.LogisticsOfficer
	if result := database.GetDB().First(&officer, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "officer not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &officer)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("officer")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "officer not found"})
	}

	return c.JSON(http.StatusOK, officer)
}
