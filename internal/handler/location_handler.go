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

// CreateLocation handles location creation in the principal's home tenant.
func CreateLocation(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("location", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		Name      string  `json:"name"`
		Address   string  `json:"address"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		prometheus.RecordError("incomplete_location")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	location := model.Location{
		TenantID:  principal.TenantID,
		Name:      req.Name,
		Address:   req.Address,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}

	if result := database.GetDB().Create(&location); result.Error != nil {
		log.Error("Failed to create location", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "location creation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Location created successfully",
		"location": location,
	})
}

// ListLocations returns the locations visible to the principal.
func ListLocations(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("location", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindLocation)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var locations []model.Location
	if result := database.GetDB().Scopes(filter).Find(&locations); result.Error != nil {
		log.Error("Failed to retrieve locations", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve locations"})
	}

	return c.JSON(http.StatusOK, locations)
}

// GetLocation retrieves one location, re-verifying visibility after the
// primary-key fetch.
func GetLocation(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("location", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid location ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var location model.Location
	if result := database.GetDB().First(&location, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &location)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("location")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "location not found"})
	}

	return c.JSON(http.StatusOK, location)
}
