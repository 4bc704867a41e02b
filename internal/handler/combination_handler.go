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

// CreateCombination pairs a tractor and optional trailer into a named
// combination. Both vehicles must be visible to the principal.
func CreateCombination(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("vehicle_combination", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		Name      string `json:"name"`
		TractorID uint   `json:"tractor_id"`
		TrailerID *uint  `json:"trailer_id"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.TractorID == 0 {
		prometheus.RecordError("incomplete_combination")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and tractor_id are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	memberIDs := []uint{req.TractorID}
	if req.TrailerID != nil {
		memberIDs = append(memberIDs, *req.TrailerID)
	}

	for _, vehicleID := range memberIDs {
		var vehicle model.Vehicle
		if result := database.GetDB().First(&vehicle, vehicleID); result.Error != nil {
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
	}

	combination := model.VehicleCombination{
		TenantID:  principal.TenantID,
		Name:      req.Name,
		TractorID: req.TractorID,
		TrailerID: req.TrailerID,
		Active:    true,
	}

	if result := database.GetDB().Create(&combination); result.Error != nil {
		log.Error("Failed to create combination", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "combination creation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message":     "Combination created successfully",
		"combination": combination,
	})
}

// ListCombinations returns the vehicle combinations visible to the
// principal.
func ListCombinations(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("vehicle_combination", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindVehicleCombination)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var combinations []model.VehicleCombination
	if result := database.GetDB().Scopes(filter).Preload("Tractor").Preload("Trailer").Find(&combinations); result.Error != nil {
		log.Error("Failed to retrieve combinations", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve combinations"})
	}

	return c.JSON(http.StatusOK, combinations)
}

// GetCombination retrieves one combination, re-verifying visibility after
// the primary-key fetch.
func GetCombination(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("vehicle_combination", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid combination ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var combination model.VehicleCombination
	if result := database.GetDB().Preload("Tractor").Preload("Trailer").First(&combination, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "combination not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &combination)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("vehicle_combination")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "combination not found"})
	}

	return c.JSON(http.StatusOK, combination)
}
