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

// CreateOffense records an offense against a driver. The driver must be
// visible to the principal; the offense itself stores no tenant — it will
// follow the driver wherever the driver is re-homed.
func CreateOffense(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("offense", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		DriverID    uint    `json:"driver_id"`
		Code        string  `json:"code"`
		Description string  `json:"description"`
		Points      int     `json:"points"`
		FineAmount  float64 `json:"fine_amount"`
		OccurredAt  string  `json:"occurred_at"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse offense creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.DriverID == 0 || req.Code == "" {
		prometheus.RecordError("incomplete_offense")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "driver_id and code are required"})
	}

	occurredAt := time.Now()
	if req.OccurredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.OccurredAt)
		if err != nil {
			prometheus.RecordError("invalid_request")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "occurred_at must be RFC3339"})
		}
		occurredAt = parsed
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var driver model.Driver
	if result := database.GetDB().First(&driver, req.DriverID); result.Error != nil {
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

	offense := model.Offense{
		DriverID:    req.DriverID,
		Code:        req.Code,
		Description: req.Description,
		Points:      req.Points,
		FineAmount:  req.FineAmount,
		OccurredAt:  occurredAt,
	}

	if result := database.GetDB().Create(&offense); result.Error != nil {
		log.Error("Failed to create offense", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "offense creation failed"})
	}

	log.Info("Offense recorded",
		zap.Uint("id", offense.ID),
		zap.Uint("driver_id", offense.DriverID),
		zap.String("code", offense.Code))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Offense recorded successfully",
		"offense": offense,
	})
}

// ListOffenses returns the offenses visible to the principal, optionally
// narrowed to one driver with ?driver_id=. The tenant filter joins through
// the driver's live tenant_id, so offenses of a re-homed driver appear for
// the new tenant immediately.
func ListOffenses(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("offense", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindOffense)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Scopes(filter)

	if driverParam := c.QueryParam("driver_id"); driverParam != "" {
		driverID, err := strconv.ParseUint(driverParam, 10, 32)
		if err != nil {
			prometheus.RecordError("invalid_id")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid driver_id"})
		}

		query = query.Where("driver_id = ?", driverID)
	}

	var offenses []model.Offense
	if result := query.Order("occurred_at DESC").Find(&offenses); result.Error != nil {
		log.Error("Failed to retrieve offenses", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve offenses"})
	}

	return c.JSON(http.StatusOK, offenses)
}

// GetOffense retrieves one offense, re-verifying visibility through the
// driver's current tenant after the primary-key fetch.
func GetOffense(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("offense", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid offense ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var offense model.Offense
	if result := database.GetDB().First(&offense, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offense not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &offense)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("owner_lookup_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("offense")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "offense not found"})
	}

	return c.JSON(http.StatusOK, offense)
}
