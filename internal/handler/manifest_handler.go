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

// CreateManifest creates a manifest in the principal's home tenant. The
// assigned driver and vehicle, when given, must be visible to the principal
// at assignment time.
func CreateManifest(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("manifest", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		Reference     string `json:"reference"`
		ClientID      *uint  `json:"client_id"`
		DriverID      *uint  `json:"driver_id"`
		VehicleID     *uint  `json:"vehicle_id"`
		OriginID      *uint  `json:"origin_id"`
		DestinationID *uint  `json:"destination_id"`
		Notes         string `json:"notes"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Reference == "" {
		prometheus.RecordError("incomplete_manifest")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "reference is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	if req.DriverID != nil {
		var driver model.Driver
		if result := database.GetDB().First(&driver, *req.DriverID); result.Error != nil {
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
	}

	if req.VehicleID != nil {
		var vehicle model.Vehicle
		if result := database.GetDB().First(&vehicle, *req.VehicleID); result.Error != nil {
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

	manifest := model.Manifest{
		TenantID:      principal.TenantID,
		Reference:     req.Reference,
		Status:        model.ManifestStatusDraft,
		ClientID:      req.ClientID,
		DriverID:      req.DriverID,
		VehicleID:     req.VehicleID,
		OriginID:      req.OriginID,
		DestinationID: req.DestinationID,
		Notes:         req.Notes,
	}

	if result := database.GetDB().Create(&manifest); result.Error != nil {
		log.Error("Failed to create manifest", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "manifest creation failed"})
	}

	log.Info("Manifest created",
		zap.Uint("id", manifest.ID),
		zap.String("reference", manifest.Reference),
		zap.Uint("tenant_id", manifest.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message":  "Manifest created successfully",
		"manifest": manifest,
	})
}

// ListManifests returns the manifests visible to the principal, optionally
// filtered by ?status=.
func ListManifests(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("manifest", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindManifest)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Scopes(filter)
	if status := c.QueryParam("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var manifests []model.Manifest
	if result := query.Order("created_at DESC").Find(&manifests); result.Error != nil {
		log.Error("Failed to retrieve manifests", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve manifests"})
	}

	return c.JSON(http.StatusOK, manifests)
}

// GetManifest retrieves one manifest with its relations, re-verifying
// visibility after the primary-key fetch.
func GetManifest(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("manifest", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid manifest ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var manifest model.Manifest
	result := database.GetDB().
		Preload("Client").Preload("Driver").Preload("Vehicle").
		Preload("Origin").Preload("Destination").
		First(&manifest, id)
	if result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manifest not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &manifest)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("manifest")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manifest not found"})
	}

	return c.JSON(http.StatusOK, manifest)
}

// UpdateManifestStatus advances a manifest through its lifecycle.
func UpdateManifestStatus(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("manifest", "update_status")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid manifest ID"})
	}

	var req struct {
		Status string `json:"status"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	switch req.Status {
	case model.ManifestStatusDraft, model.ManifestStatusDispatched,
		model.ManifestStatusInTransit, model.ManifestStatusDelivered,
		model.ManifestStatusCancelled:
	default:
		prometheus.RecordError("invalid_status")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var manifest model.Manifest
	if result := database.GetDB().First(&manifest, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manifest not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &manifest)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("manifest")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "manifest not found"})
	}

	if result := database.GetDB().Model(&manifest).Update("status", req.Status); result.Error != nil {
		log.Error("Failed to update manifest status", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "manifest update failed"})
	}

	log.Info("Manifest status updated",
		zap.Uint("id", manifest.ID),
		zap.String("status", req.Status))

	return c.JSON(http.StatusOK, manifest)
}
