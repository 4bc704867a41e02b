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

// CreateClient handles client creation. The new row is stamped with the
// principal's home tenant.
func CreateClient(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("client", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		Name         string `json:"name"`
		ContactEmail string `json:"contact_email"`
		Phone        string `json:"phone"`
		Address      string `json:"address"`
	}

	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse client creation request", zap.Error(err))
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" {
		prometheus.RecordError("incomplete_client")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	client := model.Client{
		TenantID:     principal.TenantID,
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		Phone:        req.Phone,
		Address:      req.Address,
		Active:       true,
	}

	if result := database.GetDB().Create(&client); result.Error != nil {
		log.Error("Failed to create client", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "client creation failed"})
	}

	log.Info("Client created",
		zap.Uint("id", client.ID),
		zap.Uint("tenant_id", client.TenantID))

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Client created successfully",
		"client":  client,
	})
}

// ListClients returns the clients visible to the principal: all tenants for
// admins, the home tenant only for everyone else.
func ListClients(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("client", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindClient)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var clients []model.Client
	if result := database.GetDB().Scopes(filter).Find(&clients); result.Error != nil {
		log.Error("Failed to retrieve clients", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve clients"})
	}

	return c.JSON(http.StatusOK, clients)
}

// GetClient retrieves one client by id. The primary-key fetch bypasses the
// list filter, so visibility is re-verified before the row is returned;
// an invisible row reads as not-found to avoid leaking its existence.
func GetClient(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("client", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var client model.Client
	if result := database.GetDB().First(&client, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &client)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("client")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	return c.JSON(http.StatusOK, client)
}

// UpdateClient updates mutable client fields after re-verifying visibility.
func UpdateClient(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("client", "update")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client ID"})
	}

	var req struct {
		Name         *string `json:"name"`
		ContactEmail *string `json:"contact_email"`
		Phone        *string `json:"phone"`
		Address      *string `json:"address"`
		Active       *bool   `json:"active"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	var client model.Client
	if result := database.GetDB().First(&client, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &client)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("client")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.ContactEmail != nil {
		client.ContactEmail = *req.ContactEmail
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.Address != nil {
		client.Address = *req.Address
	}
	if req.Active != nil {
		client.Active = *req.Active
	}

	if result := database.GetDB().Save(&client); result.Error != nil {
		log.Error("Failed to update client", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "client update failed"})
	}

	return c.JSON(http.StatusOK, client)
}

// DeleteClient soft-deletes a client after re-verifying visibility.
func DeleteClient(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("client", "delete")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid client ID"})
	}

	defer prometheus.TrackDBOperation("delete")(time.Now())

	var client model.Client
	if result := database.GetDB().First(&client, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &client)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("client")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "client not found"})
	}

	if result := database.GetDB().Delete(&client); result.Error != nil {
		log.Error("Failed to delete client", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "client deletion failed"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Client deleted successfully"})
}
