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

// CreateContact handles contact creation in the principal's home tenant.
func CreateContact(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("contact", "create")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Company string `json:"company"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordError("invalid_request")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Name == "" || req.Phone == "" {
		prometheus.RecordError("incomplete_contact")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name and phone are required"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	contact := model.Contact{
		TenantID: principal.TenantID,
		Name:     req.Name,
		Phone:    req.Phone,
		Email:    req.Email,
		Company:  req.Company,
	}

	if result := database.GetDB().Create(&contact); result.Error != nil {
		log.Error("Failed to create contact", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "contact creation failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Contact created successfully",
		"contact": contact,
	})
}

// ListContacts returns the contacts visible to the principal.
func ListContacts(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("contact", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindContact)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var contacts []model.Contact
	if result := database.GetDB().Scopes(filter).Find(&contacts); result.Error != nil {
		log.Error("Failed to retrieve contacts", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve contacts"})
	}

	return c.JSON(http.StatusOK, contacts)
}

// GetContact retrieves one contact with its recent messages, re-verifying
// visibility after the primary-key fetch.
func GetContact(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("contact", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var contact model.Contact
	if result := database.GetDB().First(&contact, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &contact)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("contact")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	var messages []model.ChatMessage
	if result := database.GetDB().Where("contact_id = ?", contact.ID).Order("sent_at DESC").Limit(50).Find(&messages); result.Error != nil {
		log.Error("Failed to retrieve contact messages", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve messages"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"contact":  contact,
		"messages": messages,
	})
}
