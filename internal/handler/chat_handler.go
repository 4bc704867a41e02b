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

// ListChatMessages returns the chat messages visible to the principal,
// optionally narrowed to one contact with ?contact_id=. The filter scopes
// by the contact's current tenant, so re-homed contacts take their
// conversation history with them.
func ListChatMessages(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("chat_message", "list")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	filter, err := scope.BuildFilter(principal, tenantscope.KindChatMessage)
	if err != nil {
		log.Error("Failed to build tenant filter", zap.Error(err))
		prometheus.RecordError("scope_config")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	query := database.GetDB().Scopes(filter)
	if raw := c.QueryParam("contact_id"); raw != "" {
		contactID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			prometheus.RecordError("invalid_id")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid contact ID"})
		}
		query = query.Where("contact_id = ?", contactID)
	}

	var messages []model.ChatMessage
	if result := query.Order("sent_at DESC").Find(&messages); result.Error != nil {
		log.Error("Failed to retrieve chat messages", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to retrieve messages"})
	}

	return c.JSON(http.StatusOK, messages)
}

// GetChatMessage retrieves one message, re-verifying visibility through
// the owning contact after the primary-key fetch.
func GetChatMessage(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RecordEntityOperation("chat_message", "get")

	principal, ok, err := requirePrincipal(c)
	if !ok {
		return err
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		prometheus.RecordError("invalid_id")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid message ID"})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())

	var message model.ChatMessage
	if result := database.GetDB().First(&message, id); result.Error != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
	}

	visible, err := scope.IsVisible(c.Request().Context(), principal, &message)
	if err != nil {
		log.Error("Visibility check failed", zap.Error(err))
		prometheus.RecordError("scope_check")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	if !visible {
		prometheus.RecordScopeDenied("chat_message")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
	}

	return c.JSON(http.StatusOK, message)
}
