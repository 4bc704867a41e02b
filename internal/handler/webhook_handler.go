package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/trekware/fleetops/internal/model"
	"github.com/trekware/fleetops/pkg/database"
	"github.com/trekware/fleetops/pkg/logger"
	"github.com/trekware/fleetops/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// webhookToken is the shared secret external providers present in the
// X-Webhook-Token header. Set once from config at startup.
var webhookToken string

// InitWebhooks configures the shared webhook secret.
func InitWebhooks(token string) {
	webhookToken = token
}

// checkWebhookToken verifies the shared secret. Webhook requests carry no
// user session; the stored row's visibility is determined later by its
// owner's tenant, so ingestion itself needs no principal.
func checkWebhookToken(c echo.Context) bool {
	if webhookToken == "" {
		return false
	}

	given := c.Request().Header.Get("X-Webhook-Token")
	return subtle.ConstantTimeCompare([]byte(given), []byte(webhookToken)) == 1
}

// IngestGpsPing accepts a position report from the GPS tracking provider
// and attaches it to the vehicle matching the plate number. The ping has
// no tenant of its own; it follows the vehicle's current tenant.
func IngestGpsPing(c echo.Context) error {
	log := logger.FromEcho(c)

	if !checkWebhookToken(c) {
		prometheus.RecordWebhook("gps", "rejected")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook token"})
	}

	var req struct {
		PlateNumber string  `json:"plate_number"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		SpeedKph    float64 `json:"speed_kph"`
		Heading     float64 `json:"heading"`
		RecordedAt  string  `json:"recorded_at"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordWebhook("gps", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	if req.PlateNumber == "" {
		prometheus.RecordWebhook("gps", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "plate_number is required"})
	}

	recordedAt := time.Now()
	if req.RecordedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.RecordedAt)
		if err != nil {
			prometheus.RecordWebhook("gps", "rejected")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "recorded_at must be RFC3339"})
		}
		recordedAt = parsed
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var vehicle model.Vehicle
	result := database.GetDB().Where("plate_number = ?", req.PlateNumber).First(&vehicle)
	if result.Error == gorm.ErrRecordNotFound {
		log.Warn("GPS ping for unknown vehicle", zap.String("plate", req.PlateNumber))
		prometheus.RecordWebhook("gps", "unmatched")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "vehicle not found"})
	}

	if result.Error != nil {
		log.Error("Failed to look up vehicle", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	ping := model.GpsPing{
		VehicleID:  vehicle.ID,
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		SpeedKph:   req.SpeedKph,
		Heading:    req.Heading,
		RecordedAt: recordedAt,
	}

	if result := database.GetDB().Create(&ping); result.Error != nil {
		log.Error("Failed to store GPS ping", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store ping"})
	}

	prometheus.RecordWebhook("gps", "accepted")
	return c.JSON(http.StatusAccepted, echo.Map{"message": "ping accepted", "id": ping.ID})
}

// IngestWhatsAppMessage accepts an inbound message from the WhatsApp
// gateway and attaches it to the contact matching the phone number. The
// message follows the contact's current tenant.
func IngestWhatsAppMessage(c echo.Context) error {
	log := logger.FromEcho(c)

	if !checkWebhookToken(c) {
		prometheus.RecordWebhook("whatsapp", "rejected")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid webhook token"})
	}

	var req struct {
		Phone      string `json:"phone"`
		Body       string `json:"body"`
		ExternalID string `json:"external_id"`
		SentAt     string `json:"sent_at"`
	}

	if err := c.Bind(&req); err != nil {
		prometheus.RecordWebhook("whatsapp", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}

	if req.Phone == "" {
		prometheus.RecordWebhook("whatsapp", "rejected")
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}

	sentAt := time.Now()
	if req.SentAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.SentAt)
		if err != nil {
			prometheus.RecordWebhook("whatsapp", "rejected")
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "sent_at must be RFC3339"})
		}
		sentAt = parsed
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	var contact model.Contact
	result := database.GetDB().Where("phone = ?", req.Phone).First(&contact)
	if result.Error == gorm.ErrRecordNotFound {
		log.Warn("WhatsApp message from unknown contact", zap.String("phone", req.Phone))
		prometheus.RecordWebhook("whatsapp", "unmatched")
		return c.JSON(http.StatusNotFound, echo.Map{"error": "contact not found"})
	}

	if result.Error != nil {
		log.Error("Failed to look up contact", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	message := model.ChatMessage{
		ContactID:  contact.ID,
		Direction:  model.MessageInbound,
		Body:       req.Body,
		ExternalID: req.ExternalID,
		SentAt:     sentAt,
	}

	if result := database.GetDB().Create(&message); result.Error != nil {
		log.Error("Failed to store message", zap.Error(result.Error))
		prometheus.RecordError("db_error")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to store message"})
	}

	prometheus.RecordWebhook("whatsapp", "accepted")
	return c.JSON(http.StatusAccepted, echo.Map{"message": "message accepted", "id": message.ID})
}
