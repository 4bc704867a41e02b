package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trekware/fleetops/internal/handler"
	"github.com/trekware/fleetops/internal/middleware"
	"github.com/trekware/fleetops/internal/model"
	"github.com/trekware/fleetops/internal/tenantscope"
	"github.com/trekware/fleetops/pkg/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testWebhookToken = "test-webhook-secret"

// setupTest wires an in-memory database into the handler package globals
// and returns it for seeding.
func setupTest(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.Client{},
		&model.Driver{},
		&model.Vehicle{},
		&model.Contact{},
		&model.Offense{},
		&model.GpsPing{},
		&model.ChatMessage{},
	))

	database.SetDB(db)
	handler.Init(tenantscope.New(tenantscope.NewOwnerLookup(db)))
	handler.InitWebhooks(testWebhookToken)

	return db
}

func seedTenantPair(t *testing.T, db *gorm.DB) (model.Tenant, model.Tenant) {
	t.Helper()

	tenantA := model.Tenant{Slug: "acme", Name: "Acme Haulage", Active: true}
	tenantB := model.Tenant{Slug: "borealis", Name: "Borealis Freight", Active: true}
	require.NoError(t, db.Create(&tenantA).Error)
	require.NoError(t, db.Create(&tenantB).Error)

	return tenantA, tenantB
}

// newRequest builds an echo context with an optional JSON body and the
// given principal already attached, mirroring what the JWT middleware does.
func newRequest(method, target, body string, p tenantscope.Principal) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	middleware.SetPrincipal(c, p)

	return c, rec
}

func decodeList[T any](t *testing.T, rec *httptest.ResponseRecorder) []T {
	t.Helper()

	var out []T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestListClientsScopedToTenant(t *testing.T) {
	db := setupTest(t)
	tenantA, tenantB := seedTenantPair(t, db)

	require.NoError(t, db.Create(&model.Client{TenantID: tenantA.ID, Name: "Northwind"}).Error)
	require.NoError(t, db.Create(&model.Client{TenantID: tenantB.ID, Name: "Southbay"}).Error)

	viewerA := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleViewer}
	c, rec := newRequest(http.MethodGet, "/api/clients", "", viewerA)
	require.NoError(t, handler.ListClients(c))
	require.Equal(t, http.StatusOK, rec.Code)

	clients := decodeList[model.Client](t, rec)
	require.Len(t, clients, 1)
	assert.Equal(t, "Northwind", clients[0].Name)

	admin := tenantscope.Principal{UserID: 2, TenantID: tenantA.ID, Role: tenantscope.RoleAdmin}
	c, rec = newRequest(http.MethodGet, "/api/clients", "", admin)
	require.NoError(t, handler.ListClients(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList[model.Client](t, rec), 2)
}

func TestGetClientMasksCrossTenantAsNotFound(t *testing.T) {
	db := setupTest(t)
	tenantA, tenantB := seedTenantPair(t, db)

	clientB := model.Client{TenantID: tenantB.ID, Name: "Southbay"}
	require.NoError(t, db.Create(&clientB).Error)

	viewerA := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleViewer}
	c, rec := newRequest(http.MethodGet, "/api/clients/:id", "", viewerA)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(clientB.ID))

	require.NoError(t, handler.GetClient(c))
	// Cross-tenant rows read as not-found, never as forbidden.
	assert.Equal(t, http.StatusNotFound, rec.Code)

	admin := tenantscope.Principal{UserID: 2, TenantID: tenantA.ID, Role: tenantscope.RoleAdmin}
	c, rec = newRequest(http.MethodGet, "/api/clients/:id", "", admin)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(clientB.ID))

	require.NoError(t, handler.GetClient(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReassignDriverMovesOffenseVisibility(t *testing.T) {
	db := setupTest(t)
	tenantA, tenantB := seedTenantPair(t, db)

	driver := model.Driver{TenantID: tenantA.ID, Name: "J. Mokoena", Active: true}
	require.NoError(t, db.Create(&driver).Error)

	offense := model.Offense{DriverID: driver.ID, Code: "SPD-90", Points: 3, OccurredAt: time.Now()}
	require.NoError(t, db.Create(&offense).Error)
	offenseUpdatedAt := offense.UpdatedAt

	operatorB := tenantscope.Principal{UserID: 1, TenantID: tenantB.ID, Role: tenantscope.RoleOperator}
	c, rec := newRequest(http.MethodGet, "/api/offenses", "", operatorB)
	require.NoError(t, handler.ListOffenses(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeList[model.Offense](t, rec))

	admin := tenantscope.Principal{UserID: 2, TenantID: tenantA.ID, Role: tenantscope.RoleAdmin}
	body := fmt.Sprintf(`{"tenant_id": %d}`, tenantB.ID)
	c, rec = newRequest(http.MethodPut, "/api/drivers/:id/tenant", body, admin)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(driver.ID))

	require.NoError(t, handler.ReassignDriverTenant(c))
	require.Equal(t, http.StatusOK, rec.Code)

	c, rec = newRequest(http.MethodGet, "/api/offenses", "", operatorB)
	require.NoError(t, handler.ListOffenses(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList[model.Offense](t, rec), 1)

	// The reassignment must not write to the offense row itself.
	var reloaded model.Offense
	require.NoError(t, db.First(&reloaded, offense.ID).Error)
	assert.Equal(t, driver.ID, reloaded.DriverID)
	assert.Equal(t, offenseUpdatedAt.UTC(), reloaded.UpdatedAt.UTC())
}

func TestReassignDriverRequiresAdmin(t *testing.T) {
	db := setupTest(t)
	tenantA, tenantB := seedTenantPair(t, db)

	driver := model.Driver{TenantID: tenantA.ID, Name: "J. Mokoena"}
	require.NoError(t, db.Create(&driver).Error)

	manager := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleManager}
	body := fmt.Sprintf(`{"tenant_id": %d}`, tenantB.ID)
	c, rec := newRequest(http.MethodPut, "/api/drivers/:id/tenant", body, manager)
	c.SetParamNames("id")
	c.SetParamValues(fmt.Sprint(driver.ID))

	require.NoError(t, handler.ReassignDriverTenant(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var reloaded model.Driver
	require.NoError(t, db.First(&reloaded, driver.ID).Error)
	assert.Equal(t, tenantA.ID, reloaded.TenantID)
}

func TestCreateOffenseMasksForeignDriver(t *testing.T) {
	db := setupTest(t)
	tenantA, tenantB := seedTenantPair(t, db)

	driverB := model.Driver{TenantID: tenantB.ID, Name: "Outsider"}
	require.NoError(t, db.Create(&driverB).Error)

	operatorA := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleOperator}
	body := fmt.Sprintf(`{"driver_id": %d, "code": "SPD-90"}`, driverB.ID)
	c, rec := newRequest(http.MethodPost, "/api/offenses", body, operatorA)

	require.NoError(t, handler.CreateOffense(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var count int64
	require.NoError(t, db.Model(&model.Offense{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWebhookGpsPing(t *testing.T) {
	db := setupTest(t)
	tenantA, _ := seedTenantPair(t, db)

	vehicle := model.Vehicle{TenantID: tenantA.ID, PlateNumber: "CK 44 XT GP", Active: true}
	require.NoError(t, db.Create(&vehicle).Error)

	e := echo.New()
	post := func(body, token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/webhooks/gps", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		if token != "" {
			req.Header.Set("X-Webhook-Token", token)
		}
		rec := httptest.NewRecorder()
		require.NoError(t, handler.IngestGpsPing(e.NewContext(req, rec)))
		return rec
	}

	// Missing or wrong token is rejected before the payload is read.
	rec := post(`{"plate_number": "CK 44 XT GP", "latitude": -26.2, "longitude": 28.04}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = post(`{"plate_number": "CK 44 XT GP", "latitude": -26.2, "longitude": 28.04}`, "wrong")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown plate.
	rec = post(`{"plate_number": "NO SUCH 1", "latitude": -26.2, "longitude": 28.04}`, testWebhookToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Accepted ping lands on the vehicle.
	rec = post(`{"plate_number": "CK 44 XT GP", "latitude": -26.2, "longitude": 28.04, "speed_kph": 82}`, testWebhookToken)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var pings []model.GpsPing
	require.NoError(t, db.Find(&pings).Error)
	require.Len(t, pings, 1)
	assert.Equal(t, vehicle.ID, pings[0].VehicleID)
}

func TestWebhookWhatsAppMessage(t *testing.T) {
	db := setupTest(t)
	tenantA, tenantB := seedTenantPair(t, db)

	contact := model.Contact{TenantID: tenantA.ID, Name: "Dispatcher", Phone: "+27821230000"}
	require.NoError(t, db.Create(&contact).Error)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/whatsapp",
		strings.NewReader(`{"phone": "+27821230000", "body": "load ready", "external_id": "wamid.1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-Webhook-Token", testWebhookToken)
	rec := httptest.NewRecorder()

	require.NoError(t, handler.IngestWhatsAppMessage(e.NewContext(req, rec)))
	require.Equal(t, http.StatusAccepted, rec.Code)

	var messages []model.ChatMessage
	require.NoError(t, db.Find(&messages).Error)
	require.Len(t, messages, 1)
	assert.Equal(t, contact.ID, messages[0].ContactID)
	assert.Equal(t, model.MessageInbound, messages[0].Direction)

	// The stored message is only visible to the contact's tenant.
	viewerA := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleViewer}
	viewerB := tenantscope.Principal{UserID: 2, TenantID: tenantB.ID, Role: tenantscope.RoleViewer}

	c, listRec := newRequest(http.MethodGet, "/api/messages", "", viewerA)
	require.NoError(t, handler.ListChatMessages(c))
	require.Equal(t, http.StatusOK, listRec.Code)
	assert.Len(t, decodeList[model.ChatMessage](t, listRec), 1)

	c, listRec = newRequest(http.MethodGet, "/api/messages", "", viewerB)
	require.NoError(t, handler.ListChatMessages(c))
	require.Equal(t, http.StatusOK, listRec.Code)
	assert.Empty(t, decodeList[model.ChatMessage](t, listRec))
}
