package tenantscope_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trekware/fleetops/internal/model"
	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// Keep a single connection so the in-memory database is shared
	// across all queries in the test.
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

	return db
}

func newDBResolver(t *testing.T, db *gorm.DB) *tenantscope.Resolver {
	t.Helper()
	return tenantscope.New(tenantscope.NewOwnerLookup(db))
}

func seedTenants(t *testing.T, db *gorm.DB) (model.Tenant, model.Tenant) {
	t.Helper()

	tenantA := model.Tenant{Slug: "acme-haulage", Name: "Acme Haulage", Active: true}
	tenantB := model.Tenant{Slug: "borealis-freight", Name: "Borealis Freight", Active: true}
	require.NoError(t, db.Create(&tenantA).Error)
	require.NoError(t, db.Create(&tenantB).Error)

	return tenantA, tenantB
}

func TestDirectIsolation(t *testing.T) {
	db := newTestDB(t)
	resolver := newDBResolver(t, db)
	tenantA, tenantB := seedTenants(t, db)

	clientA := model.Client{TenantID: tenantA.ID, Name: "Northwind"}
	clientB := model.Client{TenantID: tenantB.ID, Name: "Southbay"}
	require.NoError(t, db.Create(&clientA).Error)
	require.NoError(t, db.Create(&clientB).Error)

	viewerA := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleViewer}
	admin := tenantscope.Principal{UserID: 2, TenantID: tenantA.ID, Role: tenantscope.RoleAdmin}

	// Non-admin list returns only home-tenant rows.
	filter, err := resolver.BuildFilter(viewerA, tenantscope.KindClient)
	require.NoError(t, err)

	var clients []model.Client
	require.NoError(t, db.Scopes(filter).Find(&clients).Error)
	require.Len(t, clients, 1)
	assert.Equal(t, clientA.ID, clients[0].ID)

	// Admin list spans tenants, even with a non-matching home tenant.
	filter, err = resolver.BuildFilter(admin, tenantscope.KindClient)
	require.NoError(t, err)

	require.NoError(t, db.Scopes(filter).Find(&clients).Error)
	assert.Len(t, clients, 2)

	// Single-entity checks agree with the list behavior.
	visible, err := resolver.IsVisible(context.Background(), viewerA, &clientB)
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = resolver.IsVisible(context.Background(), admin, &clientB)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestOffensesFollowDriverCurrentTenant(t *testing.T) {
	db := newTestDB(t)
	resolver := newDBResolver(t, db)
	tenantA, tenantB := seedTenants(t, db)
	ctx := context.Background()

	driver := model.Driver{TenantID: tenantA.ID, Name: "J. Mokoena", Active: true}
	require.NoError(t, db.Create(&driver).Error)

	offense := model.Offense{DriverID: driver.ID, Code: "SPD-90", Points: 3, OccurredAt: time.Now()}
	require.NoError(t, db.Create(&offense).Error)

	principalA := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleOperator}
	principalB := tenantscope.Principal{UserID: 2, TenantID: tenantB.ID, Role: tenantscope.RoleOperator}

	listOffenses := func(p tenantscope.Principal) []model.Offense {
		filter, err := resolver.BuildFilter(p, tenantscope.KindOffense)
		require.NoError(t, err)

		var offenses []model.Offense
		require.NoError(t, db.Scopes(filter).Find(&offenses).Error)
		return offenses
	}

	// While the driver belongs to tenant A, only tenant A sees the offense.
	assert.Len(t, listOffenses(principalA), 1)
	assert.Empty(t, listOffenses(principalB))

	visible, err := resolver.IsVisible(ctx, principalA, &offense)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = resolver.IsVisible(ctx, principalB, &offense)
	require.NoError(t, err)
	assert.False(t, visible)

	// Re-home the driver to tenant B. No write touches the offense.
	require.NoError(t, db.Model(&driver).Update("tenant_id", tenantB.ID).Error)

	assert.Empty(t, listOffenses(principalA))
	assert.Len(t, listOffenses(principalB), 1)

	visible, err = resolver.IsVisible(ctx, principalA, &offense)
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = resolver.IsVisible(ctx, principalB, &offense)
	require.NoError(t, err)
	assert.True(t, visible)

	// Querying by driver id for the new tenant still returns the offense.
	filter, err := resolver.BuildFilter(principalB, tenantscope.KindOffense)
	require.NoError(t, err)

	var byDriver []model.Offense
	require.NoError(t, db.Scopes(filter).Where("driver_id = ?", driver.ID).Find(&byDriver).Error)
	require.Len(t, byDriver, 1)
	assert.Equal(t, offense.ID, byDriver[0].ID)
}

func TestGpsPingsFollowVehicleCurrentTenant(t *testing.T) {
	db := newTestDB(t)
	resolver := newDBResolver(t, db)
	tenantA, tenantB := seedTenants(t, db)

	vehicle := model.Vehicle{TenantID: tenantA.ID, PlateNumber: "CK 44 XT GP", Active: true}
	require.NoError(t, db.Create(&vehicle).Error)

	ping := model.GpsPing{VehicleID: vehicle.ID, Latitude: -26.2, Longitude: 28.04, RecordedAt: time.Now()}
	require.NoError(t, db.Create(&ping).Error)

	principalB := tenantscope.Principal{UserID: 3, TenantID: tenantB.ID, Role: tenantscope.RoleManager}

	filter, err := resolver.BuildFilter(principalB, tenantscope.KindGPSPing)
	require.NoError(t, err)

	var pings []model.GpsPing
	require.NoError(t, db.Scopes(filter).Find(&pings).Error)
	assert.Empty(t, pings)

	require.NoError(t, db.Model(&vehicle).Update("tenant_id", tenantB.ID).Error)

	require.NoError(t, db.Scopes(filter).Find(&pings).Error)
	assert.Len(t, pings, 1)
}

// TestFilterVisibleEquivalence checks the core invariant: a row passes
// IsVisible exactly when a list query built from BuildFilter returns it.
func TestFilterVisibleEquivalence(t *testing.T) {
	db := newTestDB(t)
	resolver := newDBResolver(t, db)
	tenantA, tenantB := seedTenants(t, db)
	ctx := context.Background()

	driverA := model.Driver{TenantID: tenantA.ID, Name: "Driver A"}
	driverB := model.Driver{TenantID: tenantB.ID, Name: "Driver B"}
	require.NoError(t, db.Create(&driverA).Error)
	require.NoError(t, db.Create(&driverB).Error)

	for _, offense := range []model.Offense{
		{DriverID: driverA.ID, Code: "SPD-01", OccurredAt: time.Now()},
		{DriverID: driverA.ID, Code: "DOC-02", OccurredAt: time.Now()},
		{DriverID: driverB.ID, Code: "SPD-03", OccurredAt: time.Now()},
	} {
		require.NoError(t, db.Create(&offense).Error)
	}

	principals := []tenantscope.Principal{
		{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleViewer},
		{UserID: 2, TenantID: tenantB.ID, Role: tenantscope.RoleOperator},
		{UserID: 3, TenantID: tenantA.ID, Role: tenantscope.RoleAdmin},
	}

	for _, p := range principals {
		filter, err := resolver.BuildFilter(p, tenantscope.KindOffense)
		require.NoError(t, err)

		var listed []model.Offense
		require.NoError(t, db.Scopes(filter).Find(&listed).Error)

		listedIDs := map[uint]bool{}
		for _, o := range listed {
			listedIDs[o.ID] = true
		}

		var all []model.Offense
		require.NoError(t, db.Find(&all).Error)

		for _, o := range all {
			visible, err := resolver.IsVisible(ctx, p, &o)
			require.NoError(t, err)
			assert.Equal(t, listedIDs[o.ID], visible,
				"principal %s, offense %d: filter and IsVisible disagree", p.String(), o.ID)
		}
	}
}

func TestMissingOwnerFailsClosed(t *testing.T) {
	db := newTestDB(t)
	resolver := newDBResolver(t, db)
	tenantA, _ := seedTenants(t, db)
	ctx := context.Background()

	driver := model.Driver{TenantID: tenantA.ID, Name: "Ghost"}
	require.NoError(t, db.Create(&driver).Error)

	offense := model.Offense{DriverID: driver.ID, Code: "SPD-77", OccurredAt: time.Now()}
	require.NoError(t, db.Create(&offense).Error)

	// Hard-delete the owner so the lookup finds nothing.
	require.NoError(t, db.Unscoped().Delete(&driver).Error)

	principal := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleOperator}

	visible, err := resolver.IsVisible(ctx, principal, &offense)
	require.NoError(t, err)
	assert.False(t, visible)

	filter, err := resolver.BuildFilter(principal, tenantscope.KindOffense)
	require.NoError(t, err)

	var offenses []model.Offense
	require.NoError(t, db.Scopes(filter).Find(&offenses).Error)
	assert.Empty(t, offenses)
}

func TestChatMessagesFollowContactCurrentTenant(t *testing.T) {
	db := newTestDB(t)
	resolver := newDBResolver(t, db)
	tenantA, tenantB := seedTenants(t, db)
	ctx := context.Background()

	contact := model.Contact{TenantID: tenantA.ID, Name: "Dispatcher", Phone: "+27821230000"}
	require.NoError(t, db.Create(&contact).Error)

	message := model.ChatMessage{ContactID: contact.ID, Direction: model.MessageInbound, Body: "load ready", SentAt: time.Now()}
	require.NoError(t, db.Create(&message).Error)

	principalA := tenantscope.Principal{UserID: 1, TenantID: tenantA.ID, Role: tenantscope.RoleViewer}
	principalB := tenantscope.Principal{UserID: 2, TenantID: tenantB.ID, Role: tenantscope.RoleViewer}

	visible, err := resolver.IsVisible(ctx, principalA, &message)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = resolver.IsVisible(ctx, principalB, &message)
	require.NoError(t, err)
	assert.False(t, visible)

	require.NoError(t, db.Model(&contact).Update("tenant_id", tenantB.ID).Error)

	visible, err = resolver.IsVisible(ctx, principalB, &message)
	require.NoError(t, err)
	assert.True(t, visible)
}
