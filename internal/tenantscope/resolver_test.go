package tenantscope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLookup resolves owner tenants from an in-memory map and can be
// forced to fail to exercise the fail-closed paths.
type fakeLookup struct {
	tenants map[EntityKind]map[uint]uint
	err     error
}

func (f *fakeLookup) OwnerTenant(_ context.Context, kind EntityKind, id uint) (uint, error) {
	if f.err != nil {
		return 0, f.err
	}

	tenant, ok := f.tenants[kind][id]
	if !ok {
		return 0, ErrOwnerNotFound
	}

	return tenant, nil
}

type fakeClient struct {
	tenantID uint
}

func (fakeClient) ScopeKind() EntityKind   { return KindClient }
func (c fakeClient) CurrentTenantID() uint { return c.tenantID }

type fakeOffense struct {
	driverID uint
}

func (fakeOffense) ScopeKind() EntityKind { return KindOffense }
func (o fakeOffense) OwnerEntityID() uint { return o.driverID }

func newTestResolver(t *testing.T, lookup OwnerTenantLookup) *Resolver {
	t.Helper()

	r, err := NewWithPolicies(lookup, DefaultPolicies())
	require.NoError(t, err)

	return r
}

func TestBuildFilterUnknownKind(t *testing.T) {
	r := newTestResolver(t, &fakeLookup{})

	_, err := r.BuildFilter(Principal{TenantID: 1, Role: RoleViewer}, EntityKind("invoice"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEntityKind)

	// Admins must hit the same configuration check: an unknown kind is a
	// defect regardless of who asks.
	_, err = r.BuildFilter(Principal{TenantID: 1, Role: RoleAdmin}, EntityKind("invoice"))
	assert.ErrorIs(t, err, ErrUnknownEntityKind)
}

func TestIsVisibleDirect(t *testing.T) {
	r := newTestResolver(t, &fakeLookup{})
	ctx := context.Background()

	tests := []struct {
		name    string
		role    Role
		tenant  uint
		entity  uint
		visible bool
	}{
		{"same tenant viewer", RoleViewer, 1, 1, true},
		{"other tenant viewer", RoleViewer, 1, 2, false},
		{"same tenant operator", RoleOperator, 3, 3, true},
		{"other tenant manager", RoleManager, 1, 2, false},
		{"admin same tenant", RoleAdmin, 1, 1, true},
		{"admin other tenant", RoleAdmin, 1, 2, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Principal{UserID: 7, TenantID: tt.tenant, Role: tt.role}

			visible, err := r.IsVisible(ctx, p, fakeClient{tenantID: tt.entity})
			require.NoError(t, err)
			assert.Equal(t, tt.visible, visible)
		})
	}
}

func TestIsVisibleFollowsOwner(t *testing.T) {
	lookup := &fakeLookup{tenants: map[EntityKind]map[uint]uint{
		KindDriver: {10: 1},
	}}
	r := newTestResolver(t, lookup)
	ctx := context.Background()

	offense := fakeOffense{driverID: 10}
	tenantA := Principal{TenantID: 1, Role: RoleViewer}
	tenantB := Principal{TenantID: 2, Role: RoleViewer}

	visible, err := r.IsVisible(ctx, tenantA, offense)
	require.NoError(t, err)
	assert.True(t, visible)

	visible, err = r.IsVisible(ctx, tenantB, offense)
	require.NoError(t, err)
	assert.False(t, visible)

	// Re-home the driver: visibility flips with no write to the offense.
	lookup.tenants[KindDriver][10] = 2

	visible, err = r.IsVisible(ctx, tenantA, offense)
	require.NoError(t, err)
	assert.False(t, visible)

	visible, err = r.IsVisible(ctx, tenantB, offense)
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestIsVisibleAdminBypassFollowsOwner(t *testing.T) {
	// The admin bypass must not depend on the owner lookup at all.
	r := newTestResolver(t, &fakeLookup{err: errors.New("store down")})

	visible, err := r.IsVisible(context.Background(), Principal{TenantID: 1, Role: RoleAdmin}, fakeOffense{driverID: 10})
	require.NoError(t, err)
	assert.True(t, visible)
}

func TestIsVisibleOwnerNotFoundFailsClosed(t *testing.T) {
	r := newTestResolver(t, &fakeLookup{tenants: map[EntityKind]map[uint]uint{}})

	visible, err := r.IsVisible(context.Background(), Principal{TenantID: 1, Role: RoleViewer}, fakeOffense{driverID: 99})
	require.NoError(t, err)
	assert.False(t, visible)
}

func TestIsVisibleOwnerLookupErrorFailsClosed(t *testing.T) {
	r := newTestResolver(t, &fakeLookup{err: errors.New("connection reset")})

	visible, err := r.IsVisible(context.Background(), Principal{TenantID: 1, Role: RoleViewer}, fakeOffense{driverID: 10})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnerLookupFailed)
	assert.False(t, visible)
}

func TestIsVisibleUnknownKind(t *testing.T) {
	r := newTestResolver(t, &fakeLookup{})

	visible, err := r.IsVisible(context.Background(), Principal{TenantID: 1, Role: RoleViewer}, strayKind{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownEntityKind)
	assert.False(t, visible)
}

type strayKind struct{}

func (strayKind) ScopeKind() EntityKind { return EntityKind("stray") }

func TestNewWithPoliciesRejectsNilLookup(t *testing.T) {
	_, err := NewWithPolicies(nil, DefaultPolicies())
	require.Error(t, err)
}

func TestValidatePolicies(t *testing.T) {
	tests := []struct {
		name     string
		policies map[EntityKind]Policy
		wantErr  bool
	}{
		{
			name:     "default table is valid",
			policies: DefaultPolicies(),
			wantErr:  false,
		},
		{
			name: "missing table name",
			policies: map[EntityKind]Policy{
				KindClient: {Strategy: StrategyDirect},
			},
			wantErr: true,
		},
		{
			name: "follows-owner without foreign key",
			policies: map[EntityKind]Policy{
				KindDriver:  {Strategy: StrategyDirect, Table: "drivers"},
				KindOffense: {Strategy: StrategyFollowsOwner, Table: "offenses", OwnerKind: KindDriver},
			},
			wantErr: true,
		},
		{
			name: "follows-owner references undeclared owner",
			policies: map[EntityKind]Policy{
				KindOffense: {Strategy: StrategyFollowsOwner, Table: "offenses", OwnerKind: KindDriver, OwnerFK: "driver_id"},
			},
			wantErr: true,
		},
		{
			name: "owner chains are rejected",
			policies: map[EntityKind]Policy{
				KindDriver:  {Strategy: StrategyDirect, Table: "drivers"},
				KindOffense: {Strategy: StrategyFollowsOwner, Table: "offenses", OwnerKind: KindDriver, OwnerFK: "driver_id"},
				KindGPSPing: {Strategy: StrategyFollowsOwner, Table: "gps_pings", OwnerKind: KindOffense, OwnerFK: "offense_id"},
			},
			wantErr: true,
		},
		{
			name: "direct policy must not declare an owner",
			policies: map[EntityKind]Policy{
				KindClient: {Strategy: StrategyDirect, Table: "clients", OwnerKind: KindDriver},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolicies(tt.policies)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
