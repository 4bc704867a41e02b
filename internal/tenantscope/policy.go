package tenantscope

import (
	"errors"
	"fmt"
)

// EntityKind identifies one tenant-scoped or owner-following entity type.
type EntityKind string

const (
	KindClient             EntityKind = "client"
	KindDriver             EntityKind = "driver"
	KindVehicle            EntityKind = "vehicle"
	KindVehicleCombination EntityKind = "vehicle_combination"
	KindLocation           EntityKind = "location"
	KindContact            EntityKind = "contact"
	KindOfficer            EntityKind = "officer"
	KindManifest           EntityKind = "manifest"
	KindOffense            EntityKind = "offense"
	KindGPSPing            EntityKind = "gps_ping"
	KindChatMessage        EntityKind = "chat_message"
)

// Strategy selects how tenant visibility is derived for an entity kind.
type Strategy int

const (
	// StrategyDirect compares the entity's own tenant_id column.
	StrategyDirect Strategy = iota
	// StrategyFollowsOwner derives visibility from the linked owner
	// entity's current tenant_id, looked up live at decision time.
	StrategyFollowsOwner
)

// Policy declares the isolation strategy for one entity kind. New kinds are
// added by inserting one row into the policy table, not by writing new
// conditional branches in handlers.
type Policy struct {
	Strategy Strategy
	// Table is the entity's database table name.
	Table string
	// OwnerKind and OwnerFK are set for StrategyFollowsOwner only:
	// OwnerFK is the column on Table referencing the owner's primary key.
	OwnerKind EntityKind
	OwnerFK   string
}

// ErrUnknownEntityKind is returned when a kind has no policy-table entry.
// This is a configuration defect, never a user error: returning an empty
// filter here would leak cross-tenant rows, and returning an impossible
// filter would silently hide legitimate ones.
var ErrUnknownEntityKind = errors.New("tenantscope: unknown entity kind")

// DefaultPolicies returns the policy table for all entity kinds the service
// exposes. Offenses follow their driver, GPS pings their vehicle, and chat
// messages their contact; everything else carries its own tenant_id.
func DefaultPolicies() map[EntityKind]Policy {
	return map[EntityKind]Policy{
		KindClient:             {Strategy: StrategyDirect, Table: "clients"},
		KindDriver:             {Strategy: StrategyDirect, Table: "drivers"},
		KindVehicle:            {Strategy: StrategyDirect, Table: "vehicles"},
		KindVehicleCombination: {Strategy: StrategyDirect, Table: "vehicle_combinations"},
		KindLocation:           {Strategy: StrategyDirect, Table: "locations"},
		KindContact:            {Strategy: StrategyDirect, Table: "contacts"},
		KindOfficer:            {Strategy: StrategyDirect, Table: "logistics_officers"},
		KindManifest:           {Strategy: StrategyDirect, Table: "manifests"},
		KindOffense:            {Strategy: StrategyFollowsOwner, Table: "offenses", OwnerKind: KindDriver, OwnerFK: "driver_id"},
		KindGPSPing:            {Strategy: StrategyFollowsOwner, Table: "gps_pings", OwnerKind: KindVehicle, OwnerFK: "vehicle_id"},
		KindChatMessage:        {Strategy: StrategyFollowsOwner, Table: "chat_messages", OwnerKind: KindContact, OwnerFK: "contact_id"},
	}
}

// ValidatePolicies checks the policy table for configuration defects so they
// surface at startup rather than at request time.
func ValidatePolicies(policies map[EntityKind]Policy) error {
	for kind, pol := range policies {
		if pol.Table == "" {
			return fmt.Errorf("tenantscope: policy for %q has no table", kind)
		}

		switch pol.Strategy {
		case StrategyDirect:
			if pol.OwnerKind != "" || pol.OwnerFK != "" {
				return fmt.Errorf("tenantscope: direct policy for %q must not declare an owner", kind)
			}
		case StrategyFollowsOwner:
			if pol.OwnerFK == "" {
				return fmt.Errorf("tenantscope: follows-owner policy for %q has no owner foreign key", kind)
			}

			owner, ok := policies[pol.OwnerKind]
			if !ok {
				return fmt.Errorf("tenantscope: follows-owner policy for %q references undeclared owner kind %q", kind, pol.OwnerKind)
			}

			// Owner chains are not supported; the owner must carry
			// its own tenant_id.
			if owner.Strategy != StrategyDirect {
				return fmt.Errorf("tenantscope: owner kind %q for %q must use the direct strategy", pol.OwnerKind, kind)
			}
		default:
			return fmt.Errorf("tenantscope: policy for %q has invalid strategy %d", kind, pol.Strategy)
		}
	}

	return nil
}
