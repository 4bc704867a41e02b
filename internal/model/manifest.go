package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// Manifest statuses.
const (
	ManifestStatusDraft     = "draft"
	ManifestStatusDispatched = "dispatched"
	ManifestStatusInTransit = "in_transit"
	ManifestStatusDelivered = "delivered"
	ManifestStatusCancelled = "cancelled"
)

// Manifest represents one planned/tracked trip. Manifests carry their own
// tenant_id: they are operational records of the tenant that dispatched
// them, even if the assigned driver or vehicle is later re-homed.
type Manifest struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	Reference     string         `json:"reference" gorm:"type:varchar(50);uniqueIndex;not null"`
	Status        string         `json:"status" gorm:"type:varchar(20);not null;default:'draft'"`
	ClientID      *uint          `json:"client_id,omitempty" gorm:"index"`
	DriverID      *uint          `json:"driver_id,omitempty" gorm:"index"`
	VehicleID     *uint          `json:"vehicle_id,omitempty" gorm:"index"`
	OriginID      *uint          `json:"origin_id,omitempty" gorm:"index"`
	DestinationID *uint          `json:"destination_id,omitempty" gorm:"index"`
	DepartAt      *time.Time     `json:"depart_at,omitempty"`
	ArriveAt      *time.Time     `json:"arrive_at,omitempty"`
	Notes         string         `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`

	Client      *Client   `json:"client,omitempty" gorm:"foreignKey:ClientID"`
	Driver      *Driver   `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
	Vehicle     *Vehicle  `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
	Origin      *Location `json:"origin,omitempty" gorm:"foreignKey:OriginID"`
	Destination *Location `json:"destination,omitempty" gorm:"foreignKey:DestinationID"`
}

func (Manifest) ScopeKind() tenantscope.EntityKind { return tenantscope.KindManifest }

func (m *Manifest) CurrentTenantID() uint { return m.TenantID }
