package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
)

// GpsPing represents one GPS position report ingested from the tracking
// webhook. Pings have no tenant_id of their own; visibility follows the
// vehicle's current tenant.
type GpsPing struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	VehicleID  uint      `json:"vehicle_id" gorm:"index;not null"`
	Latitude   float64   `json:"latitude" gorm:"not null"`
	Longitude  float64   `json:"longitude" gorm:"not null"`
	SpeedKph   float64   `json:"speed_kph"`
	Heading    float64   `json:"heading"`
	RecordedAt time.Time `json:"recorded_at" gorm:"index"`
	CreatedAt  time.Time `json:"created_at"`

	Vehicle Vehicle `json:"vehicle,omitempty" gorm:"foreignKey:VehicleID"`
}

func (GpsPing) ScopeKind() tenantscope.EntityKind { return tenantscope.KindGPSPing }

func (g *GpsPing) OwnerEntityID() uint { return g.VehicleID }
