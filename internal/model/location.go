package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// Location represents a named depot, yard or delivery point of a tenant.
type Location struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(150);not null"`
	Address   string         `json:"address" gorm:"type:text"`
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Location) ScopeKind() tenantscope.EntityKind { return tenantscope.KindLocation }

func (l *Location) CurrentTenantID() uint { return l.TenantID }
