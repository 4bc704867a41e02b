package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// Vehicle represents a fleet vehicle. Like drivers, vehicles can be
// re-homed to another tenant; GPS pings follow the vehicle's current tenant.
type Vehicle struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null"`
	PlateNumber  string         `json:"plate_number" gorm:"type:varchar(20);uniqueIndex;not null"`
	Make         string         `json:"make" gorm:"type:varchar(50)"`
	Model        string         `json:"model" gorm:"type:varchar(50)"`
	Year         int            `json:"year"`
	Registration string         `json:"registration" gorm:"type:varchar(50)"`
	Active       bool           `json:"active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Vehicle) ScopeKind() tenantscope.EntityKind { return tenantscope.KindVehicle }

func (v *Vehicle) CurrentTenantID() uint { return v.TenantID }
