package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// Driver represents a driver employed by a tenant. TenantID is mutable:
// an admin may re-home a driver to another tenant, and all owner-following
// records (offenses) move with the driver's current tenant automatically.
type Driver struct {
	ID            uint           `json:"id" gorm:"primaryKey"`
	TenantID      uint           `json:"tenant_id" gorm:"index;not null"`
	Name          string         `json:"name" gorm:"type:varchar(150);not null"`
	LicenseNumber string         `json:"license_number" gorm:"type:varchar(50);index"`
	Phone         string         `json:"phone" gorm:"type:varchar(30)"`
	Active        bool           `json:"active" gorm:"default:true"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Driver) ScopeKind() tenantscope.EntityKind { return tenantscope.KindDriver }

func (d *Driver) CurrentTenantID() uint { return d.TenantID }
