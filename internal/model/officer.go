package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// LogisticsOfficer represents a tenant staff member coordinating manifests.
type LogisticsOfficer struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	TenantID    uint           `json:"tenant_id" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(150);not null"`
	BadgeNumber string         `json:"badge_number" gorm:"type:varchar(50)"`
	Phone       string         `json:"phone" gorm:"type:varchar(30)"`
	Email       string         `json:"email" gorm:"type:varchar(100)"`
	Active      bool           `json:"active" gorm:"default:true"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

func (LogisticsOfficer) ScopeKind() tenantscope.EntityKind { return tenantscope.KindOfficer }

func (o *LogisticsOfficer) CurrentTenantID() uint { return o.TenantID }
