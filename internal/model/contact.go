package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// Contact represents a phone-book entry of a tenant. Inbound WhatsApp
// messages are matched to a contact by phone number and follow the
// contact's current tenant.
type Contact struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(150);not null"`
	Phone     string         `json:"phone" gorm:"type:varchar(30);index;not null"`
	Email     string         `json:"email" gorm:"type:varchar(100)"`
	Company   string         `json:"company" gorm:"type:varchar(150)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Contact) ScopeKind() tenantscope.EntityKind { return tenantscope.KindContact }

func (c *Contact) CurrentTenantID() uint { return c.TenantID }
