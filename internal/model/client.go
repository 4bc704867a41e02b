package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// Client represents a customer account belonging to one tenant.
type Client struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	TenantID     uint           `json:"tenant_id" gorm:"index;not null"`
	Name         string         `json:"name" gorm:"type:varchar(150);not null"`
	ContactEmail string         `json:"contact_email" gorm:"type:varchar(100)"`
	Phone        string         `json:"phone" gorm:"type:varchar(30)"`
	Address      string         `json:"address" gorm:"type:text"`
	Active       bool           `json:"active" gorm:"default:true"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Client) ScopeKind() tenantscope.EntityKind { return tenantscope.KindClient }

func (c *Client) CurrentTenantID() uint { return c.TenantID }
