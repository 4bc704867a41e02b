package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// Offense represents a traffic/compliance offense recorded against a
// driver. It deliberately carries no tenant_id column: visibility always
// follows the driver's current tenant, so moving the driver to another
// tenant moves every historical offense with it, with no data migration.
type Offense struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	DriverID    uint           `json:"driver_id" gorm:"index;not null"`
	Code        string         `json:"code" gorm:"type:varchar(30);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Points      int            `json:"points"`
	FineAmount  float64        `json:"fine_amount"`
	OccurredAt  time.Time      `json:"occurred_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	Driver Driver `json:"driver,omitempty" gorm:"foreignKey:DriverID"`
}

func (Offense) ScopeKind() tenantscope.EntityKind { return tenantscope.KindOffense }

func (o *Offense) OwnerEntityID() uint { return o.DriverID }
