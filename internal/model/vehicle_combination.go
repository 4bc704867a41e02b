package model

import (
	"time"

	"github.com/trekware/fleetops/internal/tenantscope"
	"gorm.io/gorm"
)

// VehicleCombination pairs a tractor with a trailer for manifest planning.
// The combination itself is tenant-scoped directly; it is a planning record
// of one tenant, regardless of where its member vehicles later move.
type VehicleCombination struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	TenantID  uint           `json:"tenant_id" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(100);not null"`
	TractorID uint           `json:"tractor_id" gorm:"index;not null"`
	TrailerID *uint          `json:"trailer_id,omitempty" gorm:"index"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	Tractor Vehicle  `json:"tractor,omitempty" gorm:"foreignKey:TractorID"`
	Trailer *Vehicle `json:"trailer,omitempty" gorm:"foreignKey:TrailerID"`
}

func (VehicleCombination) ScopeKind() tenantscope.EntityKind {
	return tenantscope.KindVehicleCombination
}

func (vc *VehicleCombination) CurrentTenantID() uint { return vc.TenantID }
