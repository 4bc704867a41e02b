package tenantscope

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrOwnerNotFound is returned by an OwnerTenantLookup when the owner row
// does not exist. The resolver treats this as not-visible, not as an error.
var ErrOwnerNotFound = errors.New("tenantscope: owner not found")

// OwnerTenantLookup resolves the current tenant of an owner entity. The
// resolver treats the implementation as a read-only dependency and performs
// no caching around it.
type OwnerTenantLookup interface {
	OwnerTenant(ctx context.Context, kind EntityKind, id uint) (uint, error)
}

// gormOwnerLookup reads the owner's live tenant_id straight from its table.
type gormOwnerLookup struct {
	db       *gorm.DB
	policies map[EntityKind]Policy
}

// NewOwnerLookup returns an OwnerTenantLookup backed by the given database,
// resolving table names through the default policy table.
func NewOwnerLookup(db *gorm.DB) OwnerTenantLookup {
	return &gormOwnerLookup{db: db, policies: DefaultPolicies()}
}

func (l *gormOwnerLookup) OwnerTenant(ctx context.Context, kind EntityKind, id uint) (uint, error) {
	pol, ok := l.policies[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}

	var tenantID uint

	err := l.db.WithContext(ctx).
		Table(pol.Table).
		Select("tenant_id").
		Where("id = ?", id).
		Take(&tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %s %d", ErrOwnerNotFound, kind, id)
	}

	if err != nil {
		return 0, err
	}

	return tenantID, nil
}
