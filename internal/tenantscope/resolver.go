package tenantscope

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Filter is an opaque query fragment produced by BuildFilter. Callers merge
// it into their own gorm query with db.Scopes(filter).
type Filter func(*gorm.DB) *gorm.DB

// ErrOwnerLookupFailed wraps infrastructure errors while resolving an
// owner-following entity's current tenant. The request must fail; the
// resolver never substitutes a permissive default on error.
var ErrOwnerLookupFailed = errors.New("tenantscope: owner lookup failed")

// ScopedEntity is implemented by every row the resolver can check.
type ScopedEntity interface {
	ScopeKind() EntityKind
}

// TenantScoped is implemented by rows carrying their own mutable tenant_id.
type TenantScoped interface {
	ScopedEntity
	CurrentTenantID() uint
}

// OwnerLinked is implemented by rows with no tenant_id of their own,
// inheriting visibility from the linked owner's current tenant.
type OwnerLinked interface {
	ScopedEntity
	OwnerEntityID() uint
}

// Resolver produces the tenant filter a query must apply for a given
// principal and entity kind. It is safe for concurrent use and holds no
// state between calls.
type Resolver struct {
	policies map[EntityKind]Policy
	owners   OwnerTenantLookup
}

// New builds a Resolver over the default policy table. It panics on an
// invalid table because that is a compiled-in defect, not a runtime
// condition.
func New(owners OwnerTenantLookup) *Resolver {
	r, err := NewWithPolicies(owners, DefaultPolicies())
	if err != nil {
		panic(err)
	}

	return r
}

// NewWithPolicies builds a Resolver over a caller-supplied policy table,
// validating it up front.
func NewWithPolicies(owners OwnerTenantLookup, policies map[EntityKind]Policy) (*Resolver, error) {
	if owners == nil {
		return nil, errors.New("tenantscope: owner lookup is required")
	}

	if err := ValidatePolicies(policies); err != nil {
		return nil, err
	}

	return &Resolver{policies: policies, owners: owners}, nil
}

// Policy returns the declared policy for a kind.
func (r *Resolver) Policy(kind EntityKind) (Policy, error) {
	pol, ok := r.policies[kind]
	if !ok {
		return Policy{}, fmt.Errorf("%w: %q", ErrUnknownEntityKind, kind)
	}

	return pol, nil
}

// BuildFilter returns the filter a list/search query over kind must apply
// on behalf of p. Admins get the pass-through filter from a single shared
// code path; handlers must never reimplement the bypass themselves.
func (r *Resolver) BuildFilter(p Principal, kind EntityKind) (Filter, error) {
	pol, err := r.Policy(kind)
	if err != nil {
		return nil, err
	}

	if p.IsAdmin() {
		return adminBypass, nil
	}

	switch pol.Strategy {
	case StrategyFollowsOwner:
		owner := r.policies[pol.OwnerKind]
		// Compare the owner's live tenant_id, never a value denormalized
		// onto the dependent row at creation time.
		cond := fmt.Sprintf(
			"EXISTS (SELECT 1 FROM %s WHERE %s.id = %s.%s AND %s.tenant_id = ?)",
			owner.Table, owner.Table, pol.Table, pol.OwnerFK, owner.Table,
		)

		return func(db *gorm.DB) *gorm.DB {
			return db.Where(cond, p.TenantID)
		}, nil
	default:
		table := pol.Table

		return func(db *gorm.DB) *gorm.DB {
			return db.Where(table+".tenant_id = ?", p.TenantID)
		}, nil
	}
}

// adminBypass is the one place admin cross-tenant visibility is granted.
func adminBypass(db *gorm.DB) *gorm.DB {
	return db
}

// IsVisible reports whether p may see an already-materialized row. Get-by-id
// handlers must call this after a primary-key fetch, since that fetch
// bypasses the list filter. It is behaviorally identical to BuildFilter:
// a row is visible iff a filtered query would have returned it.
//
// For owner-linked rows the owner's current tenant is looked up live. A
// missing owner resolves to not visible; a lookup error fails the check
// closed and propagates wrapped in ErrOwnerLookupFailed.
func (r *Resolver) IsVisible(ctx context.Context, p Principal, e ScopedEntity) (bool, error) {
	pol, err := r.Policy(e.ScopeKind())
	if err != nil {
		return false, err
	}

	if p.IsAdmin() {
		return true, nil
	}

	switch pol.Strategy {
	case StrategyFollowsOwner:
		linked, ok := e.(OwnerLinked)
		if !ok {
			return false, fmt.Errorf("tenantscope: entity kind %q is follows-owner but %T does not expose its owner", e.ScopeKind(), e)
		}

		ownerTenant, err := r.owners.OwnerTenant(ctx, pol.OwnerKind, linked.OwnerEntityID())
		if errors.Is(err, ErrOwnerNotFound) {
			return false, nil
		}

		if err != nil {
			return false, fmt.Errorf("%w: %s %d: %v", ErrOwnerLookupFailed, pol.OwnerKind, linked.OwnerEntityID(), err)
		}

		return ownerTenant == p.TenantID, nil
	default:
		scoped, ok := e.(TenantScoped)
		if !ok {
			return false, fmt.Errorf("tenantscope: entity kind %q is direct but %T does not expose a tenant", e.ScopeKind(), e)
		}

		return scoped.CurrentTenantID() == p.TenantID, nil
	}
}
