// Package tenantscope decides which rows a request is allowed to see.
//
// Every tenant-scoped query in the service goes through a single declarative
// policy table instead of per-handler tenant conditionals. A handler asks the
// Resolver for a filter (merged into its gorm query) or for a yes/no check on
// a row it already loaded; both paths share the same decision procedure, so
// admin bypass and owner-following visibility can never diverge between the
// list path and the get-by-id path.
//
// Two strategies exist:
//
//   - StrategyDirect: the row carries its own tenant_id column.
//   - StrategyFollowsOwner: the row has no tenant_id and inherits visibility
//     from the linked owner's *current* tenant (offenses follow their driver,
//     GPS pings follow their vehicle). Re-homing the owner to another tenant
//     moves all dependent rows with it, with no cascading writes.
//
// The resolver holds no per-request state and never caches a resolved
// filter; owner tenants are always looked up live.
package tenantscope
