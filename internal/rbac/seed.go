package rbac

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/optimwalls/Optimwalls/internal/platform/db"
	"github.com/optimwalls/Optimwalls/internal/shared"
)

// SuperAdminRoleName is the seeded name of the role holding the reserved id.
const SuperAdminRoleName = "SuperAdmin"

// RoleSeed binds a role name to its default grants.
type RoleSeed struct {
	Name   string
	Grants []Grant
}

// DefaultRoleSeeds returns the built-in role catalogue. SuperAdmin bypasses
// checks at runtime regardless, but its grants are materialized anyway so the
// permission listing reflects reality.
func DefaultRoleSeeds() []RoleSeed {
	fullAccess := make([]Grant, 0, len(shared.AllResources()))
	for _, resource := range shared.AllResources() {
		fullAccess = append(fullAccess, Grant{Resource: resource, Action: shared.ActionWildcard})
	}

	manager := []Grant{}
	for _, resource := range []string{shared.ResourceLeads, shared.ResourceClients, shared.ResourceActivities, shared.ResourceStats} {
		for _, action := range []string{shared.ActionCreate, shared.ActionRead, shared.ActionUpdate} {
			manager = append(manager, Grant{Resource: resource, Action: action})
		}
	}

	return []RoleSeed{
		{Name: SuperAdminRoleName, Grants: fullAccess},
		{Name: "Admin", Grants: fullAccess},
		{Name: "Manager", Grants: manager},
		{Name: "Employee", Grants: []Grant{
			{Resource: shared.ResourceLeads, Action: shared.ActionRead},
			{Resource: shared.ResourceLeads, Action: shared.ActionCreate},
			{Resource: shared.ResourceLeads, Action: shared.ActionUpdate},
			{Resource: shared.ResourceActivities, Action: shared.ActionCreate},
			{Resource: shared.ResourceActivities, Action: shared.ActionRead},
			{Resource: shared.ResourceClients, Action: shared.ActionRead},
			{Resource: shared.ResourceStats, Action: shared.ActionRead},
		}},
		{Name: "Viewer", Grants: []Grant{
			{Resource: shared.ResourceLeads, Action: shared.ActionRead},
			{Resource: shared.ResourceActivities, Action: shared.ActionRead},
			{Resource: shared.ResourceClients, Action: shared.ActionRead},
			{Resource: shared.ResourceStats, Action: shared.ActionRead},
		}},
	}
}

// ExpandGrants resolves wildcard actions into concrete ones and deduplicates.
// Nothing stored ever contains a wildcard.
func ExpandGrants(grants []Grant) []Grant {
	seen := make(map[Grant]struct{}, len(grants))
	expanded := make([]Grant, 0, len(grants))
	add := func(g Grant) {
		if _, ok := seen[g]; ok {
			return
		}
		seen[g] = struct{}{}
		expanded = append(expanded, g)
	}
	for _, g := range grants {
		if g.Action == shared.ActionWildcard {
			for _, action := range shared.AllActions() {
				add(Grant{Resource: g.Resource, Action: action})
			}
			continue
		}
		add(g)
	}
	return expanded
}

// checkReservedRole rejects a SuperAdmin row that landed on any id other than
// the reserved one. The bypass keys off the id, not the name, so a roles table
// pre-populated in another order would otherwise hand the bypass to whichever
// role holds id 1.
func checkReservedRole(name string, roleID int64) error {
	if name == SuperAdminRoleName && roleID != shared.SuperAdminRoleID {
		return fmt.Errorf("rbac: role %s has id %d, reserved id is %d",
			name, roleID, shared.SuperAdminRoleID)
	}
	return nil
}

// Reseed replaces the entire permission table from seeds in one transaction
// and clears the whole cache afterwards. Roles are created if missing; the
// SuperAdmin role must end up with the reserved id.
func (s *Service) Reseed(ctx context.Context, seeds []RoleSeed) error {
	err := db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM permissions`); err != nil {
			return fmt.Errorf("rbac: clear permissions: %w", err)
		}
		for _, seed := range seeds {
			var roleID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO roles (name) VALUES ($1)
				 ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				 RETURNING id`, seed.Name).Scan(&roleID)
			if err != nil {
				return fmt.Errorf("rbac: upsert role %s: %w", seed.Name, err)
			}
			if err := checkReservedRole(seed.Name, roleID); err != nil {
				return err
			}
			for _, g := range ExpandGrants(seed.Grants) {
				if _, err := tx.Exec(ctx,
					`INSERT INTO permissions (role_id, resource, action) VALUES ($1, $2, $3)
					 ON CONFLICT (role_id, resource, action) DO NOTHING`,
					roleID, g.Resource, g.Action); err != nil {
					return fmt.Errorf("rbac: insert grant %s:%s: %w", g.Resource, g.Action, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.InvalidateCache()
	return nil
}
