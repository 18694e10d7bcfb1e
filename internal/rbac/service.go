package rbac

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/optimwalls/Optimwalls/internal/shared"
)

// Service answers permission checks against the permissions table, fronted by
// a process-local per-role cache. The table is authoritative; the cache is a
// read-mostly optimization populated on first lookup and cleared wholesale
// whenever grants are reseeded.
type Service struct {
	pool *pgxpool.Pool

	mu    sync.RWMutex
	cache map[int64]map[Grant]struct{}
}

// NewService constructs a Service backed by the provided pool.
func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool, cache: make(map[int64]map[Grant]struct{})}
}

// HasPermission reports whether roleID may perform action on resource. The
// reserved SuperAdmin role bypasses the lookup entirely. Matching is exact;
// there is no inheritance, no resource hierarchy and no wildcard at check
// time.
func (s *Service) HasPermission(ctx context.Context, roleID int64, resource, action string) (bool, error) {
	if roleID == shared.SuperAdminRoleID {
		return true, nil
	}

	s.mu.RLock()
	grants, ok := s.cache[roleID]
	s.mu.RUnlock()

	if !ok {
		loaded, err := s.loadRole(ctx, roleID)
		if err != nil {
			return false, err
		}
		grants = loaded
		s.storeRole(roleID, loaded)
	}

	_, granted := grants[Grant{Resource: resource, Action: action}]
	return granted, nil
}

// InvalidateCache drops every cached role. Reseeding replaces all grants in
// one transaction, so partial invalidation would leave stale entries.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	s.cache = make(map[int64]map[Grant]struct{})
	s.mu.Unlock()
}

// RolePermissions returns the grants of a single role, bypassing the cache.
func (s *Service) RolePermissions(ctx context.Context, roleID int64) ([]Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, role_id, resource, action FROM permissions WHERE role_id = $1 ORDER BY resource, action`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.RoleID, &p.Resource, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

// ListPermissions returns every grant row.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, role_id, resource, action FROM permissions ORDER BY role_id, resource, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []Permission
	for rows.Next() {
		var p Permission
		if err := rows.Scan(&p.ID, &p.RoleID, &p.Resource, &p.Action); err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, rows.Err()
}

func (s *Service) loadRole(ctx context.Context, roleID int64) (map[Grant]struct{}, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT resource, action FROM permissions WHERE role_id = $1`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	grants := make(map[Grant]struct{})
	for rows.Next() {
		var g Grant
		if err := rows.Scan(&g.Resource, &g.Action); err != nil {
			return nil, err
		}
		grants[g] = struct{}{}
	}
	return grants, rows.Err()
}

// storeRole publishes a freshly loaded role by swapping in a new outer map.
// Readers holding the old map keep a consistent, fully populated view.
func (s *Service) storeRole(roleID int64, grants map[Grant]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[int64]map[Grant]struct{}, len(s.cache)+1)
	for id, g := range s.cache {
		next[id] = g
	}
	next[roleID] = grants
	s.cache = next
}
