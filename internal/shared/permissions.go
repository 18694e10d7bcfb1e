package shared

// SuperAdminRoleID is the reserved role that bypasses explicit permission
// lookup entirely.
const SuperAdminRoleID int64 = 1

// DefaultRoleName is the role assigned to self-service registrations.
const DefaultRoleName = "Viewer"

// Resources permissions are scoped to.
const (
	ResourceLeads      = "leads"
	ResourceUsers      = "users"
	ResourceClients    = "clients"
	ResourceActivities = "activities"
	ResourceStats      = "stats"
)

// Actions permissions authorize.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"

	// ActionWildcard expands to all four concrete actions at seed time.
	// There is no wildcard matching at check time.
	ActionWildcard = "*"
)

// AllActions lists the concrete actions a wildcard grant expands into.
func AllActions() []string {
	return []string{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// AllResources lists every seeded resource.
func AllResources() []string {
	return []string{ResourceLeads, ResourceUsers, ResourceClients, ResourceActivities, ResourceStats}
}
