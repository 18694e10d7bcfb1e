package rbac

import "time"

// Role represents a named permission bundle.
type Role struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Permission is a (role, resource, action) grant row.
type Permission struct {
	ID       int64  `json:"id"`
	RoleID   int64  `json:"roleId"`
	Resource string `json:"resource"`
	Action   string `json:"action"`
}

// Grant is a (resource, action) pair before role binding. A wildcard action
// expands into the four concrete actions at seed time.
type Grant struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
}
