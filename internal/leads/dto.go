package leads

import "time"

// CreateLeadRequest is the caller-supplied part of a new lead. Status and
// score are server-owned: whatever the client sends for them is discarded.
type CreateLeadRequest struct {
	Name        string   `json:"name" validate:"required,max=200"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Source      *string  `json:"source,omitempty" validate:"omitempty,max=100"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	ProjectType *string  `json:"projectType,omitempty" validate:"omitempty,max=100"`
	Notes       *string  `json:"notes,omitempty"`
	AssignedTo  *int64   `json:"assignedTo,omitempty" validate:"omitempty,gt=0"`

	// Accepted but ignored; the server forces "New".
	Status *string `json:"status,omitempty"`
}

// UpdateLeadRequest is a partial patch. Nil fields are untouched.
type UpdateLeadRequest struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,max=200"`
	Email       *string  `json:"email,omitempty" validate:"omitempty,email"`
	Phone       *string  `json:"phone,omitempty" validate:"omitempty,max=50"`
	Location    *string  `json:"location,omitempty" validate:"omitempty,max=200"`
	Source      *string  `json:"source,omitempty" validate:"omitempty,max=100"`
	Status      *string  `json:"status,omitempty"`
	Budget      *float64 `json:"budget,omitempty" validate:"omitempty,gte=0"`
	ProjectType *string  `json:"projectType,omitempty" validate:"omitempty,max=100"`
	Notes       *string  `json:"notes,omitempty"`
	AssignedTo  *int64   `json:"assignedTo,omitempty" validate:"omitempty,gt=0"`
}

// ListLeadsRequest filters and paginates the lead listing.
type ListLeadsRequest struct {
	Status     *string
	AssignedTo *int64
	Page       int
	PerPage    int
}

// AddActivityRequest records an interaction against a lead.
type AddActivityRequest struct {
	Type         string     `json:"type" validate:"required,max=50"`
	Notes        *string    `json:"notes,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
}
