package leads

import "time"

// Pipeline statuses. The four canonical states are New, Contacted, Qualified
// and Converted; In Discussion and Proposal Sent are the intermediate kanban
// columns the scoring table prices.
const (
	StatusNew          = "New"
	StatusContacted    = "Contacted"
	StatusInDiscussion = "In Discussion"
	StatusProposalSent = "Proposal Sent"
	StatusQualified    = "Qualified"
	StatusConverted    = "Converted"
)

// ValidStatus reports whether s is a known pipeline status.
func ValidStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusInDiscussion, StatusProposalSent, StatusQualified, StatusConverted:
		return true
	}
	return false
}

// Activity types emitted by the lifecycle itself. Interaction activities
// (call, email, meeting) arrive from callers.
const (
	ActivityCreation     = "creation"
	ActivityStatusChange = "status_change"
)

// Lead is a prospective customer moving through the sales pipeline. Leads are
// never deleted, only transitioned; conversion materializes a Client.
type Lead struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Email       *string   `json:"email,omitempty"`
	Phone       *string   `json:"phone,omitempty"`
	Location    *string   `json:"location,omitempty"`
	Status      string    `json:"status"`
	Source      *string   `json:"source,omitempty"`
	AssignedTo  *int64    `json:"assignedTo,omitempty"`
	Budget      *float64  `json:"budget,omitempty"`
	Score       int       `json:"score"`
	ProjectType *string   `json:"projectType,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Activity is an immutable audit record of an interaction with or change to a
// Lead. Only the completion timestamp may be stamped after creation.
type Activity struct {
	ID           int64      `json:"id"`
	LeadID       int64      `json:"leadId"`
	UserID       int64      `json:"userId"`
	Type         string     `json:"type"`
	Notes        *string    `json:"notes,omitempty"`
	ScheduledFor *time.Time `json:"scheduledFor,omitempty"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}
