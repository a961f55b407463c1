// Package model contains domain models passed between layers.
package model

import "time"

// DateLayout is the calendar-day form used for every date in the system.
// It sorts lexically in chronological order.
const DateLayout = "2006-01-02"

// WildcardItem marks a target that applies to every main item.
const WildcardItem = "*"

// Status is the approval state of a record or a suggested item.
type Status string

// Approval states.
const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Valid reports whether s is a known approval state.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved
}

// Role is the permission level of a team member.
type Role string

// Team roles.
const (
	RoleInspector Role = "inspector"
	RoleManager   Role = "manager"
	RoleAdmin     Role = "admin"
)

// Inspector is a team member.
type Inspector struct {
	ID         string `json:"id" bson:"_id"`
	Name       string `json:"name" bson:"name"`
	Department string `json:"department" bson:"department"`
	Role       Role   `json:"role" bson:"role"`
}

// EvaluationItem is a category of inspection work units are logged against.
type EvaluationItem struct {
	ID         string `json:"id" bson:"_id"`
	SubItem    string `json:"sub_item" bson:"sub_item"`
	MainItem   string `json:"main_item" bson:"main_item"`
	Code       string `json:"code" bson:"code"`
	Department string `json:"department" bson:"department"`
	Status     Status `json:"status" bson:"status"`
}

// EvaluationRecord is one logged inspection event.
type EvaluationRecord struct {
	ID            string `json:"id" bson:"_id"`
	Date          string `json:"date" bson:"date"` // YYYY-MM-DD
	InspectorID   string `json:"inspector_id" bson:"inspector_id"`
	InspectorName string `json:"inspector_name" bson:"inspector_name"`
	ItemID        string `json:"item_id" bson:"item_id"`
	SubItem       string `json:"sub_item" bson:"sub_item"`
	MainItem      string `json:"main_item" bson:"main_item"`
	Code          string `json:"code" bson:"code"`
	Count         int    `json:"count" bson:"count"`
	Status        Status `json:"status" bson:"status"`
	Notes         string `json:"notes,omitempty" bson:"notes,omitempty"`
}

// Approved reports whether the record has passed admin review.
func (r EvaluationRecord) Approved() bool {
	return r.Status == StatusApproved
}

// InWindow reports whether the record date lies in [from, to]. Empty bounds
// are open.
func (r EvaluationRecord) InWindow(from, to string) bool {
	if from != "" && r.Date < from {
		return false
	}
	if to != "" && r.Date > to {
		return false
	}
	return true
}

// Target is a quota of units assigned to an inspector over an inclusive
// date window.
type Target struct {
	ID          string `json:"id" bson:"_id"`
	InspectorID string `json:"inspector_id" bson:"inspector_id"`
	MainItem    string `json:"main_item" bson:"main_item"`
	TargetValue int    `json:"target_value" bson:"target_value"`
	StartDate   string `json:"start_date" bson:"start_date"`
	EndDate     string `json:"end_date" bson:"end_date"`
}

// Overlaps reports whether the target window intersects [from, to].
func (t Target) Overlaps(from, to string) bool {
	if t.EndDate != "" && from != "" && t.EndDate < from {
		return false
	}
	if t.StartDate != "" && to != "" && t.StartDate > to {
		return false
	}
	return true
}

// Notification is a message addressed to an inspector.
type Notification struct {
	ID          string    `json:"id" bson:"_id"`
	InspectorID string    `json:"inspector_id" bson:"inspector_id"`
	Kind        string    `json:"kind" bson:"kind"`
	Message     string    `json:"message" bson:"message"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	Read        bool      `json:"read" bson:"read"`
}

// Submission is an inspector's request to log units, before it is resolved
// against the roster and the item catalogue.
type Submission struct {
	SubmissionID string // client-supplied idempotency key
	Date         string
	InspectorID  string
	ItemID       string
	Count        int
	Notes        string
}
