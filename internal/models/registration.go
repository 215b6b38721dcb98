package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Registration statuses. StatusCancelled exists for legacy rows only:
// cancellation deletes the row, it is never written as a status.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

// ActiveStatuses are the statuses that count against event capacity.
var ActiveStatuses = []string{StatusPending, StatusApproved}

type Registration struct {
	bun.BaseModel `bun:"table:registrations"`

	ID      string `bun:"id,pk" json:"id"`
	EventID string `bun:"event_id,notnull,unique:registrations_event_user" json:"event_id"`
	UserID  string `bun:"user_id,notnull,unique:registrations_event_user" json:"user_id"`
	Status  string `bun:"status,notnull,default:'pending'" json:"status"`

	Notes       string `bun:"notes,nullzero" json:"notes,omitempty"`
	PhoneNumber string `bun:"phone_number,nullzero" json:"phone_number,omitempty"`
	CollegeID   string `bun:"college_id,nullzero" json:"college_id,omitempty"`
	Department  string `bun:"department,nullzero" json:"department,omitempty"`
	Year        string `bun:"year,nullzero" json:"year,omitempty"`
	AdminNotes  string `bun:"admin_notes,nullzero" json:"admin_notes,omitempty"`

	HasGivenReview bool `bun:"has_given_review,notnull,default:false" json:"has_given_review"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// RegistrationForm carries the applicant-supplied fields of a registration request.
type RegistrationForm struct {
	Notes       string `json:"notes"`
	PhoneNumber string `json:"phone_number"`
	CollegeID   string `json:"college_id"`
	Department  string `json:"department"`
	Year        string `json:"year"`
}

// ValidTransitionTarget reports whether status is an acceptable target for
// an organizer-driven transition. Cancellation is row deletion, not a status.
func ValidTransitionTarget(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}
