package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID           string    `bun:"id,pk" json:"id"`
	Title        string    `bun:"title,notnull" json:"title"`
	Description  string    `bun:"description" json:"description"`
	Category     string    `bun:"category" json:"category"`
	Capacity     int       `bun:"capacity,notnull" json:"capacity"`
	StartDate    time.Time `bun:"start_date,notnull" json:"start_date"`
	EndDate      time.Time `bun:"end_date,notnull" json:"end_date"`
	StartTime    string    `bun:"start_time" json:"start_time"`
	EndTime      string    `bun:"end_time" json:"end_time"`
	Venue        string    `bun:"venue" json:"venue"`
	Price        float64   `bun:"price,nullzero" json:"price"`
	RegDeadline  time.Time `bun:"reg_deadline,nullzero" json:"reg_deadline,omitempty"`
	Image        string    `bun:"image,nullzero" json:"image,omitempty"`
	Requirements string    `bun:"requirements,nullzero" json:"requirements,omitempty"`
	Tags         []string  `bun:"tags" json:"tags,omitempty"`

	CreatedBy   string `bun:"created_by,notnull" json:"created_by"`
	CreatorName string `bun:"creator_name" json:"creator_name"`

	Draft     bool `bun:"draft,notnull,default:false" json:"draft"`
	Published bool `bun:"published,notnull,default:false" json:"published"`

	// RegisteredCount caches the number of active registrations. It is
	// written only through the recount path, never ad hoc.
	RegisteredCount int `bun:"registered_count,notnull,default:0" json:"registered_count"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// AvailableSlots reports remaining capacity, never negative.
func (e *Event) AvailableSlots() int {
	slots := e.Capacity - e.RegisteredCount
	if slots < 0 {
		return 0
	}
	return slots
}
