package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Review struct {
	bun.BaseModel `bun:"table:reviews"`

	ID             string `bun:"id,pk" json:"id"`
	EventID        string `bun:"event_id,notnull" json:"event_id"`
	UserID         string `bun:"user_id,notnull" json:"user_id"`
	RegistrationID string `bun:"registration_id,notnull,unique" json:"registration_id"`

	Rating         int    `bun:"rating,notnull" json:"rating"`
	Comment        string `bun:"comment,nullzero" json:"comment,omitempty"`
	WouldRecommend bool   `bun:"would_recommend,notnull,default:true" json:"would_recommend"`
	Anonymous      bool   `bun:"anonymous,notnull,default:false" json:"anonymous"`
	IsVisible      bool   `bun:"is_visible,notnull,default:true" json:"is_visible"`

	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero" json:"updated_at,omitempty"`
}

// ReviewInput carries the author-editable fields of a review.
type ReviewInput struct {
	Rating         int    `json:"rating"`
	Comment        string `json:"comment"`
	WouldRecommend *bool  `json:"would_recommend,omitempty"`
	Anonymous      *bool  `json:"anonymous,omitempty"`
}

// ReviewStats aggregates the visible reviews of an event.
type ReviewStats struct {
	AverageRating      float64     `json:"average_rating"`
	TotalReviews       int         `json:"total_reviews"`
	RatingDistribution map[int]int `json:"rating_distribution"`
}
