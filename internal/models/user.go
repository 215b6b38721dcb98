package models

import (
	"time"

	"github.com/uptrace/bun"
)

// User mirrors what the identity provider knows about an account. The
// service trusts the middleware-supplied id/role and never authenticates.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        string    `bun:"id,pk" json:"id"`
	Email     string    `bun:"email,unique,notnull" json:"email"`
	Name      string    `bun:"name,notnull" json:"name"`
	Role      string    `bun:"role,notnull,default:'student'" json:"role"`
	College   string    `bun:"college,nullzero" json:"college,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
}
