// internal/community/models.go

package community

import (
	"time"

	"github.com/skillswap/skillswap-backend/internal/geo"
)

// Community is a local interest group users can join.
type Community struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description,omitempty" db:"description"`
	Location    *geo.Point `json:"location,omitempty"`
	IsPublic    bool       `json:"is_public" db:"is_public"`
	MemberCount int        `json:"member_count" db:"member_count"`
	CreatedBy   int64      `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`

	// Computed per request
	IsMember   bool    `json:"is_member"`
	DistanceKm float64 `json:"distance_km"`
}

// CreateCommunityRequest is the payload for creating a community.
type CreateCommunityRequest struct {
	Name        string   `json:"name" validate:"required,min=3,max=80"`
	Description string   `json:"description" validate:"max=500"`
	Lat         *float64 `json:"lat" validate:"required_with=Lng"`
	Lng         *float64 `json:"lng" validate:"required_with=Lat"`
	IsPublic    bool     `json:"is_public"`
}
