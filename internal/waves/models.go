// internal/waves/models.go

package waves

import "time"

// Wave is a short-lived broadcast post. It disappears after ExpiresAt;
// expired rows are swept by the cleanup job.
type Wave struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	Content    string    `json:"content" db:"content"`
	SkillTag   string    `json:"skillTag,omitempty" db:"skill_tag"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
	ExpiresAt  time.Time `json:"expiresAt" db:"expires_at"`
	DistanceKm float64   `json:"distanceKm,omitempty" db:"-"`
}

// CreateWaveRequest is the payload for posting a wave.
type CreateWaveRequest struct {
	Content  string `json:"content" validate:"required,max=280"`
	SkillTag string `json:"skillTag" validate:"omitempty,max=64"`
}
