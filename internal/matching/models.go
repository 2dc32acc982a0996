// internal/matching/models.go

package matching

import (
	"fmt"
	"time"

	"github.com/skillswap/skillswap-backend/internal/geo"
)

// Skill is a single teachable skill with a self-reported level.
type Skill struct {
	Tag   string `json:"tag" db:"tag"`
	Level string `json:"level,omitempty" db:"level"`
}

// Rating is the aggregate rating attached to a user.
type Rating struct {
	Average float64 `json:"average" db:"average"`
	Count   int     `json:"count" db:"count"`
}

// Profile is the slice of a user the matching engine reads.
// Location is optional; profiles without one are excluded from
// proximity-based ranking.
type Profile struct {
	ID           int64          `json:"id" db:"id"`
	Username     string         `json:"username" db:"username"`
	DisplayName  string         `json:"display_name" db:"display_name"`
	Location     *geo.Point     `json:"location,omitempty"`
	TeachSkills  []Skill        `json:"teach_skills"`
	LearnSkills  []string       `json:"learn_skills"`
	Availability *string        `json:"availability,omitempty" db:"availability"`
	Rating       *Rating        `json:"rating,omitempty"`
	BlockedIDs   map[int64]bool `json:"-"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}

// MatchResult is a ranked candidate. Computed per request, never persisted.
type MatchResult struct {
	Candidate     *Profile `json:"candidate"`
	Score         int      `json:"score"`
	ReasonPhrases []string `json:"reason_phrases"`
	DistanceKm    float64  `json:"distance_km"`
}

// Weights configures the composite score. Sub-scores are each normalized
// to [0,100] before weighting, so weights must sum to 1.
type Weights struct {
	Skill        float64
	Availability float64
	Rating       float64
	Distance     float64
	Engagement   float64
}

// DefaultWeights mirrors the tuning the product shipped with.
func DefaultWeights() Weights {
	return Weights{
		Skill:        0.40,
		Availability: 0.20,
		Rating:       0.15,
		Distance:     0.15,
		Engagement:   0.10,
	}
}

// Validate checks the weights are non-negative and sum to 1 within rounding.
func (w Weights) Validate() error {
	for _, v := range []float64{w.Skill, w.Availability, w.Rating, w.Distance, w.Engagement} {
		if v < 0 {
			return fmt.Errorf("match weights must be non-negative")
		}
	}
	sum := w.Skill + w.Availability + w.Rating + w.Distance + w.Engagement
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("match weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

// withoutDistance redistributes the distance weight across the remaining
// factors so location-free ranking still produces [0,100] scores.
func (w Weights) withoutDistance() Weights {
	rest := w.Skill + w.Availability + w.Rating + w.Engagement
	if rest <= 0 {
		return w
	}
	scale := 1 / rest
	return Weights{
		Skill:        w.Skill * scale,
		Availability: w.Availability * scale,
		Rating:       w.Rating * scale,
		Distance:     0,
		Engagement:   w.Engagement * scale,
	}
}
