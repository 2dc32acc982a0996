// internal/matching/repository.go

package matching

import "context"

// CandidateFilters narrows the pool loaded for a ranking request.
// The pool is always capped; the ranker does the rest in memory.
type CandidateFilters struct {
	Search       string
	Availability string
	Limit        int
}

// Repository loads the slices of user data the matching engine reads.
type Repository interface {
	// GetProfile returns a user's matching profile including skills,
	// rating and the set of users they have blocked.
	GetProfile(ctx context.Context, userID int64) (*Profile, error)

	// FindCandidates loads a capped candidate pool excluding the actor.
	// Candidates blocked by the actor are still returned; exclusion is
	// the ranker's responsibility so the rule lives in one place.
	FindCandidates(ctx context.Context, actorID int64, filters *CandidateFilters) ([]*Profile, error)
}
