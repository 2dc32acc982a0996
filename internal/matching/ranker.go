// internal/matching/ranker.go
// Weighted proximity ranking over an in-memory candidate pool.
// There is deliberately no geospatial index here: pools are capped by the
// repository and distance is computed per candidate.

package matching

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"

	"github.com/skillswap/skillswap-backend/internal/geo"
)

var (
	ErrLocationRequired = errors.New("location required")
	ErrUserNotFound     = errors.New("user not found")
)

const (
	// DefaultTopN bounds every ranked response.
	DefaultTopN = 20

	// engagementScore is a stub until behavioral data is collected.
	engagementScore = 50

	// semanticBlend is the share of the composite handed to the external
	// similarity service when it is configured and answers.
	semanticBlend = 0.1
)

// SemanticScorer is an optional external text-similarity service.
// Implementations return a score in [0,100]. Failures degrade the
// ranking, never the request.
type SemanticScorer interface {
	Score(ctx context.Context, actor, candidate *Profile) (float64, error)
}

// RankOptions controls a single ranking pass.
type RankOptions struct {
	// RadiusKm > 0 enables proximity filtering and requires the actor to
	// have a location. <= 0 selects the location-free mode: no radius
	// filter, distance weight redistributed.
	RadiusKm    float64
	TopN        int
	UseSemantic bool
}

// Ranker scores and orders candidate profiles for an actor.
type Ranker struct {
	weights  Weights
	semantic SemanticScorer
}

func NewRanker(weights Weights, semantic SemanticScorer) *Ranker {
	return &Ranker{weights: weights, semantic: semantic}
}

// Rank filters, scores, sorts and truncates the candidate pool.
// Exclusion order: self, actor-blocked, missing location, out of radius.
// Blocks are enforced one-directionally: only the actor's own list hides
// candidates here; the messaging layer checks the other direction.
func (r *Ranker) Rank(ctx context.Context, actor *Profile, pool []*Profile, opts RankOptions) ([]*MatchResult, error) {
	if actor == nil {
		return nil, ErrUserNotFound
	}

	proximity := opts.RadiusKm > 0
	if proximity && actor.Location == nil {
		return nil, ErrLocationRequired
	}

	weights := r.weights
	if !proximity {
		weights = weights.withoutDistance()
	}

	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	results := make([]*MatchResult, 0, len(pool))
	for _, candidate := range pool {
		if candidate == nil || candidate.ID == actor.ID {
			continue
		}
		if actor.BlockedIDs[candidate.ID] {
			continue
		}

		var distanceKm float64
		if proximity {
			if candidate.Location == nil {
				continue
			}
			distanceKm = geo.DistanceKm(*actor.Location, *candidate.Location)
			if distanceKm > opts.RadiusKm {
				continue
			}
		}

		score := r.composite(ctx, actor, candidate, distanceKm, weights, proximity, opts.UseSemantic)
		recordCompositeScore(float64(score))

		results = append(results, &MatchResult{
			Candidate:     candidate,
			Score:         score,
			ReasonPhrases: reasonPhrases(actor, candidate, distanceKm, proximity),
			DistanceKm:    distanceKm,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DistanceKm < results[j].DistanceKm
	})

	if len(results) > topN {
		results = results[:topN]
	}
	return results, nil
}

func (r *Ranker) composite(ctx context.Context, actor, candidate *Profile, distanceKm float64, w Weights, proximity, useSemantic bool) int {
	skill := SkillScore(actor, candidate)
	availability := availabilityScore(actor, candidate)
	rating := ratingScore(candidate)

	score := skill*w.Skill +
		availability*w.Availability +
		rating*w.Rating +
		engagementScore*w.Engagement

	if proximity {
		score += distanceScore(distanceKm) * w.Distance
	}

	if useSemantic && r.semantic != nil {
		semantic, err := r.semantic.Score(ctx, actor, candidate)
		if err != nil {
			log.Printf("Semantic scoring degraded for candidate %d: %v", candidate.ID, err)
			recordSemanticDegraded()
		} else {
			score = score*(1-semanticBlend) + semantic*semanticBlend
		}
	}

	return clampScore(score)
}

func availabilityScore(actor, candidate *Profile) float64 {
	if actor.Availability != nil && candidate.Availability != nil &&
		*actor.Availability == *candidate.Availability {
		return 100
	}
	return 50
}

func ratingScore(candidate *Profile) float64 {
	if candidate.Rating == nil {
		return 0
	}
	return candidate.Rating.Average / 5 * 100
}

// distanceScore decays linearly and bottoms out at 20 km regardless of the
// requested radius.
func distanceScore(distanceKm float64) float64 {
	return math.Max(0, 100-distanceKm*5)
}

func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

func reasonPhrases(actor, candidate *Profile, distanceKm float64, proximity bool) []string {
	var reasons []string

	if countTagMatches(candidate.TeachSkills, actor.LearnSkills) > 0 {
		reasons = append(reasons, "teaches what you want to learn")
	}
	if countTagMatches(actor.TeachSkills, candidate.LearnSkills) > 0 {
		reasons = append(reasons, "wants to learn what you teach")
	}
	if proximity && distanceKm <= 2 {
		reasons = append(reasons, "very close by")
	}
	if actor.Availability != nil && candidate.Availability != nil &&
		*actor.Availability == *candidate.Availability {
		reasons = append(reasons, "same availability")
	}
	if candidate.Rating != nil && candidate.Rating.Average >= 4.5 && candidate.Rating.Count >= 5 {
		reasons = append(reasons, "highly rated")
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "recommended for you")
	}
	return reasons
}
