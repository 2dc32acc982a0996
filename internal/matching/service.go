// internal/matching/service.go

package matching

import (
	"context"
	"sort"
	"time"
)

type Service interface {
	// NearbyUsers returns candidates inside the radius sorted by distance,
	// without composite scoring. Requires the actor to have a location.
	NearbyUsers(ctx context.Context, actorID int64, radiusKm float64, search, availability string) ([]*MatchResult, error)

	// Matches returns the fully weighted ranking. Actors without a
	// location get the location-free mode instead of an error.
	Matches(ctx context.Context, actorID int64) ([]*MatchResult, error)

	// AIMatches is Matches plus the optional semantic blend. The second
	// return value is the pool size considered before truncation.
	AIMatches(ctx context.Context, actorID int64) ([]*MatchResult, int, error)
}

type matchService struct {
	repo            Repository
	ranker          *Ranker
	defaultRadiusKm float64
	topN            int
}

func NewService(repo Repository, ranker *Ranker, defaultRadiusKm float64, topN int) Service {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 10
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &matchService{
		repo:            repo,
		ranker:          ranker,
		defaultRadiusKm: defaultRadiusKm,
		topN:            topN,
	}
}

func (s *matchService) NearbyUsers(ctx context.Context, actorID int64, radiusKm float64, search, availability string) ([]*MatchResult, error) {
	started := time.Now()
	defer func() { recordRankDuration("nearby", time.Since(started)) }()

	actor, err := s.repo.GetProfile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Location == nil {
		return nil, ErrLocationRequired
	}

	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}

	pool, err := s.repo.FindCandidates(ctx, actorID, &CandidateFilters{
		Search:       search,
		Availability: availability,
	})
	if err != nil {
		return nil, err
	}
	recordPoolSize(len(pool))

	results, err := s.ranker.Rank(ctx, actor, pool, RankOptions{
		RadiusKm: radiusKm,
		TopN:     s.topN,
	})
	if err != nil {
		return nil, err
	}

	// Nearby is a plain proximity listing: distance order, score hidden.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DistanceKm < results[j].DistanceKm
	})
	for _, r := range results {
		r.Score = 0
		r.ReasonPhrases = nil
	}
	return results, nil
}

func (s *matchService) Matches(ctx context.Context, actorID int64) ([]*MatchResult, error) {
	started := time.Now()
	defer func() { recordRankDuration("matches", time.Since(started)) }()

	actor, pool, err := s.loadActorAndPool(ctx, actorID)
	if err != nil {
		return nil, err
	}

	return s.ranker.Rank(ctx, actor, pool, RankOptions{
		RadiusKm: s.radiusFor(actor),
		TopN:     s.topN,
	})
}

func (s *matchService) AIMatches(ctx context.Context, actorID int64) ([]*MatchResult, int, error) {
	started := time.Now()
	defer func() { recordRankDuration("ai", time.Since(started)) }()

	actor, pool, err := s.loadActorAndPool(ctx, actorID)
	if err != nil {
		return nil, 0, err
	}

	results, err := s.ranker.Rank(ctx, actor, pool, RankOptions{
		RadiusKm:    s.radiusFor(actor),
		TopN:        s.topN,
		UseSemantic: true,
	})
	if err != nil {
		return nil, 0, err
	}
	return results, len(pool), nil
}

func (s *matchService) loadActorAndPool(ctx context.Context, actorID int64) (*Profile, []*Profile, error) {
	actor, err := s.repo.GetProfile(ctx, actorID)
	if err != nil {
		return nil, nil, err
	}

	pool, err := s.repo.FindCandidates(ctx, actorID, nil)
	if err != nil {
		return nil, nil, err
	}
	recordPoolSize(len(pool))

	return actor, pool, nil
}

// radiusFor selects proximity mode when the actor has a location and the
// location-free mode otherwise.
func (s *matchService) radiusFor(actor *Profile) float64 {
	if actor.Location == nil {
		return 0
	}
	return s.defaultRadiusKm
}
