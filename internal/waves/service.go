// internal/waves/service.go

package waves

import (
	"context"
	"time"

	"github.com/skillswap/skillswap-backend/internal/geo"
	"github.com/skillswap/skillswap-backend/internal/matching"
)

const (
	// DefaultTTL is how long a wave stays visible.
	DefaultTTL = 24 * time.Hour

	nearbyPoolLimit = 100
	listLimit       = 50
)

type Service interface {
	Create(ctx context.Context, userID int64, req *CreateWaveRequest) (*Wave, error)
	// Nearby lists active waves from users within radiusKm of the actor,
	// newest first, annotated with the author's distance.
	Nearby(ctx context.Context, actorID int64, radiusKm float64) ([]*Wave, error)
	Delete(ctx context.Context, id, userID int64) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type waveService struct {
	repo     Repository
	users    matching.Repository
	ttl      time.Duration
	radiusKm float64
}

func NewService(repo Repository, users matching.Repository, ttl time.Duration, defaultRadiusKm float64) Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &waveService{repo: repo, users: users, ttl: ttl, radiusKm: defaultRadiusKm}
}

func (s *waveService) Create(ctx context.Context, userID int64, req *CreateWaveRequest) (*Wave, error) {
	now := time.Now().UTC()
	wave := &Wave{
		UserID:    userID,
		Content:   req.Content,
		SkillTag:  req.SkillTag,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.repo.Create(ctx, wave); err != nil {
		return nil, err
	}
	return wave, nil
}

func (s *waveService) Nearby(ctx context.Context, actorID int64, radiusKm float64) ([]*Wave, error) {
	actor, err := s.users.GetProfile(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if actor.Location == nil {
		return nil, matching.ErrLocationRequired
	}
	if radiusKm <= 0 {
		radiusKm = s.radiusKm
	}

	candidates, err := s.users.FindCandidates(ctx, actorID, &matching.CandidateFilters{Limit: nearbyPoolLimit})
	if err != nil {
		return nil, err
	}

	distances := map[int64]float64{actorID: 0}
	authorIDs := []int64{actorID}
	for _, c := range candidates {
		if c.Location == nil || actor.BlockedIDs[c.ID] {
			continue
		}
		d := geo.DistanceKm(*actor.Location, *c.Location)
		if d > radiusKm {
			continue
		}
		distances[c.ID] = d
		authorIDs = append(authorIDs, c.ID)
	}

	active, err := s.repo.ActiveByUsers(ctx, authorIDs, listLimit)
	if err != nil {
		return nil, err
	}
	for _, w := range active {
		w.DistanceKm = distances[w.UserID]
	}
	return active, nil
}

func (s *waveService) Delete(ctx context.Context, id, userID int64) error {
	return s.repo.Delete(ctx, id, userID)
}

func (s *waveService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx)
}
