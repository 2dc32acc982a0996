// internal/community/service.go

package community

import (
	"context"
	"errors"
	"sort"

	"github.com/skillswap/skillswap-backend/internal/geo"
	"github.com/skillswap/skillswap-backend/internal/matching"
)

var (
	ErrCommunityNotFound = errors.New("community not found")
	ErrPrivateCommunity  = errors.New("community is private")
)

const poolLimit = 100

type Service interface {
	Create(ctx context.Context, userID int64, req *CreateCommunityRequest) (*Community, error)
	// Nearby returns communities inside the radius sorted by distance.
	// No skill scoring applies to communities; proximity and the
	// caller's membership flag are the whole signal.
	Nearby(ctx context.Context, userID int64, radiusKm float64) ([]*Community, error)
	Join(ctx context.Context, communityID, userID int64) error
	Leave(ctx context.Context, communityID, userID int64) error
}

type communityService struct {
	repo            Repository
	users           matching.Repository
	defaultRadiusKm float64
}

func NewService(repo Repository, users matching.Repository, defaultRadiusKm float64) Service {
	if defaultRadiusKm <= 0 {
		defaultRadiusKm = 10
	}
	return &communityService{repo: repo, users: users, defaultRadiusKm: defaultRadiusKm}
}

func (s *communityService) Create(ctx context.Context, userID int64, req *CreateCommunityRequest) (*Community, error) {
	c := &Community{
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		CreatedBy:   userID,
	}
	if req.Lat != nil && req.Lng != nil {
		c.Location = &geo.Point{Lat: *req.Lat, Lng: *req.Lng}
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, err
	}
	c.MemberCount = 1
	c.IsMember = true
	return c, nil
}

func (s *communityService) Nearby(ctx context.Context, userID int64, radiusKm float64) ([]*Community, error) {
	actor, err := s.users.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor.Location == nil {
		return nil, matching.ErrLocationRequired
	}

	if radiusKm <= 0 {
		radiusKm = s.defaultRadiusKm
	}

	pool, err := s.repo.ListActive(ctx, userID, poolLimit)
	if err != nil {
		return nil, err
	}

	nearby := make([]*Community, 0, len(pool))
	for _, c := range pool {
		if c.Location == nil {
			continue
		}
		c.DistanceKm = geo.DistanceKm(*actor.Location, *c.Location)
		if c.DistanceKm > radiusKm {
			continue
		}
		nearby = append(nearby, c)
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})
	return nearby, nil
}

func (s *communityService) Join(ctx context.Context, communityID, userID int64) error {
	c, err := s.repo.GetByID(ctx, communityID)
	if err != nil {
		return err
	}
	if !c.IsPublic {
		return ErrPrivateCommunity
	}
	return s.repo.AddMember(ctx, communityID, userID)
}

func (s *communityService) Leave(ctx context.Context, communityID, userID int64) error {
	if _, err := s.repo.GetByID(ctx, communityID); err != nil {
		return err
	}
	return s.repo.RemoveMember(ctx, communityID, userID)
}
