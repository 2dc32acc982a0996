package community

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skillswap/skillswap-backend/internal/geo"
	"github.com/skillswap/skillswap-backend/internal/matching"
)

type fakeUserRepo struct {
	profiles map[int64]*matching.Profile
}

func (f *fakeUserRepo) GetProfile(_ context.Context, userID int64) (*matching.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, matching.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeUserRepo) FindCandidates(_ context.Context, _ int64, _ *matching.CandidateFilters) ([]*matching.Profile, error) {
	return nil, nil
}

type fakeCommunityRepo struct {
	communities []*Community
	members     map[int64]map[int64]bool
}

func (f *fakeCommunityRepo) Create(_ context.Context, c *Community) error { return nil }

func (f *fakeCommunityRepo) GetByID(_ context.Context, id int64) (*Community, error) {
	for _, c := range f.communities {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, ErrCommunityNotFound
}

func (f *fakeCommunityRepo) ListActive(_ context.Context, _ int64, _ int) ([]*Community, error) {
	return f.communities, nil
}

func (f *fakeCommunityRepo) AddMember(_ context.Context, communityID, userID int64) error {
	if f.members == nil {
		f.members = map[int64]map[int64]bool{}
	}
	if f.members[communityID] == nil {
		f.members[communityID] = map[int64]bool{}
	}
	f.members[communityID][userID] = true
	return nil
}

func (f *fakeCommunityRepo) RemoveMember(_ context.Context, communityID, userID int64) error {
	delete(f.members[communityID], userID)
	return nil
}

func TestNearbyFiltersAndSortsByDistance(t *testing.T) {
	users := &fakeUserRepo{profiles: map[int64]*matching.Profile{
		1: {ID: 1, Location: &geo.Point{Lat: 12.9716, Lng: 77.5946}},
	}}
	repo := &fakeCommunityRepo{communities: []*Community{
		{ID: 10, Name: "far", Location: &geo.Point{Lat: 13.1986, Lng: 77.7066}},   // ~27km
		{ID: 11, Name: "near", Location: &geo.Point{Lat: 12.9752, Lng: 77.6000}},  // <1km
		{ID: 12, Name: "mid", Location: &geo.Point{Lat: 12.9352, Lng: 77.6245}},   // ~4.2km
		{ID: 13, Name: "nowhere", Location: nil},
	}}

	svc := NewService(repo, users, 10)
	got, err := svc.Nearby(context.Background(), 1, 5)
	if err != nil {
		t.Fatalf("Nearby() error = %v", err)
	}

	var ids []int64
	for _, c := range got {
		ids = append(ids, c.ID)
	}
	if diff := cmp.Diff([]int64{11, 12}, ids); diff != "" {
		t.Errorf("nearby ids mismatch (-want +got):\n%s", diff)
	}
	for _, c := range got {
		if c.DistanceKm > 5 {
			t.Errorf("community %d outside radius: %v km", c.ID, c.DistanceKm)
		}
	}
}

func TestNearbyRequiresLocation(t *testing.T) {
	users := &fakeUserRepo{profiles: map[int64]*matching.Profile{
		1: {ID: 1},
	}}
	svc := NewService(&fakeCommunityRepo{}, users, 10)

	_, err := svc.Nearby(context.Background(), 1, 5)
	if !errors.Is(err, matching.ErrLocationRequired) {
		t.Errorf("Nearby() error = %v, want ErrLocationRequired", err)
	}
}

func TestJoinPublicCommunity(t *testing.T) {
	repo := &fakeCommunityRepo{communities: []*Community{
		{ID: 21, Name: "open", IsPublic: true},
	}}
	svc := NewService(repo, &fakeUserRepo{}, 10)

	if err := svc.Join(context.Background(), 21, 1); err != nil {
		t.Fatalf("Join() error = %v", err)
	}
	if !repo.members[21][1] {
		t.Error("user 1 not recorded as member of community 21")
	}

	if err := svc.Leave(context.Background(), 21, 1); err != nil {
		t.Fatalf("Leave() error = %v", err)
	}
	if repo.members[21][1] {
		t.Error("user 1 still a member after Leave")
	}
}

func TestJoinPrivateCommunityRejected(t *testing.T) {
	repo := &fakeCommunityRepo{communities: []*Community{
		{ID: 20, Name: "secret", IsPublic: false},
	}}
	svc := NewService(repo, &fakeUserRepo{}, 10)

	if err := svc.Join(context.Background(), 20, 1); !errors.Is(err, ErrPrivateCommunity) {
		t.Errorf("Join() error = %v, want ErrPrivateCommunity", err)
	}
}
