package waves

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/skillswap/skillswap-backend/internal/geo"
	"github.com/skillswap/skillswap-backend/internal/matching"
)

type fakeUserRepo struct {
	profiles map[int64]*matching.Profile
}

func (f *fakeUserRepo) GetProfile(ctx context.Context, userID int64) (*matching.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, matching.ErrUserNotFound
	}
	return p, nil
}

func (f *fakeUserRepo) FindCandidates(ctx context.Context, actorID int64, filters *matching.CandidateFilters) ([]*matching.Profile, error) {
	var out []*matching.Profile
	for id, p := range f.profiles {
		if id != actorID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeWaveRepo struct {
	waves  map[int64]*Wave
	nextID int64
}

func newFakeWaveRepo() *fakeWaveRepo {
	return &fakeWaveRepo{waves: make(map[int64]*Wave)}
}

func (f *fakeWaveRepo) Create(ctx context.Context, wave *Wave) error {
	f.nextID++
	wave.ID = f.nextID
	f.waves[wave.ID] = wave
	return nil
}

func (f *fakeWaveRepo) GetByID(ctx context.Context, id int64) (*Wave, error) {
	w, ok := f.waves[id]
	if !ok || !w.ExpiresAt.After(time.Now()) {
		return nil, ErrWaveNotFound
	}
	return w, nil
}

func (f *fakeWaveRepo) ActiveByUsers(ctx context.Context, userIDs []int64, limit int) ([]*Wave, error) {
	allowed := make(map[int64]bool, len(userIDs))
	for _, id := range userIDs {
		allowed[id] = true
	}
	var out []*Wave
	for _, w := range f.waves {
		if allowed[w.UserID] && w.ExpiresAt.After(time.Now()) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeWaveRepo) Delete(ctx context.Context, id, userID int64) error {
	w, ok := f.waves[id]
	if !ok || w.UserID != userID {
		return ErrWaveNotFound
	}
	delete(f.waves, id)
	return nil
}

func (f *fakeWaveRepo) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	for id, w := range f.waves {
		if !w.ExpiresAt.After(time.Now()) {
			delete(f.waves, id)
			removed++
		}
	}
	return removed, nil
}

func point(lat, lng float64) *geo.Point {
	return &geo.Point{Lat: lat, Lng: lng}
}

func TestCreateSetsExpiry(t *testing.T) {
	repo := newFakeWaveRepo()
	svc := NewService(repo, &fakeUserRepo{}, 2*time.Hour, 10)

	wave, err := svc.Create(context.Background(), 1, &CreateWaveRequest{Content: "teaching guitar today"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if wave.ID == 0 {
		t.Error("wave id not assigned")
	}

	ttl := wave.ExpiresAt.Sub(wave.CreatedAt)
	if ttl != 2*time.Hour {
		t.Errorf("ttl = %v, want 2h", ttl)
	}
}

func TestNearbyFiltersByRadius(t *testing.T) {
	users := &fakeUserRepo{profiles: map[int64]*matching.Profile{
		1: {ID: 1, Location: point(12.9716, 77.5946)},
		2: {ID: 2, Location: point(12.9352, 77.6245)}, // ~4.2km away
		3: {ID: 3, Location: point(13.3409, 74.7421)}, // ~300km away
		4: {ID: 4},                                    // no location
	}}
	repo := newFakeWaveRepo()
	svc := NewService(repo, users, time.Hour, 10)
	ctx := context.Background()

	for _, userID := range []int64{2, 3} {
		w := &Wave{UserID: userID, Content: "wave", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
		if err := repo.Create(ctx, w); err != nil {
			t.Fatalf("seeding wave: %v", err)
		}
	}

	waves, err := svc.Nearby(ctx, 1, 5)
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}

	var authors []int64
	for _, w := range waves {
		authors = append(authors, w.UserID)
	}
	if diff := cmp.Diff([]int64{2}, authors); diff != "" {
		t.Errorf("authors mismatch (-want +got):\n%s", diff)
	}
	if waves[0].DistanceKm < 4.0 || waves[0].DistanceKm > 4.5 {
		t.Errorf("distance = %.2f km, want ~4.2", waves[0].DistanceKm)
	}
}

func TestNearbyRequiresLocation(t *testing.T) {
	users := &fakeUserRepo{profiles: map[int64]*matching.Profile{1: {ID: 1}}}
	svc := NewService(newFakeWaveRepo(), users, time.Hour, 10)

	if _, err := svc.Nearby(context.Background(), 1, 5); !errors.Is(err, matching.ErrLocationRequired) {
		t.Errorf("err = %v, want ErrLocationRequired", err)
	}
}

func TestNearbyExcludesBlockedAuthors(t *testing.T) {
	users := &fakeUserRepo{profiles: map[int64]*matching.Profile{
		1: {ID: 1, Location: point(12.9716, 77.5946), BlockedIDs: map[int64]bool{2: true}},
		2: {ID: 2, Location: point(12.9716, 77.5946)},
	}}
	repo := newFakeWaveRepo()
	svc := NewService(repo, users, time.Hour, 10)
	ctx := context.Background()

	w := &Wave{UserID: 2, Content: "wave", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(ctx, w); err != nil {
		t.Fatalf("seeding wave: %v", err)
	}

	waves, err := svc.Nearby(ctx, 1, 5)
	if err != nil {
		t.Fatalf("Nearby: %v", err)
	}
	if len(waves) != 0 {
		t.Errorf("blocked author's waves returned: %v", waves)
	}
}

func TestCleanupExpired(t *testing.T) {
	repo := newFakeWaveRepo()
	svc := NewService(repo, &fakeUserRepo{}, time.Hour, 10)
	ctx := context.Background()

	expired := &Wave{UserID: 1, Content: "old", CreatedAt: time.Now().Add(-2 * time.Hour), ExpiresAt: time.Now().Add(-time.Hour)}
	live := &Wave{UserID: 1, Content: "new", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	for _, w := range []*Wave{expired, live} {
		if err := repo.Create(ctx, w); err != nil {
			t.Fatalf("seeding wave: %v", err)
		}
	}

	removed, err := svc.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	if _, err := repo.GetByID(ctx, live.ID); err != nil {
		t.Errorf("live wave was removed: %v", err)
	}
}

func TestDeleteRequiresOwnership(t *testing.T) {
	repo := newFakeWaveRepo()
	svc := NewService(repo, &fakeUserRepo{}, time.Hour, 10)
	ctx := context.Background()

	w := &Wave{UserID: 1, Content: "mine", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour)}
	if err := repo.Create(ctx, w); err != nil {
		t.Fatalf("seeding wave: %v", err)
	}

	if err := svc.Delete(ctx, w.ID, 2); !errors.Is(err, ErrWaveNotFound) {
		t.Errorf("foreign delete: err = %v, want ErrWaveNotFound", err)
	}
	if err := svc.Delete(ctx, w.ID, 1); err != nil {
		t.Errorf("owner delete: %v", err)
	}
}
