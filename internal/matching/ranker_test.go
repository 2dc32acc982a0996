package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/skillswap/skillswap-backend/internal/geo"
)

func strPtr(s string) *string { return &s }

// Scenario fixtures: actor in central Bangalore, candidate ~4.2 km away
// with a full bidirectional skill match.
func testActor() *Profile {
	return &Profile{
		ID:           1,
		Username:     "asha",
		Location:     &geo.Point{Lat: 12.9716, Lng: 77.5946},
		TeachSkills:  []Skill{{Tag: "guitar"}},
		LearnSkills:  []string{"yoga"},
		Availability: strPtr("evening"),
		BlockedIDs:   map[int64]bool{},
	}
}

func testCandidate() *Profile {
	return &Profile{
		ID:           2,
		Username:     "ravi",
		Location:     &geo.Point{Lat: 12.9352, Lng: 77.6245},
		TeachSkills:  []Skill{{Tag: "yoga"}},
		LearnSkills:  []string{"guitar"},
		Availability: strPtr("evening"),
		Rating:       &Rating{Average: 4.5, Count: 10},
	}
}

func TestRankStrongMatchIncludedAtRadius5(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)

	results, err := ranker.Rank(context.Background(), testActor(), []*Profile{testCandidate()}, RankOptions{RadiusKm: 5})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("Rank() returned %d results, want 1", len(results))
	}

	got := results[0]
	if got.DistanceKm < 4.1 || got.DistanceKm > 4.3 {
		t.Errorf("DistanceKm = %v, want ~4.2", got.DistanceKm)
	}
	if got.Score <= 85 {
		t.Errorf("Score = %d, want > 85", got.Score)
	}
	if got.Score > 100 {
		t.Errorf("Score = %d exceeds 100", got.Score)
	}
}

func TestRankRadiusFilterIsStrict(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)

	results, err := ranker.Rank(context.Background(), testActor(), []*Profile{testCandidate()}, RankOptions{RadiusKm: 3})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(results) != 0 {
		t.Errorf("candidate at ~4.2km included at radius 3")
	}
}

func TestRankExclusions(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)
	actor := testActor()
	actor.BlockedIDs[3] = true

	blocked := testCandidate()
	blocked.ID = 3

	self := testCandidate()
	self.ID = actor.ID

	noLocation := testCandidate()
	noLocation.ID = 4
	noLocation.Location = nil

	keeper := testCandidate()
	keeper.ID = 5

	pool := []*Profile{blocked, self, noLocation, nil, keeper}

	results, err := ranker.Rank(context.Background(), actor, pool, RankOptions{RadiusKm: 5})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	var gotIDs []int64
	for _, r := range results {
		gotIDs = append(gotIDs, r.Candidate.ID)
	}
	if diff := cmp.Diff([]int64{5}, gotIDs); diff != "" {
		t.Errorf("ranked ids mismatch (-want +got):\n%s", diff)
	}
}

func TestRankRequiresLocationForRadius(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)
	actor := testActor()
	actor.Location = nil

	_, err := ranker.Rank(context.Background(), actor, []*Profile{testCandidate()}, RankOptions{RadiusKm: 5})
	if !errors.Is(err, ErrLocationRequired) {
		t.Errorf("Rank() error = %v, want ErrLocationRequired", err)
	}
}

func TestRankLocationFreeMode(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)
	actor := testActor()
	actor.Location = nil

	farAway := testCandidate()
	farAway.Location = &geo.Point{Lat: 51.5074, Lng: -0.1278}

	noLocation := testCandidate()
	noLocation.ID = 3
	noLocation.Location = nil

	results, err := ranker.Rank(context.Background(), actor, []*Profile{farAway, noLocation}, RankOptions{})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("location-free mode returned %d results, want 2", len(results))
	}
	for _, r := range results {
		if r.Score < 0 || r.Score > 100 {
			t.Errorf("score %d out of [0,100]", r.Score)
		}
		if r.DistanceKm != 0 {
			t.Errorf("location-free mode reported distance %v", r.DistanceKm)
		}
	}
}

func TestRankEmptySkillListsStillScore(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)
	actor := testActor()
	actor.TeachSkills = nil
	actor.LearnSkills = nil

	candidate := testCandidate()
	candidate.TeachSkills = nil
	candidate.LearnSkills = nil

	results, err := ranker.Rank(context.Background(), actor, []*Profile{candidate}, RankOptions{RadiusKm: 5})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].Score <= 0 {
		t.Errorf("score %d, want > 0 from non-skill factors", results[0].Score)
	}
}

func TestRankDeterministicOrderAndTieBreak(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)
	actor := testActor()

	// Two identical candidates except the second is closer: equal scores
	// are impossible here because distance feeds the score, so pin the
	// tie-break by zeroing the distance weight.
	weights := Weights{Skill: 0.55, Availability: 0.20, Rating: 0.15, Distance: 0, Engagement: 0.10}
	ranker = NewRanker(weights, nil)

	near := testCandidate()
	near.ID = 10
	near.Location = &geo.Point{Lat: 12.9616, Lng: 77.5946}

	far := testCandidate()
	far.ID = 11

	first, err := ranker.Rank(context.Background(), actor, []*Profile{far, near}, RankOptions{RadiusKm: 10})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(first) != 2 || first[0].Candidate.ID != 10 {
		t.Fatalf("tie-break did not prefer nearer candidate: %+v", first)
	}

	for i := 0; i < 5; i++ {
		again, err := ranker.Rank(context.Background(), actor, []*Profile{far, near}, RankOptions{RadiusKm: 10})
		if err != nil {
			t.Fatalf("Rank() error = %v", err)
		}
		for j := range again {
			if again[j].Candidate.ID != first[j].Candidate.ID || again[j].Score != first[j].Score {
				t.Fatalf("Rank() not deterministic on run %d", i)
			}
		}
	}
}

func TestRankTruncatesToTopN(t *testing.T) {
	ranker := NewRanker(DefaultWeights(), nil)
	actor := testActor()

	var pool []*Profile
	for i := int64(0); i < 30; i++ {
		c := testCandidate()
		c.ID = 100 + i
		pool = append(pool, c)
	}

	results, err := ranker.Rank(context.Background(), actor, pool, RankOptions{RadiusKm: 5, TopN: 7})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if len(results) != 7 {
		t.Errorf("got %d results, want 7", len(results))
	}
}

type stubSemantic struct {
	score float64
	err   error
	calls int
}

func (s *stubSemantic) Score(_ context.Context, _, _ *Profile) (float64, error) {
	s.calls++
	return s.score, s.err
}

func TestRankSemanticBlend(t *testing.T) {
	base := NewRanker(DefaultWeights(), nil)
	baseResults, err := base.Rank(context.Background(), testActor(), []*Profile{testCandidate()}, RankOptions{RadiusKm: 5})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	sem := &stubSemantic{score: 0}
	blended := NewRanker(DefaultWeights(), sem)
	blendedResults, err := blended.Rank(context.Background(), testActor(), []*Profile{testCandidate()}, RankOptions{RadiusKm: 5, UseSemantic: true})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}
	if sem.calls != 1 {
		t.Fatalf("semantic scorer called %d times, want 1", sem.calls)
	}
	if blendedResults[0].Score >= baseResults[0].Score {
		t.Errorf("semantic score 0 should drag composite down: base %d, blended %d",
			baseResults[0].Score, blendedResults[0].Score)
	}
}

func TestRankSemanticFailureDegradesSilently(t *testing.T) {
	base := NewRanker(DefaultWeights(), nil)
	baseResults, err := base.Rank(context.Background(), testActor(), []*Profile{testCandidate()}, RankOptions{RadiusKm: 5})
	if err != nil {
		t.Fatalf("Rank() error = %v", err)
	}

	sem := &stubSemantic{err: errors.New("service down")}
	degraded := NewRanker(DefaultWeights(), sem)
	degradedResults, err := degraded.Rank(context.Background(), testActor(), []*Profile{testCandidate()}, RankOptions{RadiusKm: 5, UseSemantic: true})
	if err != nil {
		t.Fatalf("Rank() must not fail when semantic service fails, got %v", err)
	}
	if degradedResults[0].Score != baseResults[0].Score {
		t.Errorf("degraded score %d differs from base %d", degradedResults[0].Score, baseResults[0].Score)
	}
}

func TestWeightsValidate(t *testing.T) {
	if err := DefaultWeights().Validate(); err != nil {
		t.Errorf("DefaultWeights().Validate() = %v", err)
	}

	bad := Weights{Skill: 0.9, Availability: 0.9}
	if err := bad.Validate(); err == nil {
		t.Errorf("Validate() accepted weights summing to %v", 1.8)
	}
}
