// internal/matching/semantic.go
// Optional external text-similarity service. Absence of configuration
// disables the feature; failures never surface to the caller.

package matching

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	semanticTimeout  = 2 * time.Second
	semanticCacheTTL = 15 * time.Minute
)

// HTTPSemanticScorer calls a text-similarity endpoint with both profiles'
// skill text and reads back a [0,100] score. Scores are cached in Redis per
// unordered user pair when a client is available.
type HTTPSemanticScorer struct {
	url    string
	apiKey string
	client *http.Client
	cache  *redis.Client
}

// NewHTTPSemanticScorer returns nil when no URL is configured, which
// callers treat as the feature being disabled.
func NewHTTPSemanticScorer(url, apiKey string, cache *redis.Client) *HTTPSemanticScorer {
	if url == "" {
		return nil
	}
	return &HTTPSemanticScorer{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{Timeout: semanticTimeout},
		cache:  cache,
	}
}

type semanticRequest struct {
	TextA string `json:"text_a"`
	TextB string `json:"text_b"`
}

type semanticResponse struct {
	Score float64 `json:"score"`
}

func (s *HTTPSemanticScorer) Score(ctx context.Context, actor, candidate *Profile) (float64, error) {
	key := s.cacheKey(actor.ID, candidate.ID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key).Float64(); err == nil {
			return cached, nil
		}
	}

	body, err := json.Marshal(semanticRequest{
		TextA: profileText(actor),
		TextB: profileText(candidate),
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("semantic service returned %d", resp.StatusCode)
	}

	var out semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	if out.Score < 0 || out.Score > 100 {
		return 0, fmt.Errorf("semantic score %f out of range", out.Score)
	}

	if s.cache != nil {
		s.cache.Set(ctx, key, out.Score, semanticCacheTTL)
	}
	return out.Score, nil
}

// cacheKey is order-insensitive so A→B and B→A share an entry.
func (s *HTTPSemanticScorer) cacheKey(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("semantic:%d:%d", a, b)
}

func profileText(p *Profile) string {
	parts := make([]string, 0, len(p.TeachSkills)+len(p.LearnSkills))
	for _, s := range p.TeachSkills {
		parts = append(parts, "teaches "+strings.ToLower(s.Tag))
	}
	for _, tag := range p.LearnSkills {
		parts = append(parts, "learning "+strings.ToLower(tag))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}
