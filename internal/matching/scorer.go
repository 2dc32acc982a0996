// internal/matching/scorer.go
// Skill compatibility between two profiles

package matching

import "strings"

// SkillScore computes a 0-100 compatibility score between two skill
// profiles. Matching is bidirectional: what the actor teaches against what
// the candidate wants to learn, plus the reverse. Normalized by the larger
// of the two profiles' total skill counts so a one-sided long list cannot
// inflate the score.
func SkillScore(actor, candidate *Profile) float64 {
	direct := countTagMatches(actor.TeachSkills, candidate.LearnSkills)
	reverse := countTagMatches(candidate.TeachSkills, actor.LearnSkills)
	total := direct + reverse

	actorSize := len(actor.TeachSkills) + len(actor.LearnSkills)
	candidateSize := len(candidate.TeachSkills) + len(candidate.LearnSkills)

	maxPossible := actorSize
	if candidateSize > maxPossible {
		maxPossible = candidateSize
	}
	if maxPossible < 1 {
		// Both profiles empty: no signal, not NaN.
		maxPossible = 1
	}

	return float64(total) / float64(maxPossible) * 100
}

func countTagMatches(teach []Skill, learn []string) int {
	if len(teach) == 0 || len(learn) == 0 {
		return 0
	}

	wanted := make(map[string]bool, len(learn))
	for _, tag := range learn {
		wanted[strings.ToLower(tag)] = true
	}

	matches := 0
	for _, s := range teach {
		if wanted[strings.ToLower(s.Tag)] {
			matches++
		}
	}
	return matches
}
