// Package match implements candidate generation, multi-algorithm scoring,
// the three-way decision policy, and duplicate-claim resolution.
package match

import (
	"github.com/agnivade/levenshtein"
	"github.com/antzucaro/matchr"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/gazetteer"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/normalize"
)

// Weights is the blend vector for the fuzzy sub-scores. A perfect structural
// match (exact or normalized-exact) short-circuits the blend entirely.
type Weights struct {
	Phonetic float64
	Token    float64
	Edit     float64
}

// Scorer computes similarity breakdowns for (record, unit) pairs.
// Cheap deterministic checks run first; the weighted fuzzy blend only decides
// when no structural check fires.
type Scorer struct {
	w Weights
}

// NewScorer builds a Scorer, renormalizing the weight vector if it does not
// sum to 1.
func NewScorer(w Weights) *Scorer {
	sum := w.Phonetic + w.Token + w.Edit
	if sum <= 0 {
		w = Weights{Phonetic: 0.2, Token: 0.35, Edit: 0.45}
		sum = 1
	}
	w.Phonetic /= sum
	w.Token /= sum
	w.Edit /= sum
	return &Scorer{w: w}
}

// Score computes all sub-scores for one candidate pair. Every sub-score and
// the combined value are in [0,1].
func (s *Scorer) Score(rawName string, key normalize.Key, entry gazetteer.Entry) model.ScoreBreakdown {
	b := model.ScoreBreakdown{}

	if rawName == entry.Unit.Name {
		b.Exact = 1.0
	}
	if key.Clean != "" && key.Clean == entry.Key.Clean {
		b.NormalizedExact = 1.0
	}
	if key.Phonetic != "" && key.Phonetic == entry.Key.Phonetic {
		b.Phonetic = 1.0
	}
	b.TokenSimilarity = tokenSimilarity(key.Tokens(), entry.Key.Tokens())
	b.EditSimilarity = editSimilarity(key.Clean, entry.Key.Clean)

	blend := s.w.Phonetic*b.Phonetic + s.w.Token*b.TokenSimilarity + s.w.Edit*b.EditSimilarity
	b.Combined = max3(b.Exact, b.NormalizedExact, blend)
	return b
}

// tokenSimilarity is the Jaccard coefficient over whitespace token sets,
// catching word-order and multi-word variants.
func tokenSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	inter := 0
	union := len(set)
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

// editSimilarity takes the better of Jaro-Winkler (rewards shared prefixes,
// matching the naming convention where roots are shared and suffixes vary)
// and normalized Levenshtein similarity.
func editSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	jw := matchr.JaroWinkler(a, b, false)

	dist := levenshtein.ComputeDistance(a, b)
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	lev := 1.0 - float64(dist)/float64(longest)

	if lev > jw {
		return lev
	}
	return jw
}

func max3(a, b, c float64) float64 {
	m := a
	if b > m {
		m = b
	}
	if c > m {
		m = c
	}
	return m
}
