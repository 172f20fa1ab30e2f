package match

import (
	"sort"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/gazetteer"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/normalize"
)

// Candidate is one scored (record, unit) pair under consideration. Candidates
// are ephemeral: they exist only between generation and the decision step.
type Candidate struct {
	Entry  gazetteer.Entry
	Scores model.ScoreBreakdown
}

// Generator retrieves a bounded candidate set from a block using cheap
// pre-filters before the scorer runs.
type Generator struct {
	scorer *Scorer
	maxK   int
}

// NewGenerator builds a Generator capped at maxK candidates per record.
func NewGenerator(scorer *Scorer, maxK int) *Generator {
	if maxK <= 0 {
		maxK = 5
	}
	return &Generator{scorer: scorer, maxK: maxK}
}

// Generate scores the pre-filter survivors of one block and returns at most
// maxK candidates sorted by combined score descending. An empty block yields
// an empty set; the caller rejects the record rather than widening scope.
func (g *Generator) Generate(rec model.InputRecord, key normalize.Key, block []gazetteer.Entry) []Candidate {
	if key.Clean == "" || len(block) == 0 {
		return nil
	}

	tokens := make(map[string]struct{})
	for _, t := range key.Tokens() {
		tokens[t] = struct{}{}
	}

	var out []Candidate
	for _, e := range block {
		if !prefilter(key, tokens, e) {
			continue
		}
		out = append(out, Candidate{Entry: e, Scores: g.scorer.Score(rec.RawName, key, e)})
	}

	// Stable order: score descending, then unit id for deterministic ties.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Scores.Combined != out[j].Scores.Combined {
			return out[i].Scores.Combined > out[j].Scores.Combined
		}
		return out[i].Entry.Unit.UnitID < out[j].Entry.Unit.UnitID
	})

	if len(out) > g.maxK {
		out = out[:g.maxK]
	}
	return out
}

// prefilter keeps a block entry when it shares a first byte, a phonetic code,
// or at least one token with the input key. Blocks hold tens of wards, so the
// filter only needs to shed obvious non-starters before the full scorer.
func prefilter(key normalize.Key, tokens map[string]struct{}, e gazetteer.Entry) bool {
	if e.Key.Clean == "" {
		return false
	}
	if key.Clean[0] == e.Key.Clean[0] {
		return true
	}
	if key.Phonetic != "" && key.Phonetic == e.Key.Phonetic {
		return true
	}
	for _, t := range e.Key.Tokens() {
		if _, ok := tokens[t]; ok {
			return true
		}
	}
	return false
}
