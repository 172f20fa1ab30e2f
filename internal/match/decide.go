package match

import (
	"fmt"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
)

// Decider applies the threshold and tie-break policy, classifying each record
// as accepted, ambiguous, or rejected. Ambiguity is an explicit outcome, not
// something the engine resolves by guessing.
type Decider struct {
	High   float64
	Low    float64
	Margin float64
	TopN   int
}

// NewDecider builds a Decider with the configured thresholds.
func NewDecider(high, low, margin float64, topN int) *Decider {
	if topN <= 0 {
		topN = 3
	}
	return &Decider{High: high, Low: low, Margin: margin, TopN: topN}
}

// Decide produces the single decision for one record from its sorted
// candidate set. Candidates must be ordered by combined score descending,
// as Generate returns them.
func (d *Decider) Decide(rec model.InputRecord, candidates []Candidate) model.MatchDecision {
	dec := model.MatchDecision{RowID: rec.RowID, RawName: rec.RawName}

	if len(candidates) == 0 {
		dec.Status = model.StatusRejected
		dec.Reason = model.ReasonNoCandidates
		return dec
	}

	top := candidates[0]
	dec.Confidence = top.Scores.Combined
	dec.Candidates = candidateScores(candidates, d.TopN)

	if top.Scores.Combined < d.Low {
		dec.Status = model.StatusRejected
		dec.Reason = model.ReasonBelowFloor
		return dec
	}

	if top.Scores.Combined < d.High {
		dec.Status = model.StatusAmbiguous
		dec.Reason = model.ReasonMidBand
		return dec
	}

	if len(candidates) > 1 {
		gap := top.Scores.Combined - candidates[1].Scores.Combined
		if gap < d.Margin {
			dec.Status = model.StatusAmbiguous
			dec.Reason = fmt.Sprintf("%s (%.3f vs %.3f)",
				model.ReasonNoSeparation, top.Scores.Combined, candidates[1].Scores.Combined)
			return dec
		}
	}

	dec.Status = model.StatusAccepted
	dec.UnitID = top.Entry.Unit.UnitID
	dec.Reason = acceptReason(top.Scores)
	return dec
}

// acceptReason names the strongest signal behind an acceptance so reviewers
// can see why a match was taken.
func acceptReason(s model.ScoreBreakdown) string {
	switch {
	case s.Exact == 1.0:
		return "exact name match"
	case s.NormalizedExact == 1.0:
		return "normalized exact match"
	default:
		return fmt.Sprintf("fuzzy match (phonetic %.2f, token %.2f, edit %.2f)",
			s.Phonetic, s.TokenSimilarity, s.EditSimilarity)
	}
}

func candidateScores(candidates []Candidate, topN int) []model.CandidateScore {
	if len(candidates) > topN {
		candidates = candidates[:topN]
	}
	out := make([]model.CandidateScore, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, model.CandidateScore{
			UnitID:   c.Entry.Unit.UnitID,
			UnitName: c.Entry.Unit.Name,
			Scores:   c.Scores,
		})
	}
	return out
}
