// Package report emits per-record audit output and the run summary. Ambiguous
// and rejected counts are surfaced prominently: silence on low-confidence
// matches is treated as a defect, not a default.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
)

var decisionHeader = []string{
	"row_id", "raw_name", "status", "unit_id", "confidence", "reason", "top_candidates",
}

// WriteDecisionsCSV writes one row per decision. The top-candidate column is
// a compact "unit_id:score" list for spreadsheet review.
func WriteDecisionsCSV(w io.Writer, decisions []model.MatchDecision) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(decisionHeader); err != nil {
		return eris.Wrap(err, "report: write header")
	}
	for _, d := range decisions {
		row := []string{
			strconv.FormatInt(d.RowID, 10),
			d.RawName,
			string(d.Status),
			d.UnitID,
			strconv.FormatFloat(d.Confidence, 'f', 4, 64),
			d.Reason,
			candidateSummary(d.Candidates),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrapf(err, "report: write row %d", d.RowID)
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush")
}

// WriteDecisionsJSONL writes one JSON object per decision, with the full
// per-candidate score breakdown for downstream audit tooling.
func WriteDecisionsJSONL(w io.Writer, decisions []model.MatchDecision) error {
	enc := json.NewEncoder(w)
	for _, d := range decisions {
		if err := enc.Encode(d); err != nil {
			return eris.Wrapf(err, "report: encode row %d", d.RowID)
		}
	}
	return nil
}

// WriteSummaryJSON writes the run summary as indented JSON.
func WriteSummaryJSON(w io.Writer, s model.RunSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(s), "report: encode summary")
}

// LogSummary logs the summary at a level reviewers will see. Ambiguous and
// rejected counts escalate to warn so they are never buried in info noise.
func LogSummary(s model.RunSummary) {
	log := zap.L().With(zap.String("run_id", s.RunID))
	log.Info("run summary",
		zap.Int("records", s.Records),
		zap.Int("accepted", s.Accepted),
		zap.Int("kb_hits", s.KBHits),
		zap.Int("unclaimed_units", len(s.UnclaimedUnits)),
		zap.Int64("duration_ms", s.DurationMS),
	)
	if s.Ambiguous > 0 || s.Rejected > 0 {
		log.Warn("records needing review",
			zap.Int("ambiguous", s.Ambiguous),
			zap.Int("rejected", s.Rejected),
			zap.Int("demoted_duplicates", s.Demoted),
			zap.Int("state_fallbacks", s.StateFallbacks),
		)
	}
}

func candidateSummary(candidates []model.CandidateScore) string {
	out := ""
	for i, c := range candidates {
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s:%.3f", c.UnitID, c.Scores.Combined)
	}
	return out
}
