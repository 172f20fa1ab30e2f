package match

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
)

// ResolveDuplicates enforces the one-to-one invariant between canonical units
// and accepted decisions. For every unit claimed by more than one record, the
// highest-confidence claim survives (ties keep the earliest row) and the rest
// are demoted to ambiguous, naming the rival claim. Returns the adjusted
// decisions (input order preserved) and the number of demotions.
//
// With allowManyToOne set the decisions pass through untouched; some
// deployments legitimately map several facilities onto one ward.
func ResolveDuplicates(decisions []model.MatchDecision, allowManyToOne bool) ([]model.MatchDecision, int) {
	if allowManyToOne {
		return decisions, 0
	}

	byUnit := make(map[string][]int)
	for i, d := range decisions {
		if d.Status == model.StatusAccepted && d.UnitID != "" {
			byUnit[d.UnitID] = append(byUnit[d.UnitID], i)
		}
	}

	demoted := 0
	for unitID, idxs := range byUnit {
		if len(idxs) < 2 {
			continue
		}

		// Winner: highest confidence, then earliest row.
		sort.Slice(idxs, func(a, b int) bool {
			da, db := decisions[idxs[a]], decisions[idxs[b]]
			if da.Confidence != db.Confidence {
				return da.Confidence > db.Confidence
			}
			return da.RowID < db.RowID
		})

		winner := decisions[idxs[0]]
		for _, i := range idxs[1:] {
			d := &decisions[i]
			d.Status = model.StatusAmbiguous
			d.UnitID = ""
			d.Reason = fmt.Sprintf("%s (row %d, %.3f)",
				model.ReasonDuplicateClaim, winner.RowID, winner.Confidence)
			demoted++
		}

		zap.L().Warn("duplicate accepted claims resolved",
			zap.String("unit_id", unitID),
			zap.Int("claims", len(idxs)),
			zap.Int64("winner_row", winner.RowID),
		)
	}

	return decisions, demoted
}
