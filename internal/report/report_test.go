package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
)

func sampleDecisions() []model.MatchDecision {
	return []model.MatchDecision{
		{
			RowID:      1,
			RawName:    "ad Girei Ward",
			Status:     model.StatusAccepted,
			UnitID:     "AD0101",
			Confidence: 1.0,
			Reason:     "normalized exact match",
			Candidates: []model.CandidateScore{
				{UnitID: "AD0101", UnitName: "Girei", Scores: model.ScoreBreakdown{Combined: 1.0}},
				{UnitID: "AD0102", UnitName: "Jimeta", Scores: model.ScoreBreakdown{Combined: 0.412}},
			},
		},
		{
			RowID:   2,
			RawName: "Futudou/Futuless",
			Status:  model.StatusAmbiguous,
			Reason:  model.ReasonMidBand,
		},
	}
}

func TestWriteDecisionsCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDecisionsCSV(&buf, sampleDecisions()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, decisionHeader, rows[0])
	assert.Equal(t, []string{
		"1", "ad Girei Ward", "accepted", "AD0101", "1.0000", "normalized exact match",
		"AD0101:1.000; AD0102:0.412",
	}, rows[1])
	assert.Equal(t, "ambiguous", rows[2][2])
	assert.Empty(t, rows[2][3], "no unit_id on non-accepted rows")
	assert.Empty(t, rows[2][6])
}

func TestWriteDecisionsJSONL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDecisionsJSONL(&buf, sampleDecisions()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var first model.MatchDecision
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, int64(1), first.RowID)
	assert.Equal(t, model.StatusAccepted, first.Status)
	require.Len(t, first.Candidates, 2, "full score breakdown survives the round trip")
	assert.Equal(t, 0.412, first.Candidates[1].Scores.Combined)
}

func TestWriteSummaryJSON(t *testing.T) {
	var buf bytes.Buffer
	summary := model.RunSummary{
		RunID:          "run-1",
		Records:        10,
		Accepted:       7,
		Ambiguous:      2,
		Rejected:       1,
		KBHits:         3,
		UnclaimedUnits: []string{"AD0203"},
		DurationMS:     42,
	}
	require.NoError(t, WriteSummaryJSON(&buf, summary))

	var got model.RunSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, summary, got)
	assert.Contains(t, buf.String(), "\n  ", "summary is indented for human review")
}

func TestWriteDecisionsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDecisionsCSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
