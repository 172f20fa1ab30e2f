package engine

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/gazetteer"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/kb"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/match"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/normalize"
)

func testUnits() []model.CanonicalUnit {
	return []model.CanonicalUnit{
		{UnitID: "AD0101", Name: "Girei", LGAID: "AD01", LGAName: "Girei", StateID: "AD", StateName: "Adamawa"},
		{UnitID: "AD0102", Name: "Jimeta", LGAID: "AD01", LGAName: "Girei", StateID: "AD", StateName: "Adamawa"},
		{UnitID: "AD0201", Name: "Ribadu", LGAID: "AD02", LGAName: "Mayo-Belwa", StateID: "AD", StateName: "Adamawa"},
		{UnitID: "AD0202", Name: "Gorobi", LGAID: "AD02", LGAName: "Mayo-Belwa", StateID: "AD", StateName: "Adamawa"},
		{UnitID: "AD0203", Name: "Futuless", LGAID: "AD02", LGAName: "Mayo-Belwa", StateID: "AD", StateName: "Adamawa"},
	}
}

func testResolver(t *testing.T, snap *kb.Snapshot) *Resolver {
	t.Helper()
	norm := normalize.New(normalize.Config{
		StripPrefixes: []string{"ad"},
		StripSuffixes: []string{"ward"},
	})
	index := gazetteer.Build(testUnits(), norm, 0.85)
	scorer := match.NewScorer(match.Weights{Phonetic: 0.2, Token: 0.35, Edit: 0.45})
	gen := match.NewGenerator(scorer, 5)
	decider := match.NewDecider(0.9, 0.5, 0.05, 3)
	if snap == nil {
		snap = kb.EmptySnapshot()
	}
	return New(Config{Workers: 2, HighThreshold: 0.9}, norm, index, snap, gen, decider)
}

func decisionFor(t *testing.T, result *Result, rowID int64) model.MatchDecision {
	t.Helper()
	for _, d := range result.Decisions {
		if d.RowID == rowID {
			return d
		}
	}
	t.Fatalf("no decision for row %d", rowID)
	return model.MatchDecision{}
}

func TestRunPrefixSuffixVariantAccepted(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "ad Girei Ward", LGAHint: "Girei"},
	})
	require.NoError(t, err)

	d := decisionFor(t, result, 1)
	assert.Equal(t, model.StatusAccepted, d.Status)
	assert.Equal(t, "AD0101", d.UnitID)
	assert.GreaterOrEqual(t, d.Confidence, 0.9)
	assert.Equal(t, "normalized exact match", d.Reason)
}

func TestRunDuplicateClaimsResolved(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "Ribadu", LGAHint: "Mayo-Belwa"},
		{RowID: 2, RawName: "Ribadu Ward", LGAHint: "Mayo-Belwa"},
	})
	require.NoError(t, err)

	acceptedRows := 0
	for _, d := range result.Decisions {
		if d.Status == model.StatusAccepted {
			acceptedRows++
			assert.Equal(t, "AD0201", d.UnitID)
			assert.Equal(t, int64(1), d.RowID, "tie broken by earliest row")
		}
	}
	assert.Equal(t, 1, acceptedRows, "one accepted claim per canonical unit")

	demotedDecision := decisionFor(t, result, 2)
	assert.Equal(t, model.StatusAmbiguous, demotedDecision.Status)
	assert.True(t, strings.HasPrefix(demotedDecision.Reason, model.ReasonDuplicateClaim))
	assert.Equal(t, 1, result.Summary.Demoted)
}

func TestRunMidBandIsAmbiguous(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "Futudou/Futuless", LGAHint: "Mayo-Belwa"},
	})
	require.NoError(t, err)

	d := decisionFor(t, result, 1)
	assert.Equal(t, model.StatusAmbiguous, d.Status, "partial compound names are surfaced, not guessed")
	assert.NotEmpty(t, d.Candidates)
}

func TestRunStateFallback(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "Jimeta", LGAHint: "Nowhere Land", StateHint: "Adamawa"},
	})
	require.NoError(t, err)

	d := decisionFor(t, result, 1)
	assert.Equal(t, model.StatusAccepted, d.Status)
	assert.Equal(t, "AD0102", d.UnitID)
	assert.Equal(t, 1, result.Summary.StateFallbacks)
}

func TestRunNoScopeRejected(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "Girei", LGAHint: "Nowhere Land", StateHint: "Atlantis"},
	})
	require.NoError(t, err)

	d := decisionFor(t, result, 1)
	assert.Equal(t, model.StatusRejected, d.Status)
	assert.Equal(t, model.ReasonNoCandidates, d.Reason)
}

func TestRunMissingNameRejected(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "   ", LGAHint: "Girei"},
		{RowID: 2, RawName: "Girei", LGAHint: "Girei"},
	})
	require.NoError(t, err)

	d := decisionFor(t, result, 1)
	assert.Equal(t, model.StatusRejected, d.Status)
	assert.Equal(t, model.ReasonMissingName, d.Reason)
	assert.Equal(t, model.StatusAccepted, decisionFor(t, result, 2).Status)
}

func TestRunCoverage(t *testing.T) {
	r := testResolver(t, nil)

	records := []model.InputRecord{
		{RowID: 1, RawName: "Girei", LGAHint: "Girei"},
		{RowID: 2, RawName: "Jimeta", LGAHint: "Girei"},
		{RowID: 3, RawName: "Ribadu", LGAHint: "Mayo-Belwa"},
		{RowID: 4, RawName: ""},
		{RowID: 5, RawName: "Unknown Place", LGAHint: "Nowhere", StateHint: "Atlantis"},
	}
	result, err := r.Run(context.Background(), records)
	require.NoError(t, err)

	require.Len(t, result.Decisions, len(records), "every record gets exactly one decision")
	seen := map[int64]bool{}
	for _, d := range result.Decisions {
		assert.False(t, seen[d.RowID], "row %d decided twice", d.RowID)
		seen[d.RowID] = true
	}
	assert.Equal(t, len(records), result.Summary.Records)
	assert.Equal(t, len(records),
		result.Summary.Accepted+result.Summary.Ambiguous+result.Summary.Rejected)
}

func TestRunDeterminism(t *testing.T) {
	records := []model.InputRecord{
		{RowID: 1, RawName: "ad Girei Ward", LGAHint: "Girei"},
		{RowID: 2, RawName: "Jimeta", LGAHint: "Girei"},
		{RowID: 3, RawName: "Ribadu", LGAHint: "Mayo Belwaa"},
		{RowID: 4, RawName: "Futudou/Futuless", LGAHint: "Mayo-Belwa"},
		{RowID: 5, RawName: "Gorobi", LGAHint: "Unknown", StateHint: "Adamawa"},
	}

	run := func() []byte {
		result, err := testResolver(t, nil).Run(context.Background(), records)
		require.NoError(t, err)
		out, err := json.Marshal(result.Decisions)
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, string(run()), string(run()), "identical inputs yield byte-identical decisions")
}

func TestRunKnowledgeBaseShortcut(t *testing.T) {
	store, err := kb.Open(filepath.Join(t.TempDir(), "kb.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, err = store.Append(ctx, "seed", []kb.Entry{
		{Key: "girei", ParentKey: "lga:girei", UnitID: "AD0101"},
	})
	require.NoError(t, err)

	snap, err := store.Load(ctx)
	require.NoError(t, err)

	r := testResolver(t, snap)
	result, err := r.Run(ctx, []model.InputRecord{
		{RowID: 1, RawName: "Girei", LGAHint: "Girei"},
	})
	require.NoError(t, err)

	d := decisionFor(t, result, 1)
	assert.Equal(t, model.StatusAccepted, d.Status)
	assert.Equal(t, "AD0101", d.UnitID)
	assert.Equal(t, 1.0, d.Confidence)
	assert.Equal(t, model.ReasonKnowledgeBase, d.Reason)
	assert.Empty(t, d.Candidates, "shortcut skips the scorer entirely")
	assert.Equal(t, 1, result.Summary.KBHits)
}

func TestRunCollectsKnowledgeBaseEntries(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "Girei", LGAHint: "Girei"},
		{RowID: 2, RawName: "Futudou/Futuless", LGAHint: "Mayo-Belwa"}, // ambiguous: not recorded
	})
	require.NoError(t, err)

	require.Len(t, result.NewEntries, 1)
	e := result.NewEntries[0]
	assert.Equal(t, "girei", e.Key)
	assert.Equal(t, "lga:girei", e.ParentKey)
	assert.Equal(t, "AD0101", e.UnitID)
	assert.Equal(t, result.RunID, e.RunID)
}

func TestRunCancelledBeforeWriteBack(t *testing.T) {
	r := testResolver(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Run(ctx, []model.InputRecord{
		{RowID: 1, RawName: "Girei", LGAHint: "Girei"},
	})
	require.Error(t, err, "a cancelled run aborts without producing results")
}

func TestRunUnclaimedUnitsReported(t *testing.T) {
	r := testResolver(t, nil)

	result, err := r.Run(context.Background(), []model.InputRecord{
		{RowID: 1, RawName: "Girei", LGAHint: "Girei"},
	})
	require.NoError(t, err)

	assert.NotContains(t, result.Summary.UnclaimedUnits, "AD0101")
	assert.Contains(t, result.Summary.UnclaimedUnits, "AD0102")
	assert.Contains(t, result.Summary.UnclaimedUnits, "AD0203")
}
