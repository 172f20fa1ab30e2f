package model

// Status is the three-way outcome of resolving one record.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusAmbiguous Status = "ambiguous"
	StatusRejected  Status = "rejected"
)

// Human-readable decision reasons. Duplicate-claim demotions append the
// winning row and its confidence.
const (
	ReasonMissingName    = "missing name"
	ReasonNoCandidates   = "no candidates in scope"
	ReasonBelowFloor     = "below confidence floor"
	ReasonMidBand        = "confidence in review band"
	ReasonNoSeparation   = "separation margin not met"
	ReasonKnowledgeBase  = "knowledge base"
	ReasonDuplicateClaim = "duplicate unit_id, lower confidence than rival claim"
)

// ScoreBreakdown carries every sub-score that fed a candidate's combined
// score, so reviewers can see why a decision landed where it did.
type ScoreBreakdown struct {
	Exact           float64 `json:"exact"`
	NormalizedExact float64 `json:"normalized_exact"`
	Phonetic        float64 `json:"phonetic"`
	TokenSimilarity float64 `json:"token_similarity"`
	EditSimilarity  float64 `json:"edit_similarity"`
	Combined        float64 `json:"combined"`
}

// CandidateScore is one scored gazetteer candidate for a record.
type CandidateScore struct {
	UnitID   string         `json:"unit_id"`
	UnitName string         `json:"unit_name"`
	Scores   ScoreBreakdown `json:"scores"`
}

// MatchDecision is the single decision produced for one input record.
// UnitID is set only on accepted decisions.
type MatchDecision struct {
	RowID      int64            `json:"row_id"`
	RawName    string           `json:"raw_name"`
	Status     Status           `json:"status"`
	UnitID     string           `json:"unit_id,omitempty"`
	Confidence float64          `json:"confidence"`
	Reason     string           `json:"reason"`
	Candidates []CandidateScore `json:"candidates,omitempty"`
}

// RunSummary aggregates one completed resolution run.
type RunSummary struct {
	RunID          string   `json:"run_id"`
	Records        int      `json:"records"`
	Accepted       int      `json:"accepted"`
	Ambiguous      int      `json:"ambiguous"`
	Rejected       int      `json:"rejected"`
	KBHits         int      `json:"kb_hits"`
	StateFallbacks int      `json:"state_fallbacks"`
	Demoted        int      `json:"demoted"`
	UnclaimedUnits []string `json:"unclaimed_units,omitempty"`
	DurationMS     int64    `json:"duration_ms"`
}
