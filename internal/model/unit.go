// Package model holds the shared data shapes: canonical gazetteer units,
// input records, and per-record match decisions.
package model

// Centroid is an optional representative point for a canonical unit.
type Centroid struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// CanonicalUnit is one ward in the canonical state/LGA/ward gazetteer.
type CanonicalUnit struct {
	UnitID    string    `json:"unit_id"`
	Name      string    `json:"name"`
	LGAID     string    `json:"lga_id"`
	LGAName   string    `json:"lga_name"`
	StateID   string    `json:"state_id"`
	StateName string    `json:"state_name"`
	Centroid  *Centroid `json:"centroid,omitempty"`
}

// InputRecord is one row of an uploaded facility dataset. RowID is the
// 1-based data row index and is stable across reruns of the same file.
// Hints are free text and may be empty.
type InputRecord struct {
	RowID     int64  `json:"row_id"`
	RawName   string `json:"raw_name"`
	LGAHint   string `json:"lga_hint,omitempty"`
	StateHint string `json:"state_hint,omitempty"`
}
