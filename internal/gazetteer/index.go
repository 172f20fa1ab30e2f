package gazetteer

import (
	"sort"

	"github.com/antzucaro/matchr"
	"go.uber.org/zap"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/normalize"
)

// Entry pairs a canonical unit with its precomputed comparison key. Keys are
// derived once at index build so scoring never re-normalizes gazetteer rows.
type Entry struct {
	Unit model.CanonicalUnit
	Key  normalize.Key
}

// ScopeLevel records how an input's parent hints were resolved to a block.
type ScopeLevel string

const (
	// ScopeLGA: the LGA hint resolved exactly to one or more known LGAs.
	ScopeLGA ScopeLevel = "lga"
	// ScopeLGAFuzzy: the LGA hint resolved via fuzzy name matching.
	ScopeLGAFuzzy ScopeLevel = "lga_fuzzy"
	// ScopeState: the LGA hint was unusable; all blocks under the state are scanned.
	ScopeState ScopeLevel = "state"
	// ScopeNone: neither hint resolved; no candidates are in scope.
	ScopeNone ScopeLevel = "none"
)

// Scope is the resolved candidate search space for one input record.
type Scope struct {
	Level ScopeLevel
	// ParentKey is the stable key under which knowledge-base entries for this
	// scope are stored. Empty when nothing resolved.
	ParentKey string
	Entries   []Entry
}

// Index partitions canonical units by parent LGA and resolves input hints to
// blocks. Read-only after Build; safe for concurrent use.
type Index struct {
	norm     *normalize.Normalizer
	fuzzyMin float64

	blocks      map[string][]Entry  // lga_id -> entries
	lgaIDs      map[string][]string // normalized lga name -> sorted lga ids
	lgaNames    []string            // sorted normalized lga names, for fuzzy scans
	stateIDs    map[string]string   // normalized state name -> state id
	stateBlocks map[string][]string // state id -> sorted lga ids
	units       []model.CanonicalUnit
}

// Build constructs the blocking index. fuzzyMin is the minimum Jaro-Winkler
// score for fuzzy LGA hint resolution.
func Build(units []model.CanonicalUnit, norm *normalize.Normalizer, fuzzyMin float64) *Index {
	ix := &Index{
		norm:        norm,
		fuzzyMin:    fuzzyMin,
		blocks:      make(map[string][]Entry),
		lgaIDs:      make(map[string][]string),
		stateIDs:    make(map[string]string),
		stateBlocks: make(map[string][]string),
		units:       units,
	}

	lgaSeen := make(map[string]bool)
	for _, u := range units {
		ix.blocks[u.LGAID] = append(ix.blocks[u.LGAID], Entry{Unit: u, Key: norm.Normalize(u.Name)})

		if !lgaSeen[u.LGAID] {
			lgaSeen[u.LGAID] = true
			lgaName := norm.Normalize(u.LGAName).Clean
			ix.lgaIDs[lgaName] = append(ix.lgaIDs[lgaName], u.LGAID)
			ix.stateBlocks[u.StateID] = append(ix.stateBlocks[u.StateID], u.LGAID)
		}
		ix.stateIDs[norm.Normalize(u.StateName).Clean] = u.StateID
	}

	for name, ids := range ix.lgaIDs {
		sort.Strings(ids)
		ix.lgaNames = append(ix.lgaNames, name)
	}
	sort.Strings(ix.lgaNames)
	for _, ids := range ix.stateBlocks {
		sort.Strings(ids)
	}

	zap.L().Info("blocking index built",
		zap.Int("units", len(units)),
		zap.Int("lga_blocks", len(ix.blocks)),
		zap.Int("states", len(ix.stateBlocks)),
	)
	return ix
}

// Units returns all canonical units in load order.
func (ix *Index) Units() []model.CanonicalUnit { return ix.units }

// Block returns the entries for one LGA id.
func (ix *Index) Block(lgaID string) []Entry { return ix.blocks[lgaID] }

// Resolve maps an input record's parent hints to a candidate scope.
// Resolution order: exact normalized LGA name, fuzzy LGA name, state-level
// fallback. The state fallback is logged; it is never taken silently.
func (ix *Index) Resolve(rec model.InputRecord) Scope {
	lgaKey := ix.norm.Normalize(rec.LGAHint).Clean
	stateID := ix.resolveState(rec.StateHint)

	if lgaKey != "" {
		if ids := ix.narrowToState(ix.lgaIDs[lgaKey], stateID); len(ids) > 0 {
			return Scope{Level: ScopeLGA, ParentKey: "lga:" + lgaKey, Entries: ix.collect(ids)}
		}
		if name, ok := ix.fuzzyLGA(lgaKey, stateID); ok {
			zap.L().Debug("lga hint resolved fuzzily",
				zap.Int64("row_id", rec.RowID),
				zap.String("hint", rec.LGAHint),
				zap.String("resolved", name),
			)
			ids := ix.narrowToState(ix.lgaIDs[name], stateID)
			return Scope{Level: ScopeLGAFuzzy, ParentKey: "lga:" + name, Entries: ix.collect(ids)}
		}
	}

	if stateID != "" {
		zap.L().Warn("lga hint unresolved, falling back to state-level scan",
			zap.Int64("row_id", rec.RowID),
			zap.String("lga_hint", rec.LGAHint),
			zap.String("state_id", stateID),
		)
		return Scope{Level: ScopeState, ParentKey: "state:" + stateID, Entries: ix.collect(ix.stateBlocks[stateID])}
	}

	return Scope{Level: ScopeNone}
}

func (ix *Index) resolveState(hint string) string {
	key := ix.norm.Normalize(hint).Clean
	if key == "" {
		return ""
	}
	if id, ok := ix.stateIDs[key]; ok {
		return id
	}
	// States are few; a fuzzy pass catches hint misspellings.
	best, bestScore := "", 0.0
	names := make([]string, 0, len(ix.stateIDs))
	for name := range ix.stateIDs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if s := matchr.JaroWinkler(key, name, false); s > bestScore {
			best, bestScore = name, s
		}
	}
	if bestScore >= ix.fuzzyMin {
		return ix.stateIDs[best]
	}
	return ""
}

// fuzzyLGA scans LGA names (within the state when known) for the best
// Jaro-Winkler match above the configured floor. Ties keep the
// lexicographically first name so resolution is deterministic.
func (ix *Index) fuzzyLGA(lgaKey, stateID string) (string, bool) {
	best, bestScore := "", 0.0
	for _, name := range ix.lgaNames {
		if stateID != "" && len(ix.narrowToState(ix.lgaIDs[name], stateID)) == 0 {
			continue
		}
		if s := matchr.JaroWinkler(lgaKey, name, false); s > bestScore {
			best, bestScore = name, s
		}
	}
	if bestScore < ix.fuzzyMin {
		return "", false
	}
	return best, true
}

func (ix *Index) narrowToState(lgaIDs []string, stateID string) []string {
	if stateID == "" {
		return lgaIDs
	}
	var out []string
	for _, id := range lgaIDs {
		if len(ix.blocks[id]) > 0 && ix.blocks[id][0].Unit.StateID == stateID {
			out = append(out, id)
		}
	}
	return out
}

func (ix *Index) collect(lgaIDs []string) []Entry {
	if len(lgaIDs) == 1 {
		return ix.blocks[lgaIDs[0]]
	}
	var out []Entry
	for _, id := range lgaIDs {
		out = append(out, ix.blocks[id]...)
	}
	return out
}

// Unclaimed returns the sorted unit ids that received no accepted claim,
// for coverage reporting.
func (ix *Index) Unclaimed(claimed map[string]bool) []string {
	var out []string
	for _, u := range ix.units {
		if !claimed[u.UnitID] {
			out = append(out, u.UnitID)
		}
	}
	sort.Strings(out)
	return out
}
