// Package engine orchestrates a batch resolution run: normalization,
// knowledge-base shortcut, block resolution, data-parallel scoring, the
// duplicate barrier, and summary assembly.
package engine

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/gazetteer"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/kb"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/match"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/normalize"
)

// Config carries the run-level knobs the orchestrator needs.
type Config struct {
	Workers        int
	HighThreshold  float64
	AllowManyToOne bool
}

// Resolver runs batches against one gazetteer index and one knowledge-base
// snapshot. Construct once per run context; all held state is read-only
// during Run.
type Resolver struct {
	cfg     Config
	norm    *normalize.Normalizer
	index   *gazetteer.Index
	snap    *kb.Snapshot
	gen     *match.Generator
	decider *match.Decider
}

// New builds a Resolver. snap may be kb.EmptySnapshot() when no knowledge
// base is configured.
func New(cfg Config, norm *normalize.Normalizer, index *gazetteer.Index, snap *kb.Snapshot,
	gen *match.Generator, decider *match.Decider) *Resolver {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &Resolver{cfg: cfg, norm: norm, index: index, snap: snap, gen: gen, decider: decider}
}

// Result is the outcome of one completed run.
type Result struct {
	RunID      string
	Decisions  []model.MatchDecision
	Summary    model.RunSummary
	NewEntries []kb.Entry
}

// task is one record awaiting block-level scoring.
type task struct {
	rec   model.InputRecord
	key   normalize.Key
	scope gazetteer.Scope
}

// Run resolves a batch. Individual record problems become that record's
// decision; only cancellation aborts the run, and an aborted run produces no
// knowledge-base entries.
func (r *Resolver) Run(ctx context.Context, records []model.InputRecord) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()
	log := zap.L().With(zap.String("run_id", runID))
	log.Info("resolution run started", zap.Int("records", len(records)))

	var (
		decisions      []model.MatchDecision
		kbHits         int
		stateFallbacks int
		groups         = make(map[string][]task)
		parentKeys     = make(map[int64]string) // row id -> parent key, for KB write-back
		cleanKeys      = make(map[int64]string)
	)

	// Phase 1: normalize, shortcut via the knowledge base, resolve scopes.
	for _, rec := range records {
		if strings.TrimSpace(rec.RawName) == "" {
			log.Debug("record skipped, missing name", zap.Int64("row_id", rec.RowID))
			decisions = append(decisions, model.MatchDecision{
				RowID:  rec.RowID,
				Status: model.StatusRejected,
				Reason: model.ReasonMissingName,
			})
			continue
		}

		key := r.norm.Normalize(rec.RawName)
		scope := r.index.Resolve(rec)
		if scope.Level == gazetteer.ScopeState {
			stateFallbacks++
		}
		parentKeys[rec.RowID] = scope.ParentKey
		cleanKeys[rec.RowID] = key.Clean

		if scope.ParentKey != "" {
			if unitID, ok := r.snap.Lookup(key.Clean, scope.ParentKey); ok {
				kbHits++
				decisions = append(decisions, model.MatchDecision{
					RowID:      rec.RowID,
					RawName:    rec.RawName,
					Status:     model.StatusAccepted,
					UnitID:     unitID,
					Confidence: 1.0,
					Reason:     model.ReasonKnowledgeBase,
				})
				continue
			}
		}

		groups[scope.ParentKey] = append(groups[scope.ParentKey], task{rec: rec, key: key, scope: scope})
	}

	// Phase 2: fan out per block. Blocks never share mutable state; each
	// goroutine writes only its own result slot.
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	results := make([][]model.MatchDecision, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for i, k := range keys {
		tasks := groups[k]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return eris.Wrap(err, "engine: run cancelled")
			}
			out := make([]model.MatchDecision, 0, len(tasks))
			for _, t := range tasks {
				candidates := r.gen.Generate(t.rec, t.key, t.scope.Entries)
				out = append(out, r.decider.Decide(t.rec, candidates))
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, out := range results {
		decisions = append(decisions, out...)
	}

	// Barrier reached: every record has exactly one decision. Duplicate
	// resolution must see all blocks, since ambiguous parent resolution can
	// let claims span blocks.
	sort.Slice(decisions, func(i, j int) bool { return decisions[i].RowID < decisions[j].RowID })
	decisions, demoted := match.ResolveDuplicates(decisions, r.cfg.AllowManyToOne)

	res := &Result{RunID: runID, Decisions: decisions}
	res.NewEntries = r.collectEntries(decisions, cleanKeys, parentKeys, runID)
	res.Summary = r.summarize(runID, decisions, kbHits, stateFallbacks, demoted, time.Since(start))

	log.Info("resolution run finished",
		zap.Int("accepted", res.Summary.Accepted),
		zap.Int("ambiguous", res.Summary.Ambiguous),
		zap.Int("rejected", res.Summary.Rejected),
		zap.Int("kb_hits", kbHits),
		zap.Int("demoted_duplicates", demoted),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// collectEntries gathers the accepted decisions eligible for knowledge-base
// write-back: confidence at or above the high threshold, with a resolvable
// parent key. Knowledge-base hits are included so re-observations bump their
// confirmation count.
func (r *Resolver) collectEntries(decisions []model.MatchDecision,
	cleanKeys, parentKeys map[int64]string, runID string) []kb.Entry {
	var entries []kb.Entry
	for _, d := range decisions {
		if d.Status != model.StatusAccepted || d.Confidence < r.cfg.HighThreshold {
			continue
		}
		clean, parent := cleanKeys[d.RowID], parentKeys[d.RowID]
		if clean == "" || parent == "" {
			continue
		}
		entries = append(entries, kb.Entry{
			Key:       clean,
			ParentKey: parent,
			UnitID:    d.UnitID,
			RunID:     runID,
		})
	}
	return entries
}

func (r *Resolver) summarize(runID string, decisions []model.MatchDecision,
	kbHits, stateFallbacks, demoted int, elapsed time.Duration) model.RunSummary {
	s := model.RunSummary{
		RunID:          runID,
		Records:        len(decisions),
		KBHits:         kbHits,
		StateFallbacks: stateFallbacks,
		Demoted:        demoted,
		DurationMS:     elapsed.Milliseconds(),
	}
	claimed := make(map[string]bool)
	for _, d := range decisions {
		switch d.Status {
		case model.StatusAccepted:
			s.Accepted++
			claimed[d.UnitID] = true
		case model.StatusAmbiguous:
			s.Ambiguous++
		case model.StatusRejected:
			s.Rejected++
		}
	}
	s.UnclaimedUnits = r.index.Unclaimed(claimed)
	return s
}
