package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/engine"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/gazetteer"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/ingest"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/kb"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/match"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/model"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/normalize"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/report"
)

var (
	resolveGazetteer string
	resolveInput     string
	resolveSheet     string
	resolveOut       string
	resolveLimit     int
	resolveNoKB      bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a facility dataset against the gazetteer",
	Long: `Runs the full resolution pipeline on one uploaded dataset:
normalization, knowledge-base shortcut, blocked candidate generation,
multi-algorithm scoring, three-way decisions, and duplicate resolution.

Writes decisions.csv, decisions.jsonl, and summary.json to the output
directory. Confirmed matches are appended to the knowledge base only when
the run completes.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		gazPath := resolveGazetteer
		if gazPath == "" {
			gazPath = cfg.Gazetteer.Path
		}
		units, err := gazetteer.LoadCSV(gazPath)
		if err != nil {
			return err
		}

		records, err := readInput(resolveInput, resolveSheet)
		if err != nil {
			return err
		}
		if resolveLimit > 0 && len(records) > resolveLimit {
			records = records[:resolveLimit]
		}

		norm := normalize.New(normalize.Config{
			StripPrefixes: cfg.Normalize.StripPrefixes,
			StripSuffixes: cfg.Normalize.StripSuffixes,
		})
		index := gazetteer.Build(units, norm, cfg.Gazetteer.LGAFuzzyMinScore)

		var store *kb.Store
		snap := kb.EmptySnapshot()
		if !resolveNoKB {
			store, err = kb.Open(cfg.KB.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			snap, err = store.Load(ctx)
			if err != nil {
				return err
			}
		}

		scorer := match.NewScorer(match.Weights{
			Phonetic: cfg.Match.Weights.Phonetic,
			Token:    cfg.Match.Weights.Token,
			Edit:     cfg.Match.Weights.Edit,
		})
		gen := match.NewGenerator(scorer, cfg.Match.MaxCandidates)
		decider := match.NewDecider(cfg.Match.HighThreshold, cfg.Match.LowThreshold,
			cfg.Match.SeparationMargin, cfg.Match.TopN)

		resolver := engine.New(engine.Config{
			Workers:        cfg.Engine.Workers,
			HighThreshold:  cfg.Match.HighThreshold,
			AllowManyToOne: cfg.Match.AllowManyToOne,
		}, norm, index, snap, gen, decider)

		result, err := resolver.Run(ctx, records)
		if err != nil {
			return err
		}

		outDir := resolveOut
		if outDir == "" {
			outDir = cfg.Report.Dir
		}
		if err := writeReports(outDir, result); err != nil {
			return err
		}

		// Write-back only after a fully completed run.
		if store != nil {
			conflicts, err := store.Append(ctx, result.RunID, result.NewEntries)
			if err != nil {
				return err
			}
			zap.L().Info("knowledge base updated",
				zap.Int("entries", len(result.NewEntries)),
				zap.Int("conflicts_skipped", conflicts),
			)
		}

		report.LogSummary(result.Summary)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveGazetteer, "gazetteer", "", "gazetteer CSV path (overrides config)")
	resolveCmd.Flags().StringVar(&resolveInput, "input", "", "facility dataset path (.csv or .xlsx)")
	resolveCmd.Flags().StringVar(&resolveSheet, "sheet", "", "xlsx sheet name (default: first sheet)")
	resolveCmd.Flags().StringVar(&resolveOut, "out", "", "output directory (overrides config)")
	resolveCmd.Flags().IntVar(&resolveLimit, "limit", 0, "max records to process (0 = all)")
	resolveCmd.Flags().BoolVar(&resolveNoKB, "no-kb", false, "run without the knowledge base")
	_ = resolveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(resolveCmd)
}

func readInput(path, sheet string) ([]model.InputRecord, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ingest.ReadCSVFile(path)
	case ".xlsx":
		return ingest.ReadXLSXFile(path, ingest.XLSXOptions{SheetName: sheet})
	default:
		return nil, eris.Errorf("resolve: unsupported input format %q (want .csv or .xlsx)", filepath.Ext(path))
	}
}

func writeReports(dir string, result *engine.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "resolve: create output dir %s", dir)
	}

	writers := []struct {
		name  string
		write func(f *os.File) error
	}{
		{"decisions.csv", func(f *os.File) error { return report.WriteDecisionsCSV(f, result.Decisions) }},
		{"decisions.jsonl", func(f *os.File) error { return report.WriteDecisionsJSONL(f, result.Decisions) }},
		{"summary.json", func(f *os.File) error { return report.WriteSummaryJSON(f, result.Summary) }},
	}
	for _, w := range writers {
		f, err := os.Create(filepath.Join(dir, w.name))
		if err != nil {
			return eris.Wrapf(err, "resolve: create %s", w.name)
		}
		if err := w.write(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return eris.Wrapf(err, "resolve: close %s", w.name)
		}
	}
	return nil
}
