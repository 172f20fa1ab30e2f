package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/gazetteer"
	"github.com/BernardOforiBoateng/chat-mrpt-sub002/internal/normalize"
)

var gazetteerPath string

var gazetteerCmd = &cobra.Command{
	Use:   "gazetteer",
	Short: "Inspect the canonical gazetteer",
}

var gazetteerValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the gazetteer file and print block statistics",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := gazetteerPath
		if path == "" {
			path = cfg.Gazetteer.Path
		}
		units, err := gazetteer.LoadCSV(path)
		if err != nil {
			return err
		}

		norm := normalize.New(normalize.Config{
			StripPrefixes: cfg.Normalize.StripPrefixes,
			StripSuffixes: cfg.Normalize.StripSuffixes,
		})
		index := gazetteer.Build(units, norm, cfg.Gazetteer.LGAFuzzyMinScore)

		sizes := make(map[string]int)
		for _, u := range index.Units() {
			sizes[u.LGAID]++
		}
		var counts []int
		for _, n := range sizes {
			counts = append(counts, n)
		}
		sort.Ints(counts)

		fmt.Printf("units: %d\n", len(units))
		fmt.Printf("lga blocks: %d\n", len(sizes))
		if len(counts) > 0 {
			fmt.Printf("block size min/median/max: %d/%d/%d\n",
				counts[0], counts[len(counts)/2], counts[len(counts)-1])
		}
		return nil
	},
}

func init() {
	gazetteerCmd.PersistentFlags().StringVar(&gazetteerPath, "gazetteer", "", "gazetteer CSV path (overrides config)")
	gazetteerCmd.AddCommand(gazetteerValidateCmd)
	rootCmd.AddCommand(gazetteerCmd)
}
