package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/rsned/stt-collections-server/pkg/collections"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Find collections that can be completed together",
	Long:  "Runs the collection optimizer for an imported player and prints the ranked collection groups with their crew combinations and honor costs.",
	RunE:  runOptimize,
}

var (
	optimizePlayerID    string
	optimizeMatchMode   string
	optimizeByCost      bool
	optimizeSearch      string
	optimizeCollections []int
	optimizeRewards     []string
	optimizeSale        bool
	optimizeJSON        bool
)

func init() {
	optimizeCmd.Flags().StringVar(&optimizePlayerID, "player-id", "", "Imported player ID (required)")
	optimizeCmd.Flags().StringVar(&optimizeMatchMode, "match-mode", string(collections.MatchNormal), "Combinations to show: normal, exact-only or inexact-only")
	optimizeCmd.Flags().BoolVar(&optimizeByCost, "by-cost", false, "Rank groups by honor cost efficiency")
	optimizeCmd.Flags().StringVar(&optimizeSearch, "search", "", "Semicolon separated crew names to prioritize")
	optimizeCmd.Flags().IntSliceVar(&optimizeCollections, "collection", nil, "Collection IDs to focus on")
	optimizeCmd.Flags().StringSliceVar(&optimizeRewards, "reward", nil, "Reward symbols to prefer")
	optimizeCmd.Flags().BoolVar(&optimizeSale, "sale", false, "Value missing stars at sale prices")
	optimizeCmd.Flags().BoolVar(&optimizeJSON, "json", false, "Print the raw JSON response")

	if err := optimizeCmd.MarkFlagRequired("player-id"); err != nil {
		panic(fmt.Sprintf("failed to mark player-id flag as required: %v", err))
	}

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, _ []string) error {
	req := collections.OptimizeRequest{
		PlayerID:  optimizePlayerID,
		MatchMode: collections.MatchMode(optimizeMatchMode),
		ByCost:    optimizeByCost,
		Filter: collections.FilterProps{
			CostMode:     collections.CostModeNormal,
			SearchFilter: optimizeSearch,
			MapFilter: collections.MapFilter{
				CollectionsFilter: optimizeCollections,
				RewardFilter:      optimizeRewards,
			},
		},
	}
	if optimizeSale {
		req.Filter.CostMode = collections.CostModeSale
	}
	if err := req.Validate(); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}

	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	eng, err := a.newEngine()
	if err != nil {
		return err
	}
	resp, err := eng.Optimize(ctx, req)
	if err != nil {
		return fmt.Errorf("optimizing: %w", err)
	}

	if optimizeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}
	return printGroups(cmd.OutOrStdout(), resp)
}

// printGroups writes the optimized groups as a text table.
func printGroups(out io.Writer, resp *collections.OptimizeResponse) error {
	costs := make(map[string]*collections.CostEntry, len(resp.CostMap))
	for _, e := range resp.CostMap {
		costs[e.Collection+"|"+e.Combo.Key()] = e
	}

	fmt.Fprintf(out, "%d collections, %d groups (%d ms)\n\n",
		len(resp.Maps), len(resp.Groups), resp.QueryStats.ProcessingTimeMs)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, g := range resp.Groups {
		fmt.Fprintf(w, "%s\tneeds %d\t%s stars\t%s honor\n",
			g.Name, g.Collection.Needed, humanize.Comma(int64(g.NeededStars)), humanize.Comma(int64(g.NeededCost)))
		for _, combo := range g.Combos {
			line := fmt.Sprintf("  %s\t%d crew", combo.Key(), combo.Count)
			if e, ok := costs[g.Name+"|"+combo.Key()]; ok {
				line += fmt.Sprintf("\t%s honor\t%s", humanize.Comma(int64(e.Cost)), crewNames(e.Crew))
			}
			fmt.Fprintln(w, line)
		}
	}
	return w.Flush()
}

func crewNames(crew []*collections.Crew) string {
	names := make([]string, len(crew))
	for i, c := range crew {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}
