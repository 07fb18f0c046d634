package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/outsearch/internal/ui"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show index statistics",
	Long: `Show counts for the indexed outline and its most used tags.

Examples:
  outsearch stats
  outsearch stats --tags 0 --json`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().Int("tags", 10, "Number of tags to list (0 for all)")
}

func runStats(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("tags")

	s, err := openSession(nil)
	if err != nil {
		return sessionError(err)
	}
	stats := s.engine.Stats()
	totalTags := len(stats.Tags)
	if limit > 0 && len(stats.Tags) > limit {
		stats.Tags = stats.Tags[:limit]
	}

	if isJSONOutput() {
		outputSuccess(stats, &Meta{Count: stats.Documents})
		return nil
	}

	fmt.Println(ui.Header(s.path))
	tbl := ui.NewTable(2)
	tbl.AddRow("documents", fmt.Sprintf("%d", stats.Documents))
	tbl.AddRow("nodes", fmt.Sprintf("%d", stats.Nodes))
	tbl.AddRow("roots", fmt.Sprintf("%d", stats.Roots))
	tbl.AddRow("mirrors", fmt.Sprintf("%d", stats.Mirrors))
	tbl.AddRow("max depth", fmt.Sprintf("%d", stats.MaxDepth))
	tbl.AddRow("todos", fmt.Sprintf("%d (%d done)", stats.Todos, stats.TodosDone))
	tbl.AddRow("tags", fmt.Sprintf("%d", totalTags))
	fmt.Print(tbl.String())

	if len(stats.Tags) == 0 {
		return nil
	}
	fmt.Println()
	fmt.Println(ui.Header("Tags"))
	tags := ui.NewTable(2)
	for _, tc := range stats.Tags {
		tags.AddRow("#"+tc.Tag, fmt.Sprintf("%d", tc.Count))
	}
	fmt.Print(tags.String())
	if totalTags > len(stats.Tags) {
		fmt.Println(ui.Hint(fmt.Sprintf("... and %d more", totalTags-len(stats.Tags))))
	}
	return nil
}
