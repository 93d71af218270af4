// Package cmd implements the command-line interface for stashsurf.
package cmd

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/stashsurf-cli/stashsurf/color"
	"github.com/stashsurf-cli/stashsurf/history"
	"github.com/stashsurf-cli/stashsurf/style"
	"golang.org/x/exp/slices"
)

func init() {
	rootCmd.AddCommand(historyCmd)
}

// historyCmd lists the locally recorded watch history.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Display the locally recorded watch history",
	Run: func(cmd *cobra.Command, args []string) {
		saved, err := history.Get()
		handleErr(err)

		records := lo.Values(saved)
		if len(records) == 0 {
			cmd.Println(style.Faint("History is empty"))
			return
		}

		slices.SortFunc(records, func(a, b *history.SavedScene) int {
			return strings.Compare(a.Title, b.Title)
		})

		for _, record := range records {
			watched := fmt.Sprintf("%d%% watched", int(record.WatchedPercentage))
			cmd.Printf("%s %s\n", style.Fg(color.Purple)(record.Title), style.Faint(watched))
		}
	},
}
