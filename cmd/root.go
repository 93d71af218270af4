// Package cmd implements the command-line interface for stashsurf.
package cmd

import (
	"fmt"
	"os"
	"strings"

	cc "github.com/ivanpirog/coloredcobra"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/color"
	"github.com/stashsurf-cli/stashsurf/constant"
	"github.com/stashsurf-cli/stashsurf/icon"
	"github.com/stashsurf-cli/stashsurf/key"
	"github.com/stashsurf-cli/stashsurf/log"
	"github.com/stashsurf-cli/stashsurf/nav"
	"github.com/stashsurf-cli/stashsurf/style"
	"github.com/stashsurf-cli/stashsurf/util"
	"github.com/stashsurf-cli/stashsurf/version"
	"github.com/stashsurf-cli/stashsurf/watch"
	"github.com/stashsurf-cli/stashsurf/where"
)

func init() {
	rootCmd.Flags().BoolP("version", "v", false, "Print the application version")

	rootCmd.PersistentFlags().StringP("icons", "I", "", "Set the visual icon variant (e.g., nerd, emoji, plain)")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("icons", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return icon.AvailableVariants(), cobra.ShellCompDirectiveDefault
	}))
	lo.Must0(viper.BindPFlag(key.IconsVariant, rootCmd.PersistentFlags().Lookup("icons")))

	rootCmd.PersistentFlags().BoolP("write-history", "H", true, "Persist playback progress to the localized watch history")
	lo.Must0(viper.BindPFlag(key.HistorySaveOnWatch, rootCmd.PersistentFlags().Lookup("write-history")))

	rootCmd.Flags().StringP("mode", "m", "", "Start directly in the given navigation mode")
	lo.Must0(rootCmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(nav.Modes(), func(m nav.Mode, _ int) string {
			return m.String()
		}), cobra.ShellCompDirectiveDefault
	}))

	rootCmd.Flags().BoolP("continue", "c", false, "Resume playback from the most recent history entry")

	helpFunc := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		helpFunc(cmd, args)
		version.Notify()
	})

	// Initialize cleanup of localized temporary files on application startup.
	go func() {
		_ = util.Delete(where.Temp())
	}()
}

// rootCmd defines the entry point for the stashsurf application.
var rootCmd = &cobra.Command{
	Use:   constant.StashSurf,
	Short: "A command-line continuous playback navigator for Stash media servers",
	Long: style.New().Italic(true).Foreground(color.HiRed).
		Render("    - A command-line continuous playback navigator for Stash media servers"),
	Run: func(cmd *cobra.Command, args []string) {
		if cmd.Flags().Changed("version") {
			versionCmd.Run(versionCmd, args)
			return
		}

		CheckDependencies()

		options := watch.Options{
			Mode:     mo.None[nav.Mode](),
			Continue: lo.Must(cmd.Flags().GetBool("continue")),
		}

		if name := lo.Must(cmd.Flags().GetString("mode")); name != "" {
			mode, err := nav.ParseMode(name)
			handleErr(err)
			options.Mode = mo.Some(mode)
		}

		handleErr(watch.Run(&options))
	},
}

// Execute initializes child command routing and processes the CLI entry point.
func Execute() {
	if viper.GetBool(key.CliColored) {
		cc.Init(&cc.Config{
			RootCmd:       rootCmd,
			Headings:      cc.HiCyan + cc.Bold + cc.Underline,
			Commands:      cc.HiYellow + cc.Bold,
			Example:       cc.Italic,
			ExecName:      cc.Bold,
			Flags:         cc.Bold,
			FlagsDataType: cc.Italic + cc.HiBlue,
		})
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func handleErr(err error) {
	if err != nil {
		log.Error(err)
		_, _ = fmt.Fprintf(os.Stderr, "%s %s\n", icon.Get(icon.Fail), strings.Trim(err.Error(), " \n"))
		os.Exit(1)
	}
}
