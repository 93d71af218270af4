// Package cmd implements the command-line interface for stashsurf.
package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stashsurf-cli/stashsurf/auth"
	"github.com/stashsurf-cli/stashsurf/icon"
	"github.com/stashsurf-cli/stashsurf/key"
)

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
}

// authCmd groups credential management for the media server.
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage media server credentials",
}

// authLoginCmd stores the server API key in the system keyring.
var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the server API key in the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		var apiKey string
		prompt := survey.Password{
			Message: "Server API key",
		}
		handleErr(survey.AskOne(&prompt, &apiKey, survey.WithValidator(survey.Required)))

		handleErr(auth.SetAPIKey(apiKey))
		viper.Set(key.ServerUseKeyring, true)

		fmt.Printf("%s API key stored in the system keyring\n", icon.Get(icon.Success))
	},
}

// authLogoutCmd removes the stored API key.
var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the server API key from the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(auth.DeleteAPIKey())
		fmt.Printf("%s API key removed\n", icon.Get(icon.Success))
	},
}
