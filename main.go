// Package main is the entry point for the stashsurf application.
package main

import (
	"github.com/samber/lo"
	"github.com/stashsurf-cli/stashsurf/cmd"
	"github.com/stashsurf-cli/stashsurf/config"
	"github.com/stashsurf-cli/stashsurf/log"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
