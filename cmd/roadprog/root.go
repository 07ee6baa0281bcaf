package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "roadprog",
	Short: "Track rural road editing progress across suburbs",
	Long: `roadprog tracks which editor has completed the road edits for which
suburb. The suburb allocation comes from a GeoJSON roster; completion
state and reassignment overrides live in CSV files next to it, and are
optionally pushed to a git remote so the team shares one view.

Typical workflow:
  roadprog init                      # write default config and data dir
  roadprog mark                      # pick your name, tick completed suburbs
  roadprog status                    # per-suburb status table
  roadprog summary                   # per-editor progress
  roadprog serve                     # live dashboard at :8080`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "tracking", Title: "Tracking Commands:"},
		&cobra.Group{ID: "sync", Title: "Sync & Serving Commands:"},
	)
}
