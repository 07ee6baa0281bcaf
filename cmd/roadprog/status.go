package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjvdm/roadprog/internal/reconcile"
	"github.com/sjvdm/roadprog/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:     "status [suburb]",
	GroupID: "tracking",
	Short:   "Show per-suburb completion status",
	Long: `Show the status table: every suburb, its assigned editor, and whether
anyone has marked it complete. Complete rows are colored by completing
editor, matching the map legend; Not Started rows are gray.

With a suburb argument, shows just that suburb's status.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(nil)
		if err != nil {
			return err
		}

		if len(args) == 1 {
			state, owner, err := a.tracker.Status(args[0])
			if err != nil {
				return err
			}
			if state == reconcile.Complete {
				fmt.Printf("%s: %s (by %s)\n", args[0], state, owner)
			} else {
				fmt.Printf("%s: %s\n", args[0], state)
			}
			return nil
		}

		rows, err := a.tracker.StatusTable()
		if err != nil {
			return err
		}
		palette, err := a.loadPalette()
		if err != nil {
			return err
		}

		fmt.Print(ui.RenderStatusTable(rows, palette))
		return nil
	},
}

var editorsCmd = &cobra.Command{
	Use:     "editors",
	GroupID: "tracking",
	Short:   "List editors from the roster",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(nil)
		if err != nil {
			return err
		}

		editors, err := a.tracker.ListEditors()
		if err != nil {
			return err
		}
		for _, editor := range editors {
			fmt.Println(editor)
		}
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:     "summary",
	GroupID: "tracking",
	Short:   "Show per-editor progress and overall completion",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(nil)
		if err != nil {
			return err
		}

		summaries, err := a.tracker.Summary()
		if err != nil {
			return err
		}
		progress, err := a.tracker.OverallProgress()
		if err != nil {
			return err
		}
		palette, err := a.loadPalette()
		if err != nil {
			return err
		}

		fmt.Printf("%s Editor Progress Summary\n\n", ui.RenderAccent("▣"))
		fmt.Print(ui.RenderSummary(summaries, palette))
		fmt.Printf("\n%s\n", ui.RenderProgress(progress))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(editorsCmd)
	rootCmd.AddCommand(summaryCmd)
}
