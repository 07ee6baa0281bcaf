package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjvdm/roadprog/internal/ui"
)

var reassignCmd = &cobra.Command{
	Use:     "reassign <suburb> <editor>",
	GroupID: "tracking",
	Short:   "Reassign a suburb to a different editor",
	Long: `Override the roster's assignment for one suburb.

The override is persisted next to the completion log and applied on top of
the roster on every read; the roster file itself is never modified. A
second reassignment for the same suburb replaces the first.

Example:
  roadprog reassign UMBUMBULU "Bob"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(nil)
		if err != nil {
			return err
		}

		suburb, editor := args[0], args[1]
		result, err := a.tracker.Reassign(cmd.Context(), suburb, editor)
		if err != nil {
			return err
		}

		fmt.Printf("%s Reassigned %s to %s\n", ui.RenderPass("✓"), suburb, editor)
		printPushResult(result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reassignCmd)
}
