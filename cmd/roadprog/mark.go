package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/sjvdm/roadprog/internal/ui"
)

var markCmd = &cobra.Command{
	Use:     "mark",
	GroupID: "tracking",
	Short:   "Mark your completed suburbs",
	Long: `Mark which of your assigned suburbs are complete.

With no flags this is interactive: pick your name, then tick suburbs in a
multi-select (previously completed suburbs come pre-ticked). The selection
replaces your previous set, so un-ticking a suburb retracts it.

Flags skip the prompts:
  roadprog mark --editor "Alice" --suburb UMBUMBULU --suburb INWABI

The updated completion log is pushed to the configured git remote when one
is set; push failures only warn, the local save always stands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(nil)
		if err != nil {
			return err
		}

		editor, _ := cmd.Flags().GetString("editor")
		suburbs, _ := cmd.Flags().GetStringArray("suburb")

		if editor == "" {
			editor, err = pickEditor(a)
			if err != nil {
				return err
			}
		}

		if !cmd.Flags().Changed("suburb") {
			suburbs, err = pickSuburbs(a, editor)
			if err != nil {
				return err
			}
		}

		result, err := a.tracker.MarkCompleted(cmd.Context(), editor, suburbs)
		if err != nil {
			return err
		}

		fmt.Printf("%s Saved %d completed suburbs for %s\n", ui.RenderPass("✓"), len(suburbs), editor)
		printPushResult(result)
		return nil
	},
}

// pickEditor prompts for the editor identity from the roster's list.
func pickEditor(a *app) (string, error) {
	editors, err := a.tracker.ListEditors()
	if err != nil {
		return "", err
	}
	if len(editors) == 0 {
		return "", fmt.Errorf("roster has no assigned editors")
	}

	var editor string
	form := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().
			Title("Select your name (editor)").
			Options(huh.NewOptions(editors...)...).
			Value(&editor),
	))
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("selection cancelled: %w", err)
	}
	return editor, nil
}

// pickSuburbs prompts with the editor's assigned suburbs, pre-selecting
// the ones already marked complete.
func pickSuburbs(a *app, editor string) ([]string, error) {
	assigned, err := a.tracker.SuburbsFor(editor)
	if err != nil {
		return nil, err
	}
	if len(assigned) == 0 {
		return nil, fmt.Errorf("no suburbs assigned to %s", editor)
	}

	_, sets, err := a.tracker.Records()
	if err != nil {
		return nil, err
	}

	var selected []string
	options := make([]huh.Option[string], 0, len(assigned))
	for _, suburb := range assigned {
		opt := huh.NewOption(suburb, suburb)
		if sets.Contains(editor, suburb) {
			opt = opt.Selected(true)
		}
		options = append(options, opt)
	}

	form := huh.NewForm(huh.NewGroup(
		huh.NewMultiSelect[string]().
			Title(fmt.Sprintf("Mark suburbs completed by %s", editor)).
			Options(options...).
			Value(&selected),
	))
	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("selection cancelled: %w", err)
	}
	return selected, nil
}

func init() {
	markCmd.Flags().StringP("editor", "e", "", "Editor name (skips the prompt)")
	markCmd.Flags().StringArrayP("suburb", "s", nil, "Completed suburb (repeatable; replaces the previous set)")
	rootCmd.AddCommand(markCmd)
}
