package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sjvdm/roadprog/internal/pusher"
	"github.com/sjvdm/roadprog/internal/vcs/git"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	GroupID: "sync",
	Short:   "Push the data files to the configured git remote",
	Long: `Commit and push the completion log and override file to the remote
configured under "remote" in roadprog.yaml (or ROADPROG_REMOTE).

Sync is best-effort everywhere in roadprog: mark and reassign push
automatically after saving, and this command exists to retry after a
failed push or to push edits made by hand. With no remote configured it
reports that and does nothing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(nil)
		if err != nil {
			return err
		}

		if a.cfg.Remote == "" {
			fmt.Println("Remote sync not configured; set \"remote\" in roadprog.yaml")
			return nil
		}

		push := pusher.New(
			git.New(a.cfg.DataDir),
			dataFilePaths(a.cfg),
			pusher.Options{Remote: a.cfg.Remote, Ref: a.cfg.Ref},
			nil,
		)

		result := push.Push(cmd.Context(), "Sync road progress data")
		printPushResult(result)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
