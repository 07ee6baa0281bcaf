package main

import (
	"fmt"
	"log"
	"path/filepath"

	"github.com/sjvdm/roadprog/internal/completion"
	"github.com/sjvdm/roadprog/internal/config"
	"github.com/sjvdm/roadprog/internal/pusher"
	"github.com/sjvdm/roadprog/internal/roster"
	"github.com/sjvdm/roadprog/internal/tracker"
	"github.com/sjvdm/roadprog/internal/ui"
	"github.com/sjvdm/roadprog/internal/vcs/git"
)

// app bundles the wired components every command needs.
type app struct {
	cfg     config.Config
	tracker *tracker.Tracker
}

// buildApp loads config and wires the tracker. logger may be nil for
// default stderr loggers.
func buildApp(logger *log.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return buildAppWith(cfg, logger)
}

func buildAppWith(cfg config.Config, logger *log.Logger) (*app, error) {
	rosterStore := roster.NewStore(roster.Options{
		Path:           cfg.RosterPath,
		NameColumn:     cfg.NameColumn,
		AssignedColumn: cfg.AssignedColumn,
	})
	overrides := roster.NewOverrideStore(cfg.OverrideFile, logger)
	completions := completion.NewStore(cfg.CompletionFile, logger)

	var push *pusher.Pusher
	if cfg.Remote != "" {
		push = pusher.New(
			git.New(cfg.DataDir),
			dataFilePaths(cfg),
			pusher.Options{Remote: cfg.Remote, Ref: cfg.Ref},
			logger,
		)
	}

	tr := tracker.New(tracker.Options{
		Roster:      rosterStore,
		Overrides:   overrides,
		Completions: completions,
		Pusher:      push,
		Logger:      logger,
	})

	return &app{cfg: cfg, tracker: tr}, nil
}

// loadPalette reads the roster on demand: only the rendering commands
// need it, so sync and serve stay usable when the roster file is absent.
func (a *app) loadPalette() (ui.Palette, error) {
	editors, err := a.tracker.ListEditors()
	if err != nil {
		return ui.Palette{}, err
	}
	return ui.LoadPalette(a.cfg.PaletteFile, editors)
}

// dataFilePaths returns the synced file paths as absolute paths, so git
// resolves them regardless of which directory the repository root is.
func dataFilePaths(cfg config.Config) []string {
	paths := []string{cfg.CompletionFile, cfg.OverrideFile}
	for i, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			paths[i] = abs
		}
	}
	return paths
}

// printPushResult surfaces the sync outcome without ever failing the
// command: the local save already succeeded.
func printPushResult(result pusher.PushResult) {
	switch result.Outcome {
	case pusher.Pushed:
		fmt.Printf("%s %s\n", ui.RenderPass("✓"), result.Notice)
	case pusher.Warned:
		fmt.Printf("%s %s\n", ui.RenderWarn("⚠"), result.Notice)
	default:
		fmt.Printf("  %s\n", result.Notice)
	}
}
