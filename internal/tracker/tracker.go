// Package tracker is the facade over the roster, completion, and sync
// layers: every user-facing operation (list editors, mark completed,
// reassign, status, summary) goes through here.
//
// Each mutating operation is one load-mutate-save cycle against the
// backing files, followed by a best-effort push to the configured remote.
// There is no locking across processes: if two editors save at the same
// moment, the later whole-file rewrite wins and the earlier editor's
// concurrent change is lost. Expected write concurrency is a handful of
// editors, which is why this known limitation is documented rather than
// papered over with a lock server.
package tracker

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/sjvdm/roadprog/internal/completion"
	"github.com/sjvdm/roadprog/internal/pusher"
	"github.com/sjvdm/roadprog/internal/reconcile"
	"github.com/sjvdm/roadprog/internal/roster"
)

// Tracker coordinates the stores behind the UI surface.
type Tracker struct {
	roster      *roster.Store
	overrides   *roster.OverrideStore
	completions *completion.Store
	pusher      *pusher.Pusher // nil disables sync
	logger      *log.Logger
}

// Options collects the tracker's collaborators. Pusher may be nil when
// remote sync is not configured.
type Options struct {
	Roster      *roster.Store
	Overrides   *roster.OverrideStore
	Completions *completion.Store
	Pusher      *pusher.Pusher
	Logger      *log.Logger
}

// New creates a tracker. If opts.Logger is nil, a default stderr logger
// is used.
func New(opts Options) *Tracker {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(os.Stderr, "[tracker] ", log.LstdFlags)
	}
	return &Tracker{
		roster:      opts.Roster,
		overrides:   opts.Overrides,
		completions: opts.Completions,
		pusher:      opts.Pusher,
		logger:      logger,
	}
}

// Records returns the roster with overrides applied, and the current
// completion mapping. This is the read side of every interaction.
func (t *Tracker) Records() ([]roster.Suburb, completion.Sets, error) {
	records, err := t.roster.Load()
	if err != nil {
		return nil, nil, err
	}

	overrides, err := t.overrides.Load()
	if err != nil {
		return nil, nil, err
	}
	records = roster.ApplyOverrides(records, overrides)

	sets, err := t.completions.Load()
	if err != nil {
		return nil, nil, err
	}

	return records, sets, nil
}

// ListEditors returns the sorted distinct editors assigned in the roster,
// after overrides.
func (t *Tracker) ListEditors() ([]string, error) {
	records, _, err := t.Records()
	if err != nil {
		return nil, err
	}
	return roster.Editors(records), nil
}

// SuburbsFor returns the sorted suburb names assigned to editor.
func (t *Tracker) SuburbsFor(editor string) ([]string, error) {
	records, _, err := t.Records()
	if err != nil {
		return nil, err
	}

	var names []string
	for _, r := range records {
		if r.AssignedEditor == editor {
			names = append(names, r.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// MarkCompleted replaces editor's completed set with suburbs, persists
// the log, and best-effort pushes it. Suburb names not present in the
// roster are rejected before anything is written.
//
// The returned PushResult describes the sync outcome; it is informational
// and never indicates a failed save.
func (t *Tracker) MarkCompleted(ctx context.Context, editor string, suburbs []string) (pusher.PushResult, error) {
	records, _, err := t.Records()
	if err != nil {
		return pusher.PushResult{}, err
	}

	known := map[string]bool{}
	for _, r := range records {
		known[roster.NormalizeName(r.Name)] = true
	}

	var unknown []string
	for _, s := range suburbs {
		if !known[roster.NormalizeName(s)] {
			unknown = append(unknown, s)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return pusher.PushResult{}, fmt.Errorf("unknown suburbs: %s", strings.Join(unknown, ", "))
	}

	if err := t.completions.Save(editor, suburbs); err != nil {
		return pusher.PushResult{}, err
	}
	t.logger.Printf("Saved %d completed suburbs for %s", len(suburbs), editor)

	return t.push(ctx, fmt.Sprintf("Update completed suburbs for %s", editor)), nil
}

// Reassign overrides the responsible editor for suburb and invalidates
// the roster cache so the next read reflects the change. A later
// reassignment for the same suburb overwrites the override.
func (t *Tracker) Reassign(ctx context.Context, suburb, newEditor string) (pusher.PushResult, error) {
	records, err := t.roster.Load()
	if err != nil {
		return pusher.PushResult{}, err
	}

	key := roster.NormalizeName(suburb)
	found := false
	for _, r := range records {
		if roster.NormalizeName(r.Name) == key {
			found = true
			break
		}
	}
	if !found {
		return pusher.PushResult{}, fmt.Errorf("unknown suburb: %s", suburb)
	}

	if err := t.overrides.Set(suburb, newEditor); err != nil {
		return pusher.PushResult{}, err
	}
	t.roster.Invalidate()
	t.logger.Printf("Reassigned %s to %s", key, newEditor)

	return t.push(ctx, fmt.Sprintf("Reassign %s to %s", key, newEditor)), nil
}

// Status returns the completion state and owning editor for one suburb.
func (t *Tracker) Status(suburb string) (reconcile.State, string, error) {
	_, sets, err := t.Records()
	if err != nil {
		return "", "", err
	}
	state, owner := reconcile.Status(suburb, sets)
	return state, owner, nil
}

// StatusTable returns the per-suburb status table.
func (t *Tracker) StatusTable() ([]reconcile.StatusRow, error) {
	records, sets, err := t.Records()
	if err != nil {
		return nil, err
	}
	return reconcile.StatusTable(records, sets), nil
}

// Summary returns per-editor progress.
func (t *Tracker) Summary() ([]reconcile.EditorSummary, error) {
	records, sets, err := t.Records()
	if err != nil {
		return nil, err
	}
	return reconcile.Summary(records, sets), nil
}

// OverallProgress returns completion counts over the whole roster.
func (t *Tracker) OverallProgress() (reconcile.Progress, error) {
	records, sets, err := t.Records()
	if err != nil {
		return reconcile.Progress{}, err
	}
	return reconcile.OverallProgress(records, sets), nil
}

// push runs the sync adapter when one is configured.
func (t *Tracker) push(ctx context.Context, message string) pusher.PushResult {
	if t.pusher == nil {
		return pusher.PushResult{Outcome: pusher.Skipped, Notice: "remote sync not configured; changes saved locally"}
	}
	return t.pusher.Push(ctx, message)
}
