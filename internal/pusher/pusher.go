// Package pusher implements the best-effort sync of the persisted data
// files to a hosted repository.
//
// The local files are authoritative. A push that cannot happen (no
// repository, no remote configured) or that fails (auth, network,
// rejection) degrades to a user-visible notice; it is never an error the
// caller should treat as fatal. Callers enforce this by consuming
// PushResult instead of an error return.
package pusher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sjvdm/roadprog/internal/vcs"
)

// Outcome classifies what happened to a push attempt.
type Outcome string

const (
	// Pushed means the data files were committed and pushed.
	Pushed Outcome = "pushed"
	// Skipped means sync is not configured or there was nothing new;
	// local state stands on its own.
	Skipped Outcome = "skipped"
	// Warned means the push was attempted and failed; local state is
	// still authoritative.
	Warned Outcome = "warned"
)

// PushResult reports the outcome of a push with a human-readable notice.
type PushResult struct {
	Outcome Outcome
	Notice  string
}

// Options configures the pusher.
type Options struct {
	// Remote is the git remote to push to. Empty disables sync entirely.
	Remote string

	// Ref is the branch to push. Empty means the current branch.
	Ref string

	// Timeout bounds a single push attempt. Zero means 30 seconds.
	Timeout time.Duration
}

// Pusher pushes the completion and override files to a remote repository.
type Pusher struct {
	repo   vcs.VCS
	opts   Options
	paths  []string
	logger *log.Logger
}

// New creates a pusher that syncs the given file paths.
// If logger is nil, a default stderr logger is used.
func New(repo vcs.VCS, paths []string, opts Options, logger *log.Logger) *Pusher {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Pusher{repo: repo, opts: opts, paths: paths, logger: logger}
}

// Push stages, commits, and pushes the data files.
//
// Every failure path returns a PushResult, never an error: by the time
// Push runs, the local write has already succeeded and nothing here may
// undo that.
func (p *Pusher) Push(ctx context.Context, message string) PushResult {
	if p.opts.Remote == "" {
		return PushResult{Outcome: Skipped, Notice: "remote sync not configured; changes saved locally"}
	}
	if !p.repo.IsInRepo() {
		return PushResult{Outcome: Skipped, Notice: "data directory is not a git repository; changes saved locally"}
	}
	if !p.repo.HasRemote(p.opts.Remote) {
		return PushResult{Outcome: Skipped, Notice: fmt.Sprintf("remote %q not configured; changes saved locally", p.opts.Remote)}
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	if err := p.repo.Stage(ctx, p.paths...); err != nil {
		return p.warn("failed to stage data files", err)
	}

	if err := p.repo.Commit(ctx, message); err != nil {
		if errors.Is(err, vcs.ErrNothingToCommit) {
			return PushResult{Outcome: Skipped, Notice: "no changes to sync"}
		}
		return p.warn("failed to commit data files", err)
	}

	if err := p.repo.Push(ctx, p.opts.Remote, p.opts.Ref); err != nil {
		switch {
		case errors.Is(err, vcs.ErrNoRemote):
			return PushResult{Outcome: Skipped, Notice: "no remote configured; changes saved locally"}
		case errors.Is(err, vcs.ErrAuthFailed):
			return p.warn("remote refused credentials; changes saved locally", err)
		case errors.Is(err, vcs.ErrPushRejected):
			return p.warn("remote rejected push (pull first?); changes saved locally", err)
		default:
			return p.warn("push failed; changes saved locally", err)
		}
	}

	p.logger.Printf("Pushed data files to %s", p.opts.Remote)
	return PushResult{Outcome: Pushed, Notice: fmt.Sprintf("synced to %s", p.opts.Remote)}
}

func (p *Pusher) warn(notice string, err error) PushResult {
	p.logger.Printf("WARNING: %s: %v", notice, err)
	return PushResult{Outcome: Warned, Notice: notice}
}
