// Package vcs defines the narrow version-control surface the sync adapter
// needs: stage the data files, commit them, push to a remote. The only
// implementation is internal/vcs/git, which shells out to the git binary;
// the interface exists so the pusher and its tests can substitute a fake.
package vcs

import "context"

// VCS is the set of repository operations the pusher uses.
type VCS interface {
	// IsInRepo reports whether the working directory is inside a repository.
	IsInRepo() bool

	// HasRemote reports whether the named remote is configured.
	// An empty name matches any remote.
	HasRemote(name string) bool

	// Stage adds the given paths to the index.
	Stage(ctx context.Context, paths ...string) error

	// Commit records staged changes with the given message. Committing
	// with a clean index returns ErrNothingToCommit.
	Commit(ctx context.Context, message string) error

	// Push pushes the current branch to the remote. An empty remote
	// means the configured default (origin); an empty ref means the
	// current branch.
	Push(ctx context.Context, remote, ref string) error
}
