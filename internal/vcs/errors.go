package vcs

import "errors"

// Common errors returned by VCS operations.
//
// Check with errors.Is():
//
//	if errors.Is(err, vcs.ErrNoRemote) {
//	    // local-only mode, nothing to push
//	}
var (
	// ErrNotInRepo is returned when the data directory is not inside
	// a repository.
	ErrNotInRepo = errors.New("not in a git repository")

	// ErrNoRemote is returned when an operation requires a remote
	// but none is configured.
	ErrNoRemote = errors.New("no remote configured")

	// ErrNothingToCommit is returned by Commit when the index is clean.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrPushRejected is returned when the remote rejects a push,
	// typically a non-fast-forward update.
	ErrPushRejected = errors.New("push rejected by remote")

	// ErrAuthFailed is returned when the remote refuses the credential.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrDetached is returned when there is no current branch to push.
	ErrDetached = errors.New("not on a branch")
)
