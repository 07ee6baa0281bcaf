// Package git implements the vcs.VCS interface by shelling out to the
// git binary, the same way the rest of the tool treats git as an opaque
// service rather than linking a git library.
package git

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sjvdm/roadprog/internal/vcs"
)

// Git runs git commands rooted at a working directory.
type Git struct {
	workDir string
}

// New creates a Git instance operating in workDir.
func New(workDir string) *Git {
	return &Git{workDir: workDir}
}

var _ vcs.VCS = (*Git)(nil)

// IsInRepo reports whether workDir is inside a git work tree.
func (g *Git) IsInRepo() bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = g.workDir
	output, err := cmd.Output()
	return err == nil && strings.TrimSpace(string(output)) == "true"
}

// HasRemote reports whether the named remote exists. An empty name
// matches any configured remote.
func (g *Git) HasRemote(name string) bool {
	cmd := exec.Command("git", "remote")
	cmd.Dir = g.workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}

	for _, remote := range strings.Fields(string(output)) {
		if name == "" || remote == name {
			return true
		}
	}
	return false
}

// CurrentRef returns the current branch name, or empty string when HEAD
// is detached.
func (g *Git) CurrentRef() (string, error) {
	cmd := exec.Command("git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = g.workDir
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to resolve current branch: %w", err)
	}

	ref := strings.TrimSpace(string(output))
	if ref == "HEAD" {
		return "", nil // detached
	}
	return ref, nil
}

// Stage adds the given paths to the index. No paths is a no-op.
func (g *Git) Stage(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}

	args := append([]string{"add", "--"}, paths...)
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("git add failed: %w\n%s", err, string(output))
	}
	return nil
}

// Commit records staged changes. A clean index maps to ErrNothingToCommit
// so callers can treat it as a no-op rather than a failure.
func (g *Git) Commit(ctx context.Context, message string) error {
	cmd := exec.CommandContext(ctx, "git", "commit", "-m", message)
	cmd.Dir = g.workDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := string(output)
		if strings.Contains(outputStr, "nothing to commit") ||
			strings.Contains(outputStr, "nothing added to commit") {
			return vcs.ErrNothingToCommit
		}
		return fmt.Errorf("git commit failed: %w\n%s", err, outputStr)
	}
	return nil
}

// Push pushes ref to remote. Defaults: remote origin, ref the current
// branch. Common remote failures map to sentinel errors.
func (g *Git) Push(ctx context.Context, remote, ref string) error {
	if !g.HasRemote(remote) {
		return vcs.ErrNoRemote
	}

	if remote == "" {
		remote = "origin"
	}
	if ref == "" {
		var err error
		ref, err = g.CurrentRef()
		if err != nil {
			return err
		}
		if ref == "" {
			return vcs.ErrDetached
		}
	}

	cmd := exec.CommandContext(ctx, "git", "push", remote, ref)
	cmd.Dir = g.workDir

	output, err := cmd.CombinedOutput()
	if err != nil {
		outputStr := string(output)
		switch {
		case strings.Contains(outputStr, "rejected"), strings.Contains(outputStr, "non-fast-forward"):
			return vcs.ErrPushRejected
		case strings.Contains(outputStr, "Authentication failed"),
			strings.Contains(outputStr, "could not read Username"),
			strings.Contains(outputStr, "Permission denied"):
			return vcs.ErrAuthFailed
		}
		return fmt.Errorf("git push failed: %w\n%s", err, outputStr)
	}
	return nil
}
