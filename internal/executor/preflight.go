package executor

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// PreflightWarning is a non-fatal issue surfaced on a successful
// EditPlanResult rather than blocking the apply — "is it safe for this
// plan to touch this repo", scoped to one plan application rather than
// a whole agent session.
type PreflightWarning struct {
	Code    string
	Message string
}

// PreflightGuard runs repository-state checks before an ApplyPlan call,
// adapted from the dirty-tree/merge/rebase/detached-HEAD checks a
// source-control-aware agent session runs before touching a workspace.
// Every check here is advisory: it never blocks ApplyPlan, it only
// annotates the eventual result, since the executor's own snapshot/
// rollback machinery is what actually protects the working tree — a
// dirty git status is the caller's business, not a plan-application
// precondition.
type PreflightGuard struct {
	git gitClient
}

// NewPreflightGuard creates a guard that shells out to the system git
// binary in projectRoot.
func NewPreflightGuard() *PreflightGuard {
	return &PreflightGuard{git: execGitClient{}}
}

// Check runs every repository-state check against projectRoot and
// returns the resulting warnings. It never returns a non-nil error for
// an ordinary non-git directory; error is reserved for a git invocation
// that failed unexpectedly (not "not a repo").
func (g *PreflightGuard) Check(ctx context.Context, projectRoot string) ([]PreflightWarning, error) {
	if !g.git.isRepo(ctx, projectRoot) {
		return []PreflightWarning{{Code: "NOT_GIT_REPO", Message: "not a git repository; rollback relies solely on in-memory snapshots"}}, nil
	}

	var warnings []PreflightWarning

	if g.git.stateFileExists(projectRoot, "MERGE_HEAD") {
		warnings = append(warnings, PreflightWarning{Code: "MERGE_IN_PROGRESS", Message: "a merge is in progress"})
	}
	if g.git.stateFileExists(projectRoot, "rebase-merge") || g.git.stateFileExists(projectRoot, "rebase-apply") {
		warnings = append(warnings, PreflightWarning{Code: "REBASE_IN_PROGRESS", Message: "a rebase is in progress"})
	}
	if g.git.stateFileExists(projectRoot, "CHERRY_PICK_HEAD") {
		warnings = append(warnings, PreflightWarning{Code: "CHERRY_PICK_IN_PROGRESS", Message: "a cherry-pick is in progress"})
	}
	if g.git.stateFileExists(projectRoot, "BISECT_LOG") {
		warnings = append(warnings, PreflightWarning{Code: "BISECT_IN_PROGRESS", Message: "a git bisect is in progress"})
	}
	if g.git.isDetachedHead(ctx, projectRoot) {
		warnings = append(warnings, PreflightWarning{Code: "DETACHED_HEAD", Message: "repository is in detached HEAD state"})
	}

	dirty, err := g.git.dirtyFileCount(ctx, projectRoot)
	if err != nil {
		return warnings, err
	}
	if dirty > 0 {
		warnings = append(warnings, PreflightWarning{
			Code:    "DIRTY_WORKING_TREE",
			Message: "repository has uncommitted changes that this plan's edits will be interleaved with",
		})
	}

	return warnings, nil
}

// gitClient is the subset of git state inspection PreflightGuard needs.
// Kept as an interface (rather than a concrete *execGitClient field) so
// tests can substitute a fake without shelling out.
type gitClient interface {
	isRepo(ctx context.Context, dir string) bool
	stateFileExists(dir, name string) bool
	isDetachedHead(ctx context.Context, dir string) bool
	dirtyFileCount(ctx context.Context, dir string) (int, error)
}

// execGitClient shells out to the system git binary, the same
// subprocess-based approach as a CLI's own change-detection client.
type execGitClient struct{}

func (execGitClient) isRepo(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--git-dir")
	cmd.Dir = dir
	return cmd.Run() == nil
}

func (execGitClient) stateFileExists(dir, name string) bool {
	gitDir := filepath.Join(dir, ".git")
	if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
		return false
	}
	_, err := os.Stat(filepath.Join(gitDir, name))
	return err == nil
}

func (execGitClient) isDetachedHead(ctx context.Context, dir string) bool {
	cmd := exec.CommandContext(ctx, "git", "symbolic-ref", "-q", "HEAD")
	cmd.Dir = dir
	return cmd.Run() != nil
}

func (execGitClient) dirtyFileCount(ctx context.Context, dir string) (int, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain", "--untracked-files=no")
	cmd.Dir = dir
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, err
	}
	trimmed := strings.TrimSpace(out.String())
	if trimmed == "" {
		return 0, nil
	}
	return len(strings.Split(trimmed, "\n")), nil
}
