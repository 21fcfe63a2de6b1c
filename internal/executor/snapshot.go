package executor

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// snapshot is the pre-plan content captured for one path. existed is
// false for a path that didn't exist yet when the plan was applied,
// kept as its own bool rather than inferred from an empty content
// string so a genuinely empty file and a missing one stay distinguishable
// on rollback.
type snapshot struct {
	existed bool
	content string
}

// renameMaps translates a (possibly post-move) path referenced by a
// TextEdit or dependency/manifest update back to the pre-move path its
// snapshot was taken under.
type renameMaps struct {
	// direct maps a Move edit's new path to its old path exactly.
	direct map[string]string
	// directories maps a directory Move's new prefix to its old prefix;
	// every Move edit contributes an entry here in addition to direct,
	// since a TextEdit carries no is-directory flag and a directory
	// move and a single-file move are otherwise indistinguishable at
	// this layer — an exact match against direct always wins, so a
	// spurious directory-prefix entry for a file move is harmless.
	directories []dirRename
}

type dirRename struct {
	oldDir, newDir string
}

// resolveOldPath translates path (as it appears in a TextEdit.FilePath
// or DependencyUpdate.TargetFile) back to the location its snapshot was
// captured under: an exact Move match first, then a directory-prefix
// substitution for paths nested under a moved directory.
func (m renameMaps) resolveOldPath(path string) string {
	if old, ok := m.direct[path]; ok {
		return old
	}
	for _, dr := range m.directories {
		if path == dr.newDir || strings.HasPrefix(path, dr.newDir+"/") {
			return dr.oldDir + strings.TrimPrefix(path, dr.newDir)
		}
	}
	return path
}

// phase1AffectedPaths builds the affected path set and rename maps. It
// never touches disk; Phase 2 does the I/O.
func (ex *Executor) phase1AffectedPaths(ctx context.Context, state *execState) error {
	return ex.withSpanAndTimer(ctx, "phase1_affected_paths", func(ctx context.Context) error {
		renames := renameMaps{direct: make(map[string]string)}
		for _, e := range state.plan.Edits {
			if e.EditType == editplan.EditMove {
				renames.direct[e.NewText] = e.FilePath
				renames.directories = append(renames.directories, dirRename{oldDir: e.FilePath, newDir: e.NewText})
			}
		}

		seen := make(map[string]struct{})
		var affected []string
		add := func(rel string) {
			if rel == "" {
				return
			}
			old := renames.resolveOldPath(rel)
			if _, ok := seen[old]; ok {
				return
			}
			seen[old] = struct{}{}
			affected = append(affected, old)
		}

		add(state.plan.SourceFile)
		for _, e := range state.plan.Edits {
			if e.EditType.IsFileOp() {
				continue
			}
			add(e.TargetPath(state.plan.SourceFile))
		}
		for _, du := range state.plan.DependencyUpdates {
			add(du.TargetFile)
		}
		for _, mu := range state.plan.ManifestUpdates {
			add(mu.TargetFile)
		}

		state.renames = renames
		state.affected = affected
		return nil
	})
}

// fadviseDontNeed is implemented per-OS in fadvise_linux.go /
// fadvise_other.go; on non-Linux it is a no-op.

// snapshotRetryDelay is the brief pause before retrying an empty read.
const snapshotRetryDelay = 100 * time.Millisecond

// phase2Snapshot reads every affected path under a read lock, recording
// an empty-marker snapshot for paths that don't exist.
func (ex *Executor) phase2Snapshot(ctx context.Context, state *execState) error {
	return ex.withSpanAndTimer(ctx, "phase2_snapshot", func(ctx context.Context) error {
		snapshots := make(map[string]snapshot, len(state.affected))
		for _, rel := range state.affected {
			abs, err := ex.resolver.ToAbsoluteChecked(rel)
			if err != nil {
				return err
			}

			handle := ex.locks.GetLock(abs)
			handle.RLock()
			content, existed, err := ex.readSnapshot(string(abs))
			handle.RUnlock()
			if err != nil {
				return &editplan.FileIOError{Op: "snapshot", Path: rel, Err: err}
			}

			snapshots[rel] = snapshot{existed: existed, content: content}
		}
		state.snapshots = snapshots
		return nil
	})
}

// readSnapshot drops the page cache for path before reading it, so a
// file an external process just wrote to can't hand back a stale cached
// page, and retries once after a short delay if the first read comes
// back unexpectedly empty.
func (ex *Executor) readSnapshot(path string) (content string, existed bool, err error) {
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return "", false, nil
		}
		return "", false, statErr
	}

	data, err := dropCacheAndRead(path)
	if err != nil {
		return "", true, err
	}

	if len(data) == 0 && info.Size() > 0 {
		time.Sleep(snapshotRetryDelay)
		retry, retryErr := dropCacheAndRead(path)
		if retryErr == nil && len(retry) > 0 {
			data = retry
		}
		// Still empty: fall through with what we have and let the
		// executor's own validation surface anything genuinely wrong.
	}

	return string(data), true, nil
}

// dropCacheAndRead opens path, asks the OS to evict any cached pages
// for it (fadvise DONTNEED on Linux), and only then reads — in that
// order, so the read itself is forced to go to disk instead of handing
// back whatever the page cache already held.
func dropCacheAndRead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fadviseDontNeed(f)

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return data, nil
}
