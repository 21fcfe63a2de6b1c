package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/manifest"
	"github.com/forgeweave/refactorcore/internal/plugin"
)

// phase5DependencyUpdates dispatches each DependencyUpdate to the plugin
// owning its target file's extension and each ManifestUpdate to the
// manifest adapter for its basename. Both are "dependency-update" work
// (manifest edits, cross-file import fixups), so they run under the same
// phase name and span.
func (ex *Executor) phase5DependencyUpdates(ctx context.Context, state *execState) error {
	return ex.withSpanAndTimer(ctx, "phase5_dependency_updates", func(ctx context.Context) error {
		for _, du := range state.plan.DependencyUpdates {
			if err := ex.applyDependencyUpdate(ctx, du, state); err != nil {
				return err
			}
		}
		for _, mu := range state.plan.ManifestUpdates {
			if err := ex.applyManifestUpdate(ctx, mu, state); err != nil {
				return err
			}
		}
		return nil
	})
}

func (ex *Executor) applyManifestUpdate(ctx context.Context, mu editplan.ManifestUpdate, state *execState) error {
	abs, err := ex.resolver.ToAbsoluteChecked(mu.TargetFile)
	if err != nil {
		return err
	}

	handle := ex.locks.GetLock(abs)
	handle.Lock()
	defer handle.Unlock()

	support, ok := ex.manifests.ForFileName(filepath.Base(mu.TargetFile))
	if !ok {
		return &editplan.FileIOError{Op: "manifest-update", Path: mu.TargetFile, Err: fmt.Errorf("no manifest adapter registered for %s", filepath.Base(mu.TargetFile))}
	}

	oldPath := state.renames.resolveOldPath(mu.TargetFile)
	snap, ok := state.snapshots[oldPath]
	if !ok {
		return &editplan.LocationError{Path: mu.TargetFile, Reason: "no snapshot taken for this file"}
	}

	newContent, err := support.ApplyMemberUpdate(ctx, []byte(snap.content), toManifestUpdate(mu))
	if err != nil {
		return &editplan.FileIOError{Op: "manifest-update", Path: mu.TargetFile, Err: err}
	}

	if err := os.WriteFile(string(abs), newContent, 0640); err != nil {
		return &editplan.FileIOError{Op: "write", Path: mu.TargetFile, Err: err}
	}
	state.modified[mu.TargetFile] = struct{}{}
	return nil
}

func toManifestUpdate(mu editplan.ManifestUpdate) manifest.MemberUpdate {
	return manifest.MemberUpdate{
		AddMembers:           mu.AddMembers,
		RemoveMembers:        mu.RemoveMembers,
		AddDependencyName:    mu.AddDependencyName,
		AddDependencyPath:    mu.AddDependencyPath,
		RemoveDependencyName: mu.RemoveDependencyName,
	}
}

func (ex *Executor) applyDependencyUpdate(ctx context.Context, du editplan.DependencyUpdate, state *execState) error {
	abs, err := ex.resolver.ToAbsoluteChecked(du.TargetFile)
	if err != nil {
		return err
	}

	handle := ex.locks.GetLock(abs)
	handle.Lock()
	defer handle.Unlock()

	p, ok := ex.plugins.FindByExtension(filepath.Ext(du.TargetFile))
	if !ok {
		return &editplan.FileIOError{Op: "dependency-update", Path: du.TargetFile, Err: fmt.Errorf("no plugin registered for %s", du.TargetFile)}
	}
	support, ok := p.ImportSupport()
	if !ok {
		return &editplan.FileIOError{Op: "dependency-update", Path: du.TargetFile, Err: fmt.Errorf("plugin %s has no import support", p.Name())}
	}

	oldPath := state.renames.resolveOldPath(du.TargetFile)
	snap, ok := state.snapshots[oldPath]
	if !ok {
		return &editplan.LocationError{Path: du.TargetFile, Reason: "no snapshot taken for this file"}
	}

	start := time.Now()
	newContent, err := support.UpdateImportReference(ctx, du.TargetFile, snap.content, toPluginUpdate(du))
	ex.metrics.ObservePlugin(p.Name(), time.Since(start), err)
	if err != nil {
		return &editplan.FileIOError{Op: "dependency-update", Path: du.TargetFile, Err: err}
	}

	if err := os.WriteFile(string(abs), []byte(newContent), 0640); err != nil {
		return &editplan.FileIOError{Op: "write", Path: du.TargetFile, Err: err}
	}
	state.modified[du.TargetFile] = struct{}{}
	return nil
}

func toPluginUpdate(du editplan.DependencyUpdate) plugin.DependencyUpdate {
	return plugin.DependencyUpdate{
		TargetFile:   du.TargetFile,
		OldReference: du.OldReference,
		NewReference: du.NewReference,
	}
}
