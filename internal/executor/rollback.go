package executor

import (
	"context"
	"os"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// rollback restores every snapshotted path to its pre-plan state and
// returns origErr, wrapped in a RollbackPartialError if rollback itself
// hit trouble. origErr is always the error surfaced to the caller on a
// non-nil return; a clean rollback does not upgrade or replace it.
func (ex *Executor) rollback(ctx context.Context, state *execState, origErr error) error {
	ex.metrics.PlansTotal.WithLabelValues("rolled_back").Inc()
	phase := state.failedPhase
	if phase == "" {
		phase = "unknown"
	}
	ex.metrics.RollbackTotal.WithLabelValues(phase).Inc()

	var rollbackErrs []error
	_ = ex.withSpanAndTimer(ctx, "rollback", func(ctx context.Context) error {
		for rel, snap := range state.snapshots {
			if err := ex.restoreOne(rel, snap); err != nil {
				rollbackErrs = append(rollbackErrs, err)
				continue
			}
			abs, err := ex.resolver.ToAbsoluteChecked(rel)
			if err == nil {
				ex.cache.Invalidate(string(abs))
			}
		}
		return nil
	})

	if len(rollbackErrs) > 0 {
		return &editplan.RollbackPartialError{Original: origErr, RollbackErrors: rollbackErrs}
	}
	return origErr
}

func (ex *Executor) restoreOne(rel string, snap snapshot) error {
	abs, err := ex.resolver.ToAbsoluteChecked(rel)
	if err != nil {
		return err
	}

	handle := ex.locks.GetLock(abs)
	handle.Lock()
	defer handle.Unlock()

	_, statErr := os.Stat(string(abs))
	exists := statErr == nil

	switch {
	case !snap.existed && exists:
		if err := os.Remove(string(abs)); err != nil {
			return &editplan.FileIOError{Op: "rollback-delete", Path: rel, Err: err}
		}
	case snap.existed:
		if err := os.WriteFile(string(abs), []byte(snap.content), 0640); err != nil {
			return &editplan.FileIOError{Op: "rollback-restore", Path: rel, Err: err}
		}
	}
	return nil
}
