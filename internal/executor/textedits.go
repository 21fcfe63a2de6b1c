package executor

import (
	"context"
	"os"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/transform"
)

// phase4TextEdits groups positional edits by file_path, transforms each
// group against its snapshot, and writes the result.
func (ex *Executor) phase4TextEdits(ctx context.Context, state *execState) error {
	return ex.withSpanAndTimer(ctx, "phase4_text_edits", func(ctx context.Context) error {
		groups := make(map[string][]editplan.TextEdit)
		var order []string
		for _, e := range state.plan.Edits {
			if e.EditType.IsFileOp() {
				continue
			}
			target := e.TargetPath(state.plan.SourceFile)
			if _, ok := groups[target]; !ok {
				order = append(order, target)
			}
			groups[target] = append(groups[target], e)
		}

		for _, target := range order {
			if err := ex.applyTextEditGroup(target, groups[target], state); err != nil {
				return err
			}
		}
		return nil
	})
}

func (ex *Executor) applyTextEditGroup(target string, edits []editplan.TextEdit, state *execState) error {
	abs, err := ex.resolver.ToAbsoluteChecked(target)
	if err != nil {
		return err
	}

	handle := ex.locks.GetLock(abs)
	handle.Lock()
	defer handle.Unlock()

	oldPath := state.renames.resolveOldPath(target)
	snap, ok := state.snapshots[oldPath]
	if !ok {
		return &editplan.LocationError{Path: target, Reason: "no snapshot taken for this file"}
	}

	result := transform.Apply(snap.content, edits)
	if len(result.Skipped) > 0 {
		return &editplan.SkippedEditsError{Skipped: toEditplanSkipped(result.Skipped)}
	}

	if err := os.WriteFile(string(abs), []byte(result.TransformedSource), 0640); err != nil {
		return &editplan.FileIOError{Op: "write", Path: target, Err: err}
	}
	state.modified[target] = struct{}{}
	return nil
}

func toEditplanSkipped(skipped []transform.SkippedEdit) []editplan.SkippedEdit {
	out := make([]editplan.SkippedEdit, len(skipped))
	for i, s := range skipped {
		out[i] = editplan.SkippedEdit{Edit: s.Edit, Reason: s.Reason}
	}
	return out
}
