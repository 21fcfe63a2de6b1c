package executor

import (
	"context"
	"fmt"

	"github.com/forgeweave/refactorcore/internal/manifest"
)

// collisionDetector hashes every tracked file under the project root before
// and after a plan application and reports any change the plan itself
// didn't account for — a concurrent external write landing in the same
// window as our own snapshot/apply, or a Create/Move destination that
// silently clobbered content the plan never looked at.
//
// This is opt-in (Config.DetectCollisions) since it costs a full tree
// walk and hash on both sides of every ApplyPlan call.
type collisionDetector struct {
	root string
}

func newCollisionDetector(root string) *collisionDetector {
	return &collisionDetector{root: root}
}

func (d *collisionDetector) before(ctx context.Context) (*manifest.Snapshot, error) {
	return manifest.Scan(ctx, d.root)
}

// after diffs pre against a fresh scan and returns a warning for every
// changed path this plan did not itself write, per state.modified.
func (d *collisionDetector) after(ctx context.Context, pre *manifest.Snapshot, modified map[string]struct{}) ([]PreflightWarning, error) {
	if pre == nil {
		return nil, nil
	}
	post, err := manifest.Scan(ctx, d.root)
	if err != nil {
		return nil, err
	}
	changes := manifest.Diff(pre, post)
	if !changes.HasChanges() {
		return nil, nil
	}

	var warnings []PreflightWarning
	report := func(code, verb, path string) {
		if _, expected := modified[path]; expected {
			return
		}
		warnings = append(warnings, PreflightWarning{
			Code:    code,
			Message: fmt.Sprintf("%s changed %s outside this plan's own edits", verb, path),
		})
	}
	for _, p := range changes.Added {
		report("UNEXPECTED_FILE_ADDED", "a concurrent process added", p)
	}
	for _, p := range changes.Modified {
		report("UNEXPECTED_FILE_MODIFIED", "a concurrent process modified", p)
	}
	for _, p := range changes.Removed {
		report("UNEXPECTED_FILE_REMOVED", "a concurrent process removed", p)
	}
	return warnings, nil
}
