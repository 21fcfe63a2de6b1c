// Package planner implements the Edit Plan Builder: given a high-level
// intent (rename, extract, find-replace, extract module), it produces an
// editplan.EditPlan the executor can apply atomically. Each intent
// family lives in its own file — rename.go, extract.go, findreplace.go,
// extractmodule.go — sharing the Builder type and the full-file-edit/
// insertion helpers defined here.
package planner

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/manifest"
	"github.com/forgeweave/refactorcore/internal/plugin"
	"github.com/forgeweave/refactorcore/internal/refdetect"
)

// Builder produces EditPlans, dispatching to whichever language plugin
// or manifest adapter a given file needs.
type Builder struct {
	plugins   *plugin.Registry
	manifests *manifest.Registry
	detector  *refdetect.Detector
}

// New constructs a Builder over the given capability registries and
// reference detector.
func New(plugins *plugin.Registry, manifests *manifest.Registry, detector *refdetect.Detector) *Builder {
	return &Builder{plugins: plugins, manifests: manifests, detector: detector}
}

// newPlan starts an EditPlan stamped with the intent name and its
// arguments, the bookkeeping every BuildXxx method needs before it
// starts appending edits.
func newPlan(sourceFile, intent string, args map[string]string) *editplan.EditPlan {
	return &editplan.EditPlan{
		SourceFile: sourceFile,
		Metadata: editplan.Metadata{
			PlanID:    uuid.NewString(),
			Intent:    intent,
			Arguments: args,
		},
	}
}

// warn appends a non-fatal diagnostic to the plan, used where a single
// affected file failing to rewrite shouldn't abort the whole intent —
// a replacement that looks like a path segment, or an importer this
// builder couldn't parse.
func warn(plan *editplan.EditPlan, format string, args ...any) {
	plan.Metadata.Warnings = append(plan.Metadata.Warnings, fmt.Sprintf(format, args...))
}

// fullFileLocation returns the Location spanning all of content, the
// shape transform.Apply recognizes as a full-file replacement — used
// whenever a plugin hands back whole-file-rewritten content rather than
// a list of positional edits.
func fullFileLocation(content string) editplan.Location {
	lines := strings.Split(content, "\n")
	last := len(lines) - 1
	return editplan.Location{
		StartLine:   0,
		StartColumn: 0,
		EndLine:     last,
		EndColumn:   len([]rune(lines[last])),
	}
}

// pluginFor looks up the plugin registered for a project-relative
// path's extension.
func (b *Builder) pluginFor(relPath string) (plugin.Plugin, bool) {
	return b.plugins.FindByExtension(extOf(relPath))
}

func extOf(relPath string) string {
	idx := strings.LastIndexByte(relPath, '.')
	if idx < 0 {
		return ""
	}
	return relPath[idx:]
}
