package planner

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// FindReplaceMatch is one match site a find-and-replace intent already
// located — the builder does not itself search; scope resolution and
// match-finding sit with the caller by design.
type FindReplaceMatch struct {
	FilePath        string
	Location        editplan.Location
	OriginalText    string
	ReplacementText string
}

// FindReplaceRequest is a set of matches across one or more files.
type FindReplaceRequest struct {
	ProjectRoot string
	Matches     []FindReplaceMatch
}

// BuildFindReplace emits one Replace edit per match, with a non-fatal
// warning when a replacement looks like it names a path segment inside a
// code file — find-replace only touches the exact text span matched,
// never resolves or rewrites references, so a path-shaped replacement is
// flagged rather than silently accepted.
func (b *Builder) BuildFindReplace(ctx context.Context, req FindReplaceRequest) (*editplan.EditPlan, error) {
	plan := newPlan("", "find_replace", nil)

	for _, m := range req.Matches {
		plan.Edits = append(plan.Edits, editplan.TextEdit{
			FilePath:     m.FilePath,
			EditType:     editplan.EditReplace,
			Location:     m.Location,
			OriginalText: m.OriginalText,
			NewText:      m.ReplacementText,
			Description:  fmt.Sprintf("replace %q with %q", m.OriginalText, m.ReplacementText),
		})

		if looksLikePathSegment(m.ReplacementText) {
			if _, ok := b.pluginFor(m.FilePath); ok {
				warn(plan, "replacement %q in %s looks like a path segment; find-replace does not rewrite references to it", m.ReplacementText, m.FilePath)
			}
		}
	}

	return plan, nil
}

// looksLikePathSegment is a cheap heuristic: a path separator, or a
// dotted relative-import prefix, suggests the text names a location in
// the tree rather than an identifier or literal.
func looksLikePathSegment(s string) bool {
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	return strings.HasPrefix(s, "./") || strings.HasPrefix(s, "../")
}
