package planner

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// BuildFromUnifiedDiff turns a unified-diff patch (the format `diff -u`
// or `git diff` produce) into an EditPlan: one Replace edit per hunk,
// spanning the hunk's original line range and replacing it with the
// hunk's new-side lines reconstructed from its +/-/context body. This
// is how an externally generated patch (from a reviewer, or another
// tool) enters the pipeline without the caller re-deriving Locations by
// hand.
func BuildFromUnifiedDiff(patch string) (*editplan.EditPlan, error) {
	fileDiffs, err := diff.NewMultiFileDiffReader(strings.NewReader(patch)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse unified diff: %w", err)
	}

	plan := newPlan("", "apply_patch", nil)
	for _, fd := range fileDiffs {
		targetPath := strings.TrimPrefix(fd.NewName, "b/")
		if fd.NewName == "/dev/null" {
			targetPath = strings.TrimPrefix(fd.OrigName, "a/")
			plan.Edits = append(plan.Edits, editplan.TextEdit{
				EditType:    editplan.EditDelete,
				FilePath:    targetPath,
				Description: "deleted by patch",
			})
			continue
		}
		if fd.OrigName == "/dev/null" {
			plan.Edits = append(plan.Edits, editplan.TextEdit{
				EditType:    editplan.EditCreate,
				FilePath:    targetPath,
				NewText:     newFileContentFromHunks(fd.Hunks),
				Description: "created by patch",
			})
			continue
		}

		for _, hunk := range fd.Hunks {
			edit, err := hunkToReplaceEdit(targetPath, hunk)
			if err != nil {
				warn(plan, "skipping unparseable hunk in %s: %v", targetPath, err)
				continue
			}
			plan.Edits = append(plan.Edits, edit)
		}
	}
	return plan, nil
}

// newFileContentFromHunks reconstructs a brand-new file's content from
// every added line across its hunks (there is no original side to
// splice against).
func newFileContentFromHunks(hunks []*diff.Hunk) string {
	var lines []string
	for _, h := range hunks {
		for _, line := range strings.Split(string(h.Body), "\n") {
			if strings.HasPrefix(line, "+") {
				lines = append(lines, strings.TrimPrefix(line, "+"))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// hunkToReplaceEdit converts one hunk into a full-line-range Replace
// edit. The hunk body mixes context (" "), removed ("-") and added
// ("+") lines; keeping context and added lines for the new side and
// dropping removed lines produces the new content, while the
// context+removed lines reconstruct the exact original lines the
// Location must span — needed because go-diff's Hunk only carries a
// start line and a line count, not the original content's line lengths
// that a character-column Location requires.
func hunkToReplaceEdit(path string, h *diff.Hunk) (editplan.TextEdit, error) {
	var origLines, newLines []string
	for _, line := range strings.Split(string(h.Body), "\n") {
		switch {
		case strings.HasPrefix(line, "+"):
			newLines = append(newLines, strings.TrimPrefix(line, "+"))
		case strings.HasPrefix(line, "-"):
			origLines = append(origLines, strings.TrimPrefix(line, "-"))
		case strings.HasPrefix(line, " "):
			text := strings.TrimPrefix(line, " ")
			origLines = append(origLines, text)
			newLines = append(newLines, text)
		}
	}
	if len(origLines) == 0 {
		return editplan.TextEdit{}, fmt.Errorf("hunk has no original lines to anchor a Location to")
	}

	startLine := int(h.OrigStartLine) - 1
	endLine := startLine + len(origLines) - 1

	return editplan.TextEdit{
		EditType: editplan.EditReplace,
		FilePath: path,
		Location: editplan.Location{
			StartLine: startLine, StartColumn: 0,
			EndLine: endLine, EndColumn: len([]rune(origLines[len(origLines)-1])),
		},
		NewText:     strings.Join(newLines, "\n"),
		Description: "patch hunk",
	}, nil
}
