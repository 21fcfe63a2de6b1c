// Package transform applies a sorted sequence of TextEdits to an
// in-memory string. It is a pure, synchronous core: no I/O,
// deterministic, safe to call from the executor or from a preview/dry-run
// path.
package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// AppliedEdit records the outcome of one successfully-applied edit.
type AppliedEdit struct {
	Edit editplan.TextEdit
}

// SkippedEdit records an edit the transformer refused to apply, and why.
type SkippedEdit struct {
	Edit   editplan.TextEdit
	Reason string
}

// Statistics summarizes a transform run.
type Statistics struct {
	TotalEdits   int
	AppliedCount int
	SkippedCount int
	FullFileReplacement bool
}

// Result is the outcome of Apply.
type Result struct {
	TransformedSource string
	Applied           []AppliedEdit
	Skipped           []SkippedEdit
	Statistics        Statistics
}

// Apply splices edits into original and returns the transformed source.
// Edits that target file operations (Move/Create/Delete) carry no
// positional information and are reported in Result.Skipped — the
// executor never routes those to the transformer (see executor phase 3),
// so reaching this path is itself a caller bug.
//
// Only edits that target the file original was read from should be
// passed in; grouping by target file is the caller's responsibility.
func Apply(original string, edits []editplan.TextEdit) Result {
	hasTrailingNewline := strings.HasSuffix(original, "\n")
	lines := splitLines(original)

	sorted := make([]editplan.TextEdit, len(edits))
	copy(sorted, edits)
	sortDescending(sorted)

	result := Result{}
	result.Statistics.TotalEdits = len(edits)

	// A full-file replacement, once applied, makes every other edit's
	// coordinates meaningless against the now-replaced content, so every
	// edit sorted after it is skipped. Edits sorted ahead of it (the same,
	// maximal end_line with a later start) have already been applied by
	// the time it is reached, and it is checked against that content.
	current := lines
	fullFileApplied := false

	for i, e := range sorted {
		if e.EditType.IsFileOp() {
			result.Skipped = append(result.Skipped, SkippedEdit{Edit: e, Reason: "file-operation edit has no positional location"})
			continue
		}
		if fullFileApplied {
			result.Skipped = append(result.Skipped, SkippedEdit{Edit: e, Reason: "edit follows a full-file replacement"})
			continue
		}

		if isFullFileReplacement(e.Location, current) {
			current = splitLines(e.NewText)
			result.Applied = append(result.Applied, AppliedEdit{Edit: e})
			result.Statistics.FullFileReplacement = true
			fullFileApplied = true
			// Any edits still to process (earlier in file, later in
			// sorted-descending order) no longer apply to valid content.
			for _, rest := range sorted[i+1:] {
				result.Skipped = append(result.Skipped, SkippedEdit{Edit: rest, Reason: "edit follows a full-file replacement"})
			}
			break
		}

		next, ok, reason := applyOne(current, e)
		if !ok {
			result.Skipped = append(result.Skipped, SkippedEdit{Edit: e, Reason: reason})
			continue
		}
		current = next
		result.Applied = append(result.Applied, AppliedEdit{Edit: e})
	}

	result.TransformedSource = joinLines(current, hasTrailingNewline)
	result.Statistics.AppliedCount = len(result.Applied)
	result.Statistics.SkippedCount = len(result.Skipped)
	return result
}

// sortDescending sorts edits by (end_line, start_line, start_column)
// descending, putting the higher Priority first among edits tied on all
// three: applying later-in-file edits first means earlier-in-file
// positions are never shifted by intervening edits.
func sortDescending(edits []editplan.TextEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		a, b := edits[i].Location, edits[j].Location
		if a.EndLine != b.EndLine {
			return a.EndLine > b.EndLine
		}
		if a.StartLine != b.StartLine {
			return a.StartLine > b.StartLine
		}
		if a.StartColumn != b.StartColumn {
			return a.StartColumn > b.StartColumn
		}
		return edits[i].Priority > edits[j].Priority
	})
}

// isFullFileReplacement reports whether loc spans the entire file: start
// is (0,0), end_line is the last line, and end_column >= len(last_line)
// (an inequality, not strict equality, so an edit whose reported end
// column overshoots the actual line length still counts as full-file).
func isFullFileReplacement(loc editplan.Location, lines []string) bool {
	if loc.StartLine != 0 || loc.StartColumn != 0 {
		return false
	}
	lastIdx := len(lines) - 1
	if loc.EndLine != lastIdx {
		return false
	}
	return loc.EndColumn >= charLen(lines[lastIdx])
}

// applyOne validates and splices a single non-full-file edit.
func applyOne(lines []string, e editplan.TextEdit) ([]string, bool, string) {
	loc := e.Location
	lastIdx := len(lines) - 1

	if loc.StartLine < 0 || loc.EndLine < 0 {
		return nil, false, "negative line number"
	}
	if loc.StartLine > loc.EndLine {
		return nil, false, "start_line after end_line"
	}
	if loc.EndLine > lastIdx {
		return nil, false, fmt.Sprintf("end_line %d exceeds line count %d", loc.EndLine, len(lines))
	}
	startLineChars := charLen(lines[loc.StartLine])
	if loc.StartColumn < 0 || loc.StartColumn > startLineChars {
		return nil, false, fmt.Sprintf("start_column %d out of range for line of length %d", loc.StartColumn, startLineChars)
	}
	endLineChars := charLen(lines[loc.EndLine])
	if loc.EndColumn < 0 || loc.EndColumn > endLineChars {
		return nil, false, fmt.Sprintf("end_column %d out of range for line of length %d", loc.EndColumn, endLineChars)
	}
	if loc.StartLine == loc.EndLine && loc.StartColumn > loc.EndColumn {
		return nil, false, "start_column after end_column on same line"
	}

	prefix := sliceChars(lines[loc.StartLine], 0, loc.StartColumn)
	suffix := sliceChars(lines[loc.EndLine], loc.EndColumn, endLineChars)

	spliced := prefix + e.NewText + suffix
	spliceLines := strings.Split(spliced, "\n")

	out := make([]string, 0, len(lines)-(loc.EndLine-loc.StartLine)+len(spliceLines))
	out = append(out, lines[:loc.StartLine]...)
	out = append(out, spliceLines...)
	out = append(out, lines[loc.EndLine+1:]...)
	return out, true, ""
}

// charLen returns the character (rune) count of s: columns index
// characters, not bytes.
func charLen(s string) int {
	return len([]rune(s))
}

func sliceChars(s string, start, end int) string {
	r := []rune(s)
	if start < 0 {
		start = 0
	}
	if end > len(r) {
		end = len(r)
	}
	if start > end {
		start = end
	}
	return string(r[start:end])
}

// splitLines splits s into lines without its trailing newline sentinel:
// a file ending in "\n" has the same line count as one that doesn't, and
// the policy is reapplied on join rather than carried as an empty
// trailing element.
func splitLines(s string) []string {
	trimmed := strings.TrimSuffix(s, "\n")
	if trimmed == "" {
		return []string{""}
	}
	return strings.Split(trimmed, "\n")
}

func joinLines(lines []string, trailingNewline bool) string {
	joined := strings.Join(lines, "\n")
	if trailingNewline {
		return joined + "\n"
	}
	return joined
}
