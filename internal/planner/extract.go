package planner

import (
	"context"
	"fmt"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// ExtractRequest carries what extract-function and extract-variable
// share: the caller has already decided what to extract and what the
// new declaration reads, so the builder's job is purely mechanical —
// place the replacement and the declaration at valid, correctly ordered
// positions.
type ExtractRequest struct {
	ProjectRoot string
	FilePath    string
	Content     string

	// Selection is the range being replaced by a reference to the new
	// declaration (a call expression, a variable/constant name).
	Selection editplan.Location
	// ReplacementText is what Selection becomes.
	ReplacementText string
	// Declaration is the full text of the new function/let-binding to
	// insert at the language's import-aware insertion point.
	Declaration string
}

// BuildExtractFunction implements the extract-function intent.
func (b *Builder) BuildExtractFunction(ctx context.Context, req ExtractRequest) (*editplan.EditPlan, error) {
	return b.buildExtractSingle(req, "extract_function")
}

// BuildExtractVariable implements the extract-variable intent.
func (b *Builder) BuildExtractVariable(ctx context.Context, req ExtractRequest) (*editplan.EditPlan, error) {
	return b.buildExtractSingle(req, "extract_variable")
}

func (b *Builder) buildExtractSingle(req ExtractRequest, intent string) (*editplan.EditPlan, error) {
	plan := newPlan(req.FilePath, intent, map[string]string{"file_path": req.FilePath})

	plan.Edits = append(plan.Edits, editplan.TextEdit{
		EditType:     editplan.EditReplace,
		Location:     req.Selection,
		OriginalText: sliceLocation(req.Content, req.Selection),
		NewText:      req.ReplacementText,
		Priority:     1,
		Description:  "replace extracted selection with reference to new declaration",
	})

	line, col := b.insertionPoint(req.FilePath, req.Content)
	plan.Edits = append(plan.Edits, editplan.TextEdit{
		EditType:    editplan.EditInsert,
		Location:    editplan.Location{StartLine: line, StartColumn: col, EndLine: line, EndColumn: col},
		NewText:     req.Declaration,
		Priority:    0,
		Description: "insert extracted declaration",
	})

	return plan, nil
}

// ExtractConstantRequest additionally names the literal value being
// promoted to a constant, so every occurrence in the file — not just
// the one the caller selected — is replaced.
type ExtractConstantRequest struct {
	ExtractRequest
	LiteralValue string
}

// BuildExtractConstant implements extract-constant: it replaces every
// code-valid occurrence of LiteralValue (skipping occurrences inside
// strings or comments) and inserts the constant declaration once.
func (b *Builder) BuildExtractConstant(ctx context.Context, req ExtractConstantRequest) (*editplan.EditPlan, error) {
	plan := newPlan(req.FilePath, "extract_constant", map[string]string{
		"file_path":     req.FilePath,
		"literal_value": req.LiteralValue,
	})

	occurrences := findLiteralOccurrences(req.Content, req.LiteralValue, extOf(req.FilePath))
	if len(occurrences) == 0 {
		// The selection itself is always a valid code location by
		// construction (the caller chose it from parsed source), even
		// if the scanner's line-based heuristic missed it.
		occurrences = []editplan.Location{req.Selection}
	}
	for _, loc := range occurrences {
		plan.Edits = append(plan.Edits, editplan.TextEdit{
			EditType:     editplan.EditReplace,
			Location:     loc,
			OriginalText: req.LiteralValue,
			NewText:      req.ReplacementText,
			Priority:     1,
			Description:  fmt.Sprintf("replace literal %q with %s", req.LiteralValue, req.ReplacementText),
		})
	}

	line, col := b.insertionPoint(req.FilePath, req.Content)
	plan.Edits = append(plan.Edits, editplan.TextEdit{
		EditType:    editplan.EditInsert,
		Location:    editplan.Location{StartLine: line, StartColumn: col, EndLine: line, EndColumn: col},
		NewText:     req.Declaration,
		Priority:    0,
		Description: "insert extracted constant declaration",
	})

	return plan, nil
}

// InlineVariableRequest names the declaration being removed, its value,
// and every call site that value is substituted into.
type InlineVariableRequest struct {
	ProjectRoot         string
	FilePath            string
	Content             string
	DeclarationLocation editplan.Location
	Value               string
	Occurrences         []editplan.Location
}

// BuildInlineVariable implements the inline-variable intent: every
// occurrence of the variable is replaced by its value and the
// declaration itself is deleted.
func (b *Builder) BuildInlineVariable(ctx context.Context, req InlineVariableRequest) (*editplan.EditPlan, error) {
	plan := newPlan(req.FilePath, "inline_variable", map[string]string{"file_path": req.FilePath})

	for _, loc := range req.Occurrences {
		plan.Edits = append(plan.Edits, editplan.TextEdit{
			EditType:    editplan.EditReplace,
			Location:    loc,
			NewText:     req.Value,
			Priority:    1,
			Description: "inline variable reference",
		})
	}

	plan.Edits = append(plan.Edits, editplan.TextEdit{
		EditType:     editplan.EditDelete,
		Location:     req.DeclarationLocation,
		OriginalText: sliceLocation(req.Content, req.DeclarationLocation),
		Priority:     0,
		Description:  "remove now-inlined declaration",
	})

	return plan, nil
}

// insertionPoint asks the file's plugin for a language-aware insertion
// point — after imports, before any function, type, or impl block —
// falling back to the top of the file when the plugin offers no
// RefactoringSupport.
func (b *Builder) insertionPoint(relPath, content string) (int, int) {
	p, ok := b.pluginFor(relPath)
	if !ok {
		return 0, 0
	}
	support, ok := p.RefactoringSupport()
	if !ok {
		return 0, 0
	}
	return support.InsertionPointAfterImports(content)
}

// sliceLocation extracts the text a Location covers, for the
// OriginalText audit field on Replace/Delete edits.
func sliceLocation(content string, loc editplan.Location) string {
	lines := splitLinesKeepAll(content)
	if loc.StartLine < 0 || loc.StartLine >= len(lines) || loc.EndLine < 0 || loc.EndLine >= len(lines) {
		return ""
	}
	if loc.StartLine == loc.EndLine {
		r := []rune(lines[loc.StartLine])
		return string(sliceRunes(r, loc.StartColumn, loc.EndColumn))
	}
	var out []rune
	first := []rune(lines[loc.StartLine])
	out = append(out, sliceRunes(first, loc.StartColumn, len(first))...)
	for l := loc.StartLine + 1; l < loc.EndLine; l++ {
		out = append(out, '\n')
		out = append(out, []rune(lines[l])...)
	}
	last := []rune(lines[loc.EndLine])
	out = append(out, '\n')
	out = append(out, sliceRunes(last, 0, loc.EndColumn)...)
	return string(out)
}

func sliceRunes(r []rune, start, end int) []rune {
	if start < 0 {
		start = 0
	}
	if end > len(r) {
		end = len(r)
	}
	if start > end {
		start = end
	}
	return r[start:end]
}

func splitLinesKeepAll(content string) []string {
	lines := []string{}
	start := 0
	for i, c := range content {
		if c == '\n' {
			lines = append(lines, content[start:i])
			start = i + 1
		}
	}
	lines = append(lines, content[start:])
	return lines
}
