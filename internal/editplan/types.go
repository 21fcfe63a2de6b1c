// Package editplan defines the data model shared by the planner and the
// executor: TextEdit, DependencyUpdate, EditPlan and EditPlanResult.
//
// Field names are normative — they are serialized as-is when a plan is
// logged or persisted by a caller, so renaming a field here is a breaking
// change for anything that consumes plans as data.
package editplan

import (
	"strconv"

	"github.com/go-playground/validator/v10"
)

// EditType enumerates the kinds of change a TextEdit can carry.
type EditType string

const (
	EditInsert       EditType = "Insert"
	EditReplace      EditType = "Replace"
	EditDelete       EditType = "Delete"
	EditMove         EditType = "Move"
	EditCreate       EditType = "Create"
	EditUpdateImport EditType = "UpdateImport"
)

// fileOpTypes do not carry positional information; Insert/Replace/Delete(text)/UpdateImport do.
func (t EditType) isFileOp() bool {
	return t == EditMove || t == EditCreate || t == EditDelete
}

// IsFileOp reports whether this edit type is a whole-file operation
// (Move/Create/Delete) rather than a positional text splice.
func (t EditType) IsFileOp() bool { return t.isFileOp() }

// Location is a zero-based range from (StartLine, StartColumn) up to but
// not including (EndLine, EndColumn); columns index characters (not
// bytes) within the given line.
type Location struct {
	StartLine   int `json:"start_line" validate:"gte=0"`
	StartColumn int `json:"start_column" validate:"gte=0"`
	EndLine     int `json:"end_line" validate:"gte=0"`
	EndColumn   int `json:"end_column" validate:"gte=0"`
}

// TextEdit is a single fine-grained change within an EditPlan.
//
// For Move, FilePath is the old path and NewText is the new path. For
// Create, NewText is the initial file content. FilePath is optional for
// every other edit type; when absent, the edit targets the owning
// EditPlan's SourceFile.
type TextEdit struct {
	FilePath     string           `json:"file_path,omitempty"`
	EditType     EditType         `json:"edit_type" validate:"required,oneof=Insert Replace Delete Move Create UpdateImport"`
	Location     Location         `json:"location"`
	OriginalText string           `json:"original_text,omitempty"`
	NewText      string           `json:"new_text,omitempty"`
	Priority     int              `json:"priority"`
	Description  string           `json:"description,omitempty"`
}

// TargetPath resolves the file this edit applies to, defaulting to
// sourceFile when FilePath is not set.
func (e TextEdit) TargetPath(sourceFile string) string {
	if e.FilePath != "" {
		return e.FilePath
	}
	return sourceFile
}

// DependencyUpdate is a semantic request to change a reference in
// TargetFile from OldReference to NewReference. The executor dispatches
// this to the owning language plugin's import updater rather than
// applying it as a positional TextEdit.
type DependencyUpdate struct {
	TargetFile   string `json:"target_file" validate:"required"`
	OldReference string `json:"old_reference" validate:"required"`
	NewReference string `json:"new_reference" validate:"required"`
	Description  string `json:"description,omitempty"`
}

// ManifestUpdate requests a change to a workspace or package manifest
// file (Cargo.toml/package.json/pyproject.toml), dispatched by the
// executor to the manifest registry rather than applied as a positional
// TextEdit. Field names mirror
// internal/manifest.MemberUpdate's shape without importing that
// package, for the same leaf-dependency reason plugin.DependencyUpdate
// mirrors this package's DependencyUpdate.
type ManifestUpdate struct {
	TargetFile            string   `json:"target_file" validate:"required"`
	AddMembers            []string `json:"add_members,omitempty"`
	RemoveMembers         []string `json:"remove_members,omitempty"`
	AddDependencyName     string   `json:"add_dependency_name,omitempty"`
	AddDependencyPath     string   `json:"add_dependency_path,omitempty"`
	RemoveDependencyName  string   `json:"remove_dependency_name,omitempty"`
	Description           string   `json:"description,omitempty"`
}

// Validation is an advisory post-apply check named in an EditPlan for a
// caller (or the CLI) to act on; the executor neither runs these nor
// copies them into the EditPlanResult.
type Validation struct {
	Kind        string `json:"kind"`
	Description string `json:"description,omitempty"`
}

// Metadata carries the intent name, arguments and bookkeeping for a plan.
type Metadata struct {
	PlanID              string            `json:"plan_id,omitempty"`
	TraceID             string            `json:"trace_id,omitempty"`
	Intent              string            `json:"intent"`
	Arguments           map[string]string `json:"arguments,omitempty"`
	CreatedAtUnixMilli  int64             `json:"created_at_unix_milli,omitempty"`
	ComplexityEstimate  int               `json:"complexity_estimate,omitempty"`
	ImpactAreas         []string          `json:"impact_areas,omitempty"`
	ConsolidationHint   *ConsolidationHint `json:"consolidation_hint,omitempty"`
	Warnings            []string          `json:"warnings,omitempty"`
}

// ConsolidationHint tells the executor to invoke a language plugin's
// workspace consolidation hook after the file-operations phase.
type ConsolidationHint struct {
	SourcePackageName string   `json:"source_package_name"`
	TargetPackageName string   `json:"target_package_name"`
	TargetModuleName  string   `json:"target_module_name"`
	Paths             []string `json:"paths"`
}

// EditPlan is the ordered, language-neutral description of a structural
// change, produced by the planner and consumed by the executor.
type EditPlan struct {
	SourceFile        string             `json:"source_file,omitempty"`
	Edits             []TextEdit         `json:"edits"`
	DependencyUpdates []DependencyUpdate `json:"dependency_updates,omitempty"`
	ManifestUpdates   []ManifestUpdate   `json:"manifest_updates,omitempty"`
	Validations       []Validation       `json:"validations,omitempty"`
	Metadata          Metadata           `json:"metadata"`
}

// EditPlanResult is what the executor returns for a completed (or failed
// and rolled back) plan application.
type EditPlanResult struct {
	Success       bool     `json:"success"`
	ModifiedFiles []string `json:"modified_files,omitempty"`
	Errors        []string `json:"errors,omitempty"`
	Metadata      Metadata `json:"metadata"`
}

var validate = validator.New()

// Validate checks the structural invariants that can be verified without
// reading any file: every TextEdit has a recognized EditType, every
// DependencyUpdate names a target file, and location fields are
// non-negative; Priority may be any integer. It does not check that locations fit inside any
// particular snapshot — that is the Transformer's job, since it requires
// the file content.
func (p *EditPlan) Validate() error {
	if err := validate.Struct(p); err != nil {
		return err
	}
	for i, e := range p.Edits {
		if err := validate.Struct(e); err != nil {
			return wrapIndexErr("edits", i, err)
		}
	}
	for i, d := range p.DependencyUpdates {
		if err := validate.Struct(d); err != nil {
			return wrapIndexErr("dependency_updates", i, err)
		}
	}
	for i, m := range p.ManifestUpdates {
		if err := validate.Struct(m); err != nil {
			return wrapIndexErr("manifest_updates", i, err)
		}
	}
	return nil
}

func wrapIndexErr(field string, idx int, err error) error {
	return &FieldError{Field: field, Index: idx, Err: err}
}

// FieldError names the offending slice element of an EditPlan that
// failed validation.
type FieldError struct {
	Field string
	Index int
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + "[" + strconv.Itoa(e.Index) + "]: " + e.Err.Error()
}

func (e *FieldError) Unwrap() error { return e.Err }
