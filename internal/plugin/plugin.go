// Package plugin defines the capability-object interface a language
// adapter implements and the registry that dispatches by file
// extension. Concrete plugins live in
// sibling packages (golangplugin, rustplugin, tsplugin, pyplugin,
// javaplugin); this package only holds the contract and dispatch logic.
//
// The Plugin interface exposes optional behaviors as capability
// objects — `(T, bool)` pairs — instead of a single fat interface that
// callers would downcast with a type switch. A concrete plugin that
// doesn't support, say, workspace consolidation simply returns
// `(nil, false)` from WorkspaceSupport.
package plugin

import (
	"context"
)

// RewriteHint carries optional context the reference detector collected
// while classifying a rename, used by plugins that need to distinguish a
// crate/package-directory rename from a plain file rename.
type RewriteHint struct {
	IsDirectoryRename bool
	IsCrateRename     bool
	OldDirectory      string
	NewDirectory      string
}

// DependencyUpdate mirrors internal/editplan.DependencyUpdate's shape
// without importing that package, keeping plugin a leaf dependency of
// the editplan/executor layers rather than the reverse.
type DependencyUpdate struct {
	TargetFile   string
	OldReference string
	NewReference string
}

// ImportSupport updates a single import/reference statement in content,
// dispatched during executor Phase 5.
type ImportSupport interface {
	UpdateImportReference(ctx context.Context, path, content string, update DependencyUpdate) (string, error)
}

// WorkspaceSupport performs whole-package re-wiring that can't be
// expressed as ordinary text edits — deleting an old manifest, updating
// a module index — invoked from the executor's Phase 3.5 consolidation
// post-hook.
type WorkspaceSupport interface {
	ExecuteConsolidationPostProcessing(ctx context.Context, sourceCrateName, targetCrateName, targetModuleName string, paths []string, projectRoot string) error
}

// RefactoringSupport offers language-aware help for extract/inline
// intents beyond generic text splicing — e.g. choosing an
// insertion point after imports and before declarations.
type RefactoringSupport interface {
	InsertionPointAfterImports(content string) (line, column int)
}

// AnalysisSupport offers read-only structural queries a plugin can
// derive cheaply from its own parser, such as symbol enumeration. No
// plugin in this module implements it and nothing calls it;
// extract-constant finds occurrences with the planner's own literal
// scanner instead.
type AnalysisSupport interface {
	Occurrences(ctx context.Context, content, literal string) ([]Occurrence, error)
}

// Occurrence is one literal/symbol occurrence found by AnalysisSupport.
type Occurrence struct {
	Line, StartColumn, EndColumn int
	InsideStringOrComment        bool
}

// ReferenceDetectorCapability lets a plugin resolve symbolic
// (non-path-based) references — Rust `use` paths, Go module paths,
// Java packages — that a generic file-path-based fallback cannot see.
type ReferenceDetectorCapability interface {
	FindImportersOf(ctx context.Context, oldPath, projectRoot string, candidateFiles []string, hint *RewriteHint) ([]string, error)

	// ModulePathFor converts a project-relative filesystem path into
	// this language's symbolic reference form (a Go import path, a
	// Rust crate::-path, a Java package.Class name) so the caller can
	// translate a filesystem rename into the form FindImportersOf and
	// RewriteFileReferences expect. isDir must be supplied by the
	// caller rather than inferred by statting filePath, since the
	// planner calls this for a rename's new path before that path
	// exists on disk.
	ModulePathFor(projectRoot, filePath string, isDir bool) (string, error)
}

// ImportTargetLister is an optional capability for path-based-import
// languages (TS/JS, Python): it returns every resolved import target in
// a file without needing an oldPath/newPath pair, so the generic
// fallback detector can parse a file once and test it against many
// candidate renames, backed by the detector's (file, mtime) cache. A
// plugin satisfies this via a plain method match, not through
// Plugin.Detector() — it isn't a symbolic detector, just a cheaper way
// to reuse a parse.
type ImportTargetLister interface {
	ResolvedImportTargets(ctx context.Context, content, importerPath string) ([]string, error)
}

// Plugin is the capability-object contract every language adapter
// implements.
type Plugin interface {
	// HandledExtensions lists the lowercase, dot-prefixed extensions
	// this plugin claims (e.g. ".go").
	HandledExtensions() []string

	// Priority breaks ties when more than one plugin claims the same
	// extension; higher wins.
	Priority() int

	// Name is used as the final, lexicographic tie-breaker.
	Name() string

	// RewriteFileReferences rewrites references to oldPath inside
	// content (the importer's source), returning the new content and
	// how many references were rewritten. ok is false when this
	// plugin found nothing to rewrite — distinct from an error, which
	// signals "not my language" is never reached because dispatch
	// already matched this plugin by extension.
	RewriteFileReferences(ctx context.Context, content, oldPath, newPath, importerPath, projectRoot string, hint *RewriteHint) (newContent string, changed int, ok bool)

	ImportSupport() (ImportSupport, bool)
	WorkspaceSupport() (WorkspaceSupport, bool)
	RefactoringSupport() (RefactoringSupport, bool)
	AnalysisSupport() (AnalysisSupport, bool)
	Detector() (ReferenceDetectorCapability, bool)
}
