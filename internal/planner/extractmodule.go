package planner

import (
	"context"
	"fmt"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// FileMove is a plain old-path/new-path file relocation, used by
// extract-module for files moving verbatim into the new package.
type FileMove struct {
	OldPath string
	NewPath string
}

// ModuleImporterRewrite is one importer whose reference to the
// extracted module must change from an intra-package form to the new
// external-package form (e.g. Rust "crate::utils" -> "new_utils",
// a relative TS import -> a package-name import). The builder emits
// these as editplan.DependencyUpdates, dispatched by the executor to
// the owning plugin's ImportSupport.
type ModuleImporterRewrite struct {
	FilePath     string
	OldReference string
	NewReference string
}

// ExtractModuleRequest describes moving a module out of an existing
// package into a new one.
type ExtractModuleRequest struct {
	ProjectRoot string

	// Moves relocates existing module files into the new package
	// unchanged.
	Moves []FileMove

	// EmptiedFiles names old module files whose content was fully
	// absorbed into the new package by other means (e.g. merged into a
	// combined entry point) and are now empty and safe to delete.
	EmptiedFiles []string

	NewManifestPath    string
	NewManifestContent string
	EntryPointPath     string
	EntryPointContent  string

	// SourceManifestPath is the manifest of the package the module is
	// being extracted out of; it gains a dependency on the new package
	// and loses any workspace-member entry pointing at a moved path.
	SourceManifestPath   string
	NewPackageName       string
	NewPackageImportPath string

	// WorkspaceManifestPath, if non-empty, is the root manifest whose
	// member list gains the new package.
	WorkspaceManifestPath string

	Importers []ModuleImporterRewrite
}

// BuildExtractModule moves the named files into a brand-new package,
// rewires the source package's manifest to depend on it, and rewrites
// every importer's reference to the moved symbols.
func (b *Builder) BuildExtractModule(ctx context.Context, req ExtractModuleRequest) (*editplan.EditPlan, error) {
	plan := newPlan("", "extract_module", map[string]string{
		"new_package_name": req.NewPackageName,
	})

	if req.NewManifestContent != "" {
		plan.Edits = append(plan.Edits, editplan.TextEdit{
			FilePath:    req.NewManifestPath,
			EditType:    editplan.EditCreate,
			NewText:     req.NewManifestContent,
			Description: fmt.Sprintf("create manifest for new package %s", req.NewPackageName),
		})
	}
	if req.EntryPointContent != "" {
		plan.Edits = append(plan.Edits, editplan.TextEdit{
			FilePath:    req.EntryPointPath,
			EditType:    editplan.EditCreate,
			NewText:     req.EntryPointContent,
			Description: "create new package entry point",
		})
	}

	for _, mv := range req.Moves {
		plan.Edits = append(plan.Edits, editplan.TextEdit{
			FilePath:    mv.OldPath,
			EditType:    editplan.EditMove,
			NewText:     mv.NewPath,
			Description: fmt.Sprintf("move %s into new package", mv.OldPath),
		})
	}

	for _, path := range req.EmptiedFiles {
		plan.Edits = append(plan.Edits, editplan.TextEdit{
			FilePath:    path,
			EditType:    editplan.EditDelete,
			Description: "remove now-empty source location",
		})
	}

	if req.SourceManifestPath != "" {
		update := editplan.ManifestUpdate{
			TargetFile:        req.SourceManifestPath,
			AddDependencyName: req.NewPackageName,
			AddDependencyPath: req.NewPackageImportPath,
			Description:       fmt.Sprintf("add %s as a dependency after extraction", req.NewPackageName),
		}
		for _, mv := range req.Moves {
			update.RemoveMembers = append(update.RemoveMembers, mv.OldPath)
		}
		plan.ManifestUpdates = append(plan.ManifestUpdates, update)
	}

	if req.WorkspaceManifestPath != "" && req.WorkspaceManifestPath != req.SourceManifestPath {
		plan.ManifestUpdates = append(plan.ManifestUpdates, editplan.ManifestUpdate{
			TargetFile:  req.WorkspaceManifestPath,
			AddMembers:  []string{req.NewManifestDir()},
			Description: fmt.Sprintf("register %s as a workspace member", req.NewPackageName),
		})
	}

	for _, imp := range req.Importers {
		plan.DependencyUpdates = append(plan.DependencyUpdates, editplan.DependencyUpdate{
			TargetFile:   imp.FilePath,
			OldReference: imp.OldReference,
			NewReference: imp.NewReference,
			Description:  fmt.Sprintf("rewrite intra-package import to external package %s", req.NewPackageName),
		})
	}

	return plan, nil
}

// NewManifestDir derives the new package's directory from its manifest
// path, for the workspace-members entry (a package's workspace-member
// entry names its directory, not its manifest file).
func (r ExtractModuleRequest) NewManifestDir() string {
	idx := lastSlash(r.NewManifestPath)
	if idx < 0 {
		return "."
	}
	return r.NewManifestPath[:idx]
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}
