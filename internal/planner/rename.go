package planner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/manifest"
	"github.com/forgeweave/refactorcore/internal/plugin"
	"github.com/forgeweave/refactorcore/internal/refdetect"
)

// RenameRequest describes a file or directory rename intent. OldPath
// and NewPath are project-relative filesystem paths.
type RenameRequest struct {
	ProjectRoot string
	OldPath     string
	NewPath     string

	// ConsolidateInto names the crate/package this rename should be
	// treated as a merge into, when renaming isn't a plain move but a
	// consolidation of one crate/package into another.
	ConsolidateInto string
}

// BuildRename detects importers, rewrites their references, moves the
// path itself, updates workspace manifest membership for a directory
// rename, and embeds a consolidation hint when requested.
func (b *Builder) BuildRename(ctx context.Context, req RenameRequest) (*editplan.EditPlan, error) {
	plan := newPlan(req.OldPath, "rename", map[string]string{
		"old_path": req.OldPath,
		"new_path": req.NewPath,
	})

	kind := refdetect.ClassifyRename(req.ProjectRoot, req.OldPath)
	hint := &plugin.RewriteHint{
		IsDirectoryRename: kind != refdetect.SingleFileRename,
		IsCrateRename:     kind == refdetect.CrateDirectoryRename,
		OldDirectory:      req.OldPath,
		NewDirectory:      req.NewPath,
	}

	importers, err := b.detector.FindImporters(ctx, req.ProjectRoot, req.OldPath, req.NewPath)
	if err != nil {
		return nil, fmt.Errorf("planner: detecting importers of %s: %w", req.OldPath, err)
	}

	for _, importer := range importers {
		edit, err := b.rewriteImporter(ctx, req, kind, hint, importer)
		if err != nil {
			warn(plan, "skipped rewriting %s: %v", importer, err)
			continue
		}
		if edit != nil {
			plan.Edits = append(plan.Edits, *edit)
		}
	}

	plan.Edits = append(plan.Edits, editplan.TextEdit{
		FilePath:    req.OldPath,
		EditType:    editplan.EditMove,
		NewText:     req.NewPath,
		Description: fmt.Sprintf("move %s to %s", req.OldPath, req.NewPath),
	})

	if kind != refdetect.SingleFileRename {
		if name, _, ok := b.findWorkspaceManifest(req.ProjectRoot); ok {
			plan.ManifestUpdates = append(plan.ManifestUpdates, editplan.ManifestUpdate{
				TargetFile:    name,
				RemoveMembers: []string{req.OldPath},
				AddMembers:    []string{req.NewPath},
				Description:   fmt.Sprintf("update workspace members for %s -> %s", req.OldPath, req.NewPath),
			})
		}
	}

	if req.ConsolidateInto != "" {
		plan.Metadata.ConsolidationHint = &editplan.ConsolidationHint{
			SourcePackageName: filepath.Base(req.OldPath),
			TargetPackageName: req.ConsolidateInto,
			TargetModuleName:  req.ConsolidateInto,
			Paths:             append([]string{req.OldPath}, importers...),
		}
	}

	return plan, nil
}

// rewriteImporter reads one affected importer and asks its plugin to
// rewrite references to the rename. For a symbolic-import plugin
// (Go/Rust/Java) oldPath/newPath are translated to that language's
// native reference form via ModulePathFor first, since
// RewriteFileReferences expects that form, not a filesystem path.
func (b *Builder) rewriteImporter(ctx context.Context, req RenameRequest, kind refdetect.RenameKind, hint *plugin.RewriteHint, importerRel string) (*editplan.TextEdit, error) {
	p, ok := b.pluginFor(importerRel)
	if !ok {
		return nil, fmt.Errorf("no plugin registered for %s", importerRel)
	}

	oldRef, newRef := req.OldPath, req.NewPath
	if detector, symbolic := p.Detector(); symbolic {
		isDir := kind != refdetect.SingleFileRename
		var err error
		oldRef, err = detector.ModulePathFor(req.ProjectRoot, req.OldPath, isDir)
		if err != nil {
			return nil, err
		}
		newRef, err = detector.ModulePathFor(req.ProjectRoot, req.NewPath, isDir)
		if err != nil {
			return nil, err
		}
	}

	absImporter := filepath.Join(req.ProjectRoot, importerRel)
	content, err := os.ReadFile(absImporter)
	if err != nil {
		return nil, err
	}

	newContent, changed, ok := p.RewriteFileReferences(ctx, string(content), oldRef, newRef, importerRel, req.ProjectRoot, hint)
	if !ok || changed == 0 {
		return nil, nil
	}

	return &editplan.TextEdit{
		FilePath:     importerRel,
		EditType:     editplan.EditUpdateImport,
		Location:     fullFileLocation(string(content)),
		OriginalText: string(content),
		NewText:      newContent,
		Priority:     0,
		Description:  fmt.Sprintf("update %d reference(s) to %s", changed, req.OldPath),
	}, nil
}

// findWorkspaceManifest returns the first well-known workspace manifest
// present at projectRoot's top level, in the order a single project is
// most likely to carry one.
func (b *Builder) findWorkspaceManifest(projectRoot string) (string, manifest.Support, bool) {
	for _, name := range []string{"Cargo.toml", "package.json", "pyproject.toml"} {
		if _, err := os.Stat(filepath.Join(projectRoot, name)); err != nil {
			continue
		}
		if support, ok := b.manifests.ForFileName(name); ok {
			return name, support, true
		}
	}
	return "", nil, false
}
