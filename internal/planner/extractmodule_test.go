package planner

import (
	"context"
	"testing"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/plugin"
	"github.com/forgeweave/refactorcore/internal/plugin/golangplugin"
)

func TestBuildExtractModuleProducesMovesManifestAndImporterUpdates(t *testing.T) {
	b := newTestBuilder(t, func(r *plugin.Registry) { r.Register(golangplugin.New()) })

	plan, err := b.BuildExtractModule(context.Background(), ExtractModuleRequest{
		ProjectRoot: "/proj",
		Moves: []FileMove{
			{OldPath: "internal/app/cache.go", NewPath: "internal/cache/cache.go"},
		},
		NewManifestPath:       "internal/cache/go.mod",
		NewManifestContent:    "module example.com/project/internal/cache\n\ngo 1.25\n",
		EntryPointPath:        "internal/cache/doc.go",
		EntryPointContent:     "// Package cache holds the extracted cache implementation.\npackage cache\n",
		SourceManifestPath:    "internal/app/go.mod",
		NewPackageName:        "cache",
		NewPackageImportPath:  "example.com/project/internal/cache",
		WorkspaceManifestPath: "go.work",
		Importers: []ModuleImporterRewrite{
			{FilePath: "internal/app/server.go", OldReference: "internal/app.cacheKey", NewReference: "cache.Key"},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawCreateManifest, sawCreateEntry, sawMove bool
	for _, e := range plan.Edits {
		switch {
		case e.EditType == editplan.EditCreate && e.FilePath == "internal/cache/go.mod":
			sawCreateManifest = true
		case e.EditType == editplan.EditCreate && e.FilePath == "internal/cache/doc.go":
			sawCreateEntry = true
		case e.EditType == editplan.EditMove && e.FilePath == "internal/app/cache.go" && e.NewText == "internal/cache/cache.go":
			sawMove = true
		}
	}
	if !sawCreateManifest || !sawCreateEntry || !sawMove {
		t.Fatalf("expected manifest create, entry point create, and move edits, got %+v", plan.Edits)
	}

	if len(plan.ManifestUpdates) != 2 {
		t.Fatalf("expected 2 manifest updates (source dependency + workspace member), got %d: %+v", len(plan.ManifestUpdates), plan.ManifestUpdates)
	}
	var sawSourceDep, sawWorkspaceMember bool
	for _, mu := range plan.ManifestUpdates {
		if mu.TargetFile == "internal/app/go.mod" {
			sawSourceDep = true
			if mu.AddDependencyName != "cache" || mu.AddDependencyPath != "example.com/project/internal/cache" {
				t.Fatalf("unexpected source manifest update: %+v", mu)
			}
			if len(mu.RemoveMembers) != 1 || mu.RemoveMembers[0] != "internal/app/cache.go" {
				t.Fatalf("expected moved path removed from source manifest members: %+v", mu)
			}
		}
		if mu.TargetFile == "go.work" {
			sawWorkspaceMember = true
			if len(mu.AddMembers) != 1 || mu.AddMembers[0] != "internal/cache" {
				t.Fatalf("expected internal/cache registered as workspace member, got %+v", mu)
			}
		}
	}
	if !sawSourceDep || !sawWorkspaceMember {
		t.Fatalf("expected both source-manifest and workspace-manifest updates, got %+v", plan.ManifestUpdates)
	}

	if len(plan.DependencyUpdates) != 1 {
		t.Fatalf("expected 1 dependency update for the importer, got %+v", plan.DependencyUpdates)
	}
	du := plan.DependencyUpdates[0]
	if du.TargetFile != "internal/app/server.go" || du.OldReference != "internal/app.cacheKey" || du.NewReference != "cache.Key" {
		t.Fatalf("unexpected dependency update: %+v", du)
	}
}

func TestBuildExtractModuleSkipsWorkspaceUpdateWhenSameAsSourceManifest(t *testing.T) {
	b := newTestBuilder(t, func(r *plugin.Registry) { r.Register(golangplugin.New()) })

	plan, err := b.BuildExtractModule(context.Background(), ExtractModuleRequest{
		ProjectRoot:           "/proj",
		NewManifestPath:       "internal/cache/go.mod",
		SourceManifestPath:    "go.mod",
		NewPackageName:        "cache",
		NewPackageImportPath:  "example.com/project/internal/cache",
		WorkspaceManifestPath: "go.mod",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.ManifestUpdates) != 1 {
		t.Fatalf("expected only the source-manifest update when workspace manifest equals it, got %+v", plan.ManifestUpdates)
	}
}

func TestExtractModuleRequestNewManifestDir(t *testing.T) {
	r := ExtractModuleRequest{NewManifestPath: "internal/cache/go.mod"}
	if got := r.NewManifestDir(); got != "internal/cache" {
		t.Fatalf("expected internal/cache, got %s", got)
	}

	r2 := ExtractModuleRequest{NewManifestPath: "go.mod"}
	if got := r2.NewManifestDir(); got != "." {
		t.Fatalf("expected . for a manifest at the project root, got %s", got)
	}
}
