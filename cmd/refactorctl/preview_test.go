package main

import (
	"strings"
	"testing"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

func TestRenderPlanIncludesIntentEditsAndWarnings(t *testing.T) {
	plan := &editplan.EditPlan{
		SourceFile: "src/widget.go",
		Metadata: editplan.Metadata{
			Intent:   "rename",
			Warnings: []string{"manifest not found for consolidate target"},
		},
		Edits: []editplan.TextEdit{
			{EditType: editplan.EditReplace, FilePath: "src/widget.go", Description: "update reference"},
			{EditType: editplan.EditMove, FilePath: "src/old.go", NewText: "src/new.go"},
			{EditType: editplan.EditDelete, FilePath: "src/stale.go"},
		},
		DependencyUpdates: []editplan.DependencyUpdate{
			{TargetFile: "go.mod", OldReference: "old/pkg", NewReference: "new/pkg"},
		},
		ManifestUpdates: []editplan.ManifestUpdate{
			{TargetFile: "Cargo.toml"},
		},
	}

	out := renderPlan(plan)

	for _, want := range []string{
		"rename",
		"src/widget.go",
		"src/old.go",
		"src/new.go",
		"src/stale.go",
		"go.mod",
		"old/pkg",
		"new/pkg",
		"Cargo.toml",
		"manifest not found for consolidate target",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected rendered plan to contain %q, got:\n%s", want, out)
		}
	}
}

func TestRenderPlanOmitsSourceFileWhenEmpty(t *testing.T) {
	plan := &editplan.EditPlan{
		Metadata: editplan.Metadata{Intent: "apply_patch"},
	}
	out := renderPlan(plan)
	if strings.Contains(out, "source:") {
		t.Fatalf("expected no source line for a plan with no SourceFile, got:\n%s", out)
	}
}
