package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/manifest"
	"github.com/forgeweave/refactorcore/internal/pathresolver"
	"github.com/forgeweave/refactorcore/internal/plugin"
	"github.com/forgeweave/refactorcore/internal/plugin/golangplugin"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func newTestExecutor(t *testing.T, register func(*plugin.Registry)) (*Executor, string) {
	t.Helper()
	root := t.TempDir()

	resolver, err := pathresolver.New(root)
	if err != nil {
		t.Fatalf("pathresolver.New: %v", err)
	}

	plugins := plugin.NewRegistry()
	if register != nil {
		register(plugins)
	}

	manifests := manifest.NewRegistry()
	manifests.Register(manifest.NewCargoSupport())

	ex, err := New(context.Background(), Config{
		Resolver:  resolver,
		Plugins:   plugins,
		Manifests: manifests,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = ex.Close(context.Background()) })
	return ex, root
}

// An atomically-successful plan moves a file, rewrites an importer's
// reference via a positional UpdateImport edit, and records every
// touched path in ModifiedFiles.
func TestApplyPlan_MoveAndTextEditSucceedTogether(t *testing.T) {
	ex, root := newTestExecutor(t, func(r *plugin.Registry) { r.Register(golangplugin.New()) })

	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/project\n\ngo 1.25\n")
	writeFile(t, filepath.Join(root, "internal/old/widget.go"), "package old\n\nfunc Widget() {}\n")
	writeFile(t, filepath.Join(root, "cmd/app/main.go"),
		"package main\n\nimport \"example.com/project/internal/old\"\n\nfunc main() { old.Widget() }\n")

	plan := &editplan.EditPlan{
		SourceFile: "internal/old/widget.go",
		Edits: []editplan.TextEdit{
			{EditType: editplan.EditMove, FilePath: "internal/old/widget.go", NewText: "internal/new/widget.go"},
			{
				EditType:     editplan.EditUpdateImport,
				FilePath:     "cmd/app/main.go",
				Location:     editplan.Location{StartLine: 2, StartColumn: 7, EndLine: 2, EndColumn: 41},
				OriginalText: `"example.com/project/internal/old"`,
				NewText:      `"example.com/project/internal/new"`,
			},
		},
		Metadata: editplan.Metadata{Intent: "rename_directory"},
	}

	result, err := ex.ApplyPlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	if !result.Success {
		t.Fatal("expected Success")
	}

	if _, err := os.Stat(filepath.Join(root, "internal/old/widget.go")); !os.IsNotExist(err) {
		t.Fatal("expected old path to be gone")
	}
	moved := readFile(t, filepath.Join(root, "internal/new/widget.go"))
	if moved != "package old\n\nfunc Widget() {}\n" {
		t.Fatalf("unexpected moved content: %q", moved)
	}

	importer := readFile(t, filepath.Join(root, "cmd/app/main.go"))
	if want := `"example.com/project/internal/new"`; !strings.Contains(importer, want) {
		t.Fatalf("expected importer to reference %s, got %q", want, importer)
	}

	wantModified := map[string]bool{
		"internal/old/widget.go": true,
		"internal/new/widget.go": true,
		"cmd/app/main.go":        true,
	}
	for _, m := range result.ModifiedFiles {
		delete(wantModified, m)
	}
	if len(wantModified) != 0 {
		t.Fatalf("missing modified files: %v", wantModified)
	}
}

// An edit that targets a location past a file's end
// fails Phase 4 and every snapshot is rolled back, leaving the tree
// byte-for-byte as it was before ApplyPlan ran.
func TestApplyPlan_RollsBackOnInvalidLocation(t *testing.T) {
	ex, root := newTestExecutor(t, nil)

	original := "line one\nline two\n"
	writeFile(t, filepath.Join(root, "notes.txt"), original)

	plan := &editplan.EditPlan{
		SourceFile: "notes.txt",
		Edits: []editplan.TextEdit{
			{
				EditType: editplan.EditReplace,
				Location: editplan.Location{StartLine: 50, StartColumn: 0, EndLine: 50, EndColumn: 0},
				NewText:  "this can never land",
			},
		},
		Metadata: editplan.Metadata{Intent: "bogus_replace"},
	}

	_, err := ex.ApplyPlan(context.Background(), plan)
	if err == nil {
		t.Fatal("expected an error from an out-of-range edit")
	}

	got := readFile(t, filepath.Join(root, "notes.txt"))
	if got != original {
		t.Fatalf("expected rollback to restore original content, got %q", got)
	}
}

// A plan that only Creates a file has nothing to roll back from if a
// later phase fails; this exercises the Create half of Phase 3 plus a
// successful manifest update in the same plan.
func TestApplyPlan_CreateAndManifestUpdate(t *testing.T) {
	ex, root := newTestExecutor(t, nil)

	writeFile(t, filepath.Join(root, "Cargo.toml"), "[workspace]\nmembers = [\"crates/a\"]\n")

	plan := &editplan.EditPlan{
		Edits: []editplan.TextEdit{
			{EditType: editplan.EditCreate, FilePath: "crates/b/src/lib.rs", NewText: "pub fn hello() {}\n"},
		},
		ManifestUpdates: []editplan.ManifestUpdate{
			{TargetFile: "Cargo.toml", AddMembers: []string{"crates/b"}},
		},
		Metadata: editplan.Metadata{Intent: "extract_crate"},
	}

	result, err := ex.ApplyPlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	if !result.Success {
		t.Fatal("expected Success")
	}

	created := readFile(t, filepath.Join(root, "crates/b/src/lib.rs"))
	if created != "pub fn hello() {}\n" {
		t.Fatalf("unexpected created content: %q", created)
	}

	manifestContent := readFile(t, filepath.Join(root, "Cargo.toml"))
	if !strings.Contains(manifestContent, "crates/b") {
		t.Fatalf("expected Cargo.toml to list the new member, got %q", manifestContent)
	}
}

func TestApplyPlan_DeleteRemovesFile(t *testing.T) {
	ex, root := newTestExecutor(t, nil)
	writeFile(t, filepath.Join(root, "stale.go"), "package stale\n")

	plan := &editplan.EditPlan{
		Edits: []editplan.TextEdit{
			{EditType: editplan.EditDelete, FilePath: "stale.go"},
		},
		Metadata: editplan.Metadata{Intent: "delete_dead_file"},
	}

	result, err := ex.ApplyPlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	if !result.Success {
		t.Fatal("expected Success")
	}
	if _, err := os.Stat(filepath.Join(root, "stale.go")); !os.IsNotExist(err) {
		t.Fatal("expected stale.go to be removed")
	}
}

func TestRenameMaps_ResolveOldPath(t *testing.T) {
	renames := renameMaps{
		direct: map[string]string{"internal/new/widget.go": "internal/old/widget.go"},
		directories: []dirRename{
			{oldDir: "internal/old", newDir: "internal/new"},
		},
	}

	if got := renames.resolveOldPath("internal/new/widget.go"); got != "internal/old/widget.go" {
		t.Fatalf("direct match: got %q", got)
	}
	if got := renames.resolveOldPath("internal/new/helpers/util.go"); got != "internal/old/helpers/util.go" {
		t.Fatalf("directory-prefix match: got %q", got)
	}
	if got := renames.resolveOldPath("unrelated/file.go"); got != "unrelated/file.go" {
		t.Fatalf("non-renamed path should pass through unchanged: got %q", got)
	}
}

func TestApplyPlan_CollisionDetectionDoesNotFlagThePlansOwnWrites(t *testing.T) {
	root := t.TempDir()
	resolver, err := pathresolver.New(root)
	if err != nil {
		t.Fatalf("pathresolver.New: %v", err)
	}
	ex, err := New(context.Background(), Config{
		Resolver:         resolver,
		Manifests:        manifest.NewRegistry(),
		DetectCollisions: true,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = ex.Close(context.Background()) })

	writeFile(t, filepath.Join(root, "untouched.txt"), "leave me alone\n")
	writeFile(t, filepath.Join(root, "notes.txt"), "line one\n")

	plan := &editplan.EditPlan{
		SourceFile: "notes.txt",
		Edits: []editplan.TextEdit{
			{EditType: editplan.EditReplace, Location: editplan.Location{StartLine: 0, StartColumn: 0, EndLine: 0, EndColumn: 8}, NewText: "line two"},
		},
		Metadata: editplan.Metadata{Intent: "edit_notes"},
	}

	result, err := ex.ApplyPlan(context.Background(), plan)
	if err != nil {
		t.Fatalf("ApplyPlan: %v", err)
	}
	for _, w := range result.Metadata.Warnings {
		if strings.Contains(w, "untouched.txt") || strings.Contains(w, "notes.txt") {
			t.Fatalf("did not expect a collision warning for the plan's own target, got %q", w)
		}
	}
}

func TestPreflightGuard_NonGitDirectoryWarnsButNeverBlocks(t *testing.T) {
	root := t.TempDir()
	guard := NewPreflightGuard()

	warnings, err := guard.Check(context.Background(), root)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	found := false
	for _, w := range warnings {
		if w.Code == "NOT_GIT_REPO" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a NOT_GIT_REPO warning, got %+v", warnings)
	}
}
