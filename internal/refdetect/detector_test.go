package refdetect

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/forgeweave/refactorcore/internal/plugin/golangplugin"
	"github.com/forgeweave/refactorcore/internal/plugin/pyplugin"
	"github.com/forgeweave/refactorcore/internal/plugin/rustplugin"
	"github.com/forgeweave/refactorcore/internal/plugin/tsplugin"

	"github.com/forgeweave/refactorcore/internal/plugin"
)

func newTestRegistry() *plugin.Registry {
	reg := plugin.NewRegistry()
	reg.Register(golangplugin.New())
	reg.Register(rustplugin.New())
	reg.Register(tsplugin.New())
	reg.Register(pyplugin.New())
	return reg
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFindImportersGoSymbolicDetector(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "go.mod"), "module example.com/project\n\ngo 1.25\n")
	writeFile(t, filepath.Join(root, "internal/old/widget.go"), "package old\n\nfunc Widget() {}\n")
	writeFile(t, filepath.Join(root, "cmd/app/main.go"), "package main\n\nimport \"example.com/project/internal/old\"\n\nfunc main() { old.Widget() }\n")
	writeFile(t, filepath.Join(root, "cmd/unrelated/main.go"), "package main\n\nimport \"fmt\"\n\nfunc main() { fmt.Println() }\n")

	d, err := New(newTestRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	importers, err := d.FindImporters(context.Background(), root, "internal/old", "internal/new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(importers) != 1 || importers[0] != "cmd/app/main.go" {
		t.Fatalf("expected only cmd/app/main.go, got %v", importers)
	}
}

func TestFindImportersTSGenericFallback(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/utils/old.ts"), "export function helper() {}\n")
	writeFile(t, filepath.Join(root, "src/app/main.ts"), "import { helper } from '../utils/old';\n\nhelper();\n")
	writeFile(t, filepath.Join(root, "src/app/unrelated.ts"), "import { other } from './other';\n")

	d, err := New(newTestRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	importers, err := d.FindImporters(context.Background(), root, "src/utils/old", "src/utils/new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(importers) != 1 || importers[0] != "src/app/main.ts" {
		t.Fatalf("expected only src/app/main.ts, got %v", importers)
	}
}

func TestFindImportersExcludesFilesInsideRenamedDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/old/a.ts"), "import { b } from './b';\n")
	writeFile(t, filepath.Join(root, "src/old/b.ts"), "export const b = 1;\n")
	writeFile(t, filepath.Join(root, "src/app/main.ts"), "import { b } from '../old/b';\n")

	d, err := New(newTestRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	importers, err := d.FindImporters(context.Background(), root, "src/old", "src/new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, imp := range importers {
		if imp == "src/old/a.ts" {
			t.Fatalf("expected internal reference inside renamed directory to be excluded, got %v", importers)
		}
	}
	if len(importers) != 1 || importers[0] != "src/app/main.ts" {
		t.Fatalf("expected only src/app/main.ts, got %v", importers)
	}
}

func TestClassifyRenameDetectsCrateDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "crates/demo/Cargo.toml"), "[package]\nname = \"demo\"\n")
	writeFile(t, filepath.Join(root, "crates/demo/src/lib.rs"), "pub fn hello() {}\n")
	writeFile(t, filepath.Join(root, "crates/plain/a.txt"), "")

	if got := ClassifyRename(root, "crates/demo"); got != CrateDirectoryRename {
		t.Fatalf("expected CrateDirectoryRename, got %v", got)
	}
	if got := ClassifyRename(root, "crates/plain"); got != PlainDirectoryRename {
		t.Fatalf("expected PlainDirectoryRename, got %v", got)
	}
	if got := ClassifyRename(root, "crates/demo/src/lib.rs"); got != SingleFileRename {
		t.Fatalf("expected SingleFileRename, got %v", got)
	}
}

func TestFindImportersCacheReusesUnchangedFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src/utils/old.ts"), "export function helper() {}\n")
	writeFile(t, filepath.Join(root, "src/app/main.ts"), "import { helper } from '../utils/old';\n")

	d, err := New(newTestRegistry())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer d.Close()

	ctx := context.Background()
	first, err := d.FindImporters(ctx, root, "src/utils/old", "src/utils/new")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := d.FindImporters(ctx, root, "src/utils/old", "src/utils/newer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one importer each call, got %v and %v", first, second)
	}
}
