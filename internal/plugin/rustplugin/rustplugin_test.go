package rustplugin

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRewriteFileReferencesSimpleUse(t *testing.T) {
	p := New()
	src := "use crate::utils::old_module;\n\nfn main() {}\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "crate::utils::old_module", "crate::utils::new_module", "src/main.rs", "", nil)
	if !ok || count != 1 {
		t.Fatalf("expected one rewrite, count=%d ok=%v", count, ok)
	}
	if !strings.Contains(out, "crate::utils::new_module") {
		t.Fatalf("expected rewritten use path, got %s", out)
	}
}

func TestRewriteFileReferencesSubmodule(t *testing.T) {
	p := New()
	src := "use crate::utils::old_module::helper;\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "crate::utils::old_module", "crate::utils::new_module", "src/main.rs", "", nil)
	if !ok || count != 1 {
		t.Fatalf("expected one rewrite, count=%d ok=%v", count, ok)
	}
	if !strings.Contains(out, "crate::utils::new_module::helper") {
		t.Fatalf("expected submodule path preserved, got %s", out)
	}
}

func TestRewriteFileReferencesUnrelatedUseUntouched(t *testing.T) {
	p := New()
	src := "use std::collections::HashMap;\n"
	_, _, ok := p.RewriteFileReferences(context.Background(), src, "crate::utils::old_module", "crate::utils::new_module", "src/main.rs", "", nil)
	if ok {
		t.Fatal("expected no rewrite for an unrelated use path")
	}
}

func TestWorkspaceSupportReturnsCapability(t *testing.T) {
	p := New()
	ws, ok := p.WorkspaceSupport()
	if !ok || ws == nil {
		t.Fatal("expected WorkspaceSupport capability")
	}
	if err := ws.ExecuteConsolidationPostProcessing(context.Background(), "old_crate", "new_crate", "mod", nil, "/root"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFindImportersOfFindsSymbolicMatches(t *testing.T) {
	dir := t.TempDir()
	importer := filepath.Join(dir, "consumer.rs")
	unrelated := filepath.Join(dir, "unrelated.rs")
	if err := os.WriteFile(importer, []byte("use crate::utils::old_module::helper;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(unrelated, []byte("use std::collections::HashMap;\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New()
	detector, ok := p.Detector()
	if !ok {
		t.Fatal("expected Detector capability")
	}
	importers, err := detector.FindImportersOf(context.Background(), "crate::utils::old_module", dir, []string{importer, unrelated}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(importers) != 1 || importers[0] != importer {
		t.Fatalf("expected only %s, got %v", importer, importers)
	}
}

func TestModulePathForResolvesFromCrateRoot(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "src", "utils"), 0o755); err != nil {
		t.Fatal(err)
	}
	cargoToml := "[package]\nname = \"demo\"\nversion = \"0.1.0\"\n"
	if err := os.WriteFile(filepath.Join(dir, "Cargo.toml"), []byte(cargoToml), 0o644); err != nil {
		t.Fatal(err)
	}

	p := New()
	detector, ok := p.Detector()
	if !ok {
		t.Fatal("expected Detector capability")
	}
	got, err := detector.ModulePathFor(dir, "src/utils/old_module.rs", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "crate::utils::old_module" {
		t.Fatalf("got %s", got)
	}
}
