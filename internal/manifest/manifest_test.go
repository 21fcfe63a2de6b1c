package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRegistryDispatchesByFileName(t *testing.T) {
	r := NewRegistry()
	r.Register(NewCargoSupport())
	r.Register(NewPackageJSONSupport())
	r.Register(NewPyProjectSupport())

	for _, name := range []string{"Cargo.toml", "package.json", "pyproject.toml"} {
		if _, ok := r.ForFileName(name); !ok {
			t.Fatalf("expected adapter registered for %s", name)
		}
	}
	if _, ok := r.ForFileName("go.mod"); ok {
		t.Fatal("go.mod should not resolve to any registered adapter")
	}
}

func TestCargoSupportAddsWorkspaceMember(t *testing.T) {
	c := NewCargoSupport()
	src := "[workspace]\nmembers = [\"crates/a\"]\n"
	out, err := c.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		AddMembers: []string{"crates/b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "crates/b") {
		t.Fatalf("expected new member in output, got %s", out)
	}
	if !strings.Contains(string(out), "crates/a") {
		t.Fatalf("expected existing member to survive, got %s", out)
	}
}

func TestCargoSupportRemovesWorkspaceMember(t *testing.T) {
	c := NewCargoSupport()
	src := "[workspace]\nmembers = [\"crates/a\", \"crates/b\"]\n"
	out, err := c.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		RemoveMembers: []string{"crates/a"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "crates/a") {
		t.Fatalf("expected crates/a removed, got %s", out)
	}
	if !strings.Contains(string(out), "crates/b") {
		t.Fatalf("expected crates/b to survive, got %s", out)
	}
}

func TestCargoSupportAddsDependency(t *testing.T) {
	c := NewCargoSupport()
	src := "[package]\nname = \"demo\"\n"
	out, err := c.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		AddDependencyName: "helper_crate",
		AddDependencyPath: "../helper_crate",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "helper_crate") {
		t.Fatalf("expected dependency entry, got %s", out)
	}
}

func TestPackageJSONAddsWorkspaceMember(t *testing.T) {
	p := NewPackageJSONSupport()
	src := `{"name": "demo", "workspaces": ["packages/a"]}`
	out, err := p.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		AddMembers: []string{"packages/b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "packages/b") || !strings.Contains(string(out), "packages/a") {
		t.Fatalf("expected both members present, got %s", out)
	}
}

func TestPackageJSONAddsDependency(t *testing.T) {
	p := NewPackageJSONSupport()
	src := `{"name": "demo"}`
	out, err := p.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		AddDependencyName: "left-pad",
		AddDependencyPath: "packages/left-pad",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "left-pad") || !strings.Contains(string(out), "file:packages/left-pad") {
		t.Fatalf("expected file: dependency entry, got %s", out)
	}
}

func TestPyProjectAddsWorkspaceMember(t *testing.T) {
	p := NewPyProjectSupport()
	src := "[project]\nname = \"demo\"\n\n[tool.uv.workspace]\nmembers = [\"packages/a\"]\n"
	out, err := p.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		AddMembers: []string{"packages/b"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(out), "packages/b") {
		t.Fatalf("expected new member, got %s", out)
	}
}

func TestPyProjectRemovesDependencyByName(t *testing.T) {
	p := NewPyProjectSupport()
	src := "[project]\nname = \"demo\"\ndependencies = [\"requests>=2.0\", \"click\"]\n"
	out, err := p.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		RemoveDependencyName: "requests",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "requests") {
		t.Fatalf("expected requests removed, got %s", out)
	}
	if !strings.Contains(string(out), "click") {
		t.Fatalf("expected click to survive, got %s", out)
	}
}

func TestPyProjectPoetryFormatAddsAndRemovesDependency(t *testing.T) {
	p := NewPyProjectSupport()
	src := "[tool.poetry]\nname = \"demo\"\n\n[tool.poetry.dependencies]\npython = \"^3.9\"\nrequests = \"^2.28.0\"\n"

	out, err := p.ApplyMemberUpdate(context.Background(), []byte(src), MemberUpdate{
		RemoveDependencyName: "requests",
		AddDependencyName:    "click>=8.0.0",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "requests") {
		t.Fatalf("expected requests removed, got %s", out)
	}
	if !strings.Contains(string(out), "click") {
		t.Fatalf("expected click added to [tool.poetry.dependencies], got %s", out)
	}
	if !strings.Contains(string(out), "python") {
		t.Fatalf("expected unrelated python constraint to survive, got %s", out)
	}
}

func TestScanAndDiffDetectAddedModifiedRemoved(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.go", "package a\n")
	writeFile(t, root, "b.go", "package b\n")

	before, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	writeFile(t, root, "a.go", "package a\n\nfunc Changed() {}\n")
	removeFile(t, root, "b.go")
	writeFile(t, root, "c.go", "package c\n")

	after, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	changes := Diff(before, after)
	if !changes.HasChanges() {
		t.Fatal("expected changes to be detected")
	}
	assertContains(t, changes.Added, "c.go")
	assertContains(t, changes.Modified, "a.go")
	assertContains(t, changes.Removed, "b.go")
}

func TestScanIgnoresVendorDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "vendor/lib.go", "package lib\n")
	writeFile(t, root, "main.go", "package main\n")

	snap, err := Scan(context.Background(), root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := snap.Files["vendor/lib.go"]; ok {
		t.Fatal("expected vendor/ to be skipped")
	}
	if _, ok := snap.Files["main.go"]; !ok {
		t.Fatal("expected main.go to be scanned")
	}
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func removeFile(t *testing.T, root, rel string) {
	t.Helper()
	if err := os.Remove(filepath.Join(root, rel)); err != nil {
		t.Fatalf("remove: %v", err)
	}
}

func assertContains(t *testing.T, items []string, want string) {
	t.Helper()
	for _, it := range items {
		if it == want {
			return
		}
	}
	t.Fatalf("expected %q in %v", want, items)
}
