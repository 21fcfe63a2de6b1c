package plugin

import (
	"context"
	"testing"
)

type stubPlugin struct {
	name       string
	priority   int
	extensions []string
}

func (s *stubPlugin) HandledExtensions() []string { return s.extensions }
func (s *stubPlugin) Priority() int                { return s.priority }
func (s *stubPlugin) Name() string                 { return s.name }
func (s *stubPlugin) RewriteFileReferences(ctx context.Context, content, oldPath, newPath, importerPath, projectRoot string, hint *RewriteHint) (string, int, bool) {
	return content, 0, false
}
func (s *stubPlugin) ImportSupport() (ImportSupport, bool)             { return nil, false }
func (s *stubPlugin) WorkspaceSupport() (WorkspaceSupport, bool)       { return nil, false }
func (s *stubPlugin) RefactoringSupport() (RefactoringSupport, bool)   { return nil, false }
func (s *stubPlugin) AnalysisSupport() (AnalysisSupport, bool)         { return nil, false }
func (s *stubPlugin) Detector() (ReferenceDetectorCapability, bool)    { return nil, false }

func TestFindByExtensionReturnsSoleMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "go", priority: 0, extensions: []string{".go"}})

	p, ok := r.FindByExtension(".go")
	if !ok || p.Name() != "go" {
		t.Fatalf("expected the .go plugin, got %v ok=%v", p, ok)
	}
}

func TestFindByExtensionNoMatch(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "go", priority: 0, extensions: []string{".go"}})

	if _, ok := r.FindByExtension(".rs"); ok {
		t.Fatal("expected no match for an unregistered extension")
	}
}

func TestFindByExtensionPrefersHigherPriority(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "low", priority: 1, extensions: []string{".js"}})
	r.Register(&stubPlugin{name: "high", priority: 10, extensions: []string{".js"}})

	p, ok := r.FindByExtension(".js")
	if !ok || p.Name() != "high" {
		t.Fatalf("expected the higher-priority plugin, got %v", p)
	}
}

func TestFindByExtensionBreaksTiesByNameLexicographically(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "zeta", priority: 5, extensions: []string{".ts"}})
	r.Register(&stubPlugin{name: "alpha", priority: 5, extensions: []string{".ts"}})

	p, ok := r.FindByExtension(".ts")
	if !ok || p.Name() != "alpha" {
		t.Fatalf("expected lexicographically-first name on a tie, got %v", p)
	}
}

func TestFindByExtensionIsCaseInsensitive(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "go", priority: 0, extensions: []string{".Go"}})

	if _, ok := r.FindByExtension(".GO"); !ok {
		t.Fatal("expected case-insensitive extension match")
	}
}

func TestAllReturnsEveryRegisteredPlugin(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubPlugin{name: "a", extensions: []string{".a"}})
	r.Register(&stubPlugin{name: "b", extensions: []string{".b"}})

	if len(r.All()) != 2 {
		t.Fatalf("expected 2 plugins, got %d", len(r.All()))
	}
}
