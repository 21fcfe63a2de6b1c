// Package javaplugin implements the plugin.Plugin capability interface
// for Java source files. Java imports are fully-qualified package
// paths (symbolic, like Go and Rust), so this plugin rewrites
// import_declaration scoped_identifier nodes rather than resolving
// relative filesystem paths.
//
// It follows the same sitter.NewParser-per-call / direct node traversal
// convention as golangplugin and rustplugin, walking tree-sitter-java's
// import_declaration / scoped_identifier shape directly.
package javaplugin

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"

	"github.com/forgeweave/refactorcore/internal/plugin"
)

// Plugin rewrites Java import_declaration package paths.
type Plugin struct{}

// New constructs the Java plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) HandledExtensions() []string { return []string{".java"} }
func (p *Plugin) Priority() int               { return 0 }
func (p *Plugin) Name() string                { return "javaplugin" }

// RewriteFileReferences rewrites every import_declaration whose
// fully-qualified path equals or is nested under oldPath (dot-joined
// package paths) to newPath.
func (p *Plugin) RewriteFileReferences(ctx context.Context, content, oldPath, newPath, importerPath, projectRoot string, hint *plugin.RewriteHint) (string, int, bool) {
	tree, err := parse(ctx, []byte(content))
	if err != nil {
		return content, 0, false
	}
	defer tree.Close()

	type replacement struct {
		startByte, endByte uint32
		newText            string
	}
	var replacements []replacement

	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		decl := root.Child(i)
		if decl.Type() != "import_declaration" {
			continue
		}
		pathNode := importPathNode(decl)
		if pathNode == nil {
			continue
		}
		pkgPath := string([]byte(content)[pathNode.StartByte():pathNode.EndByte()])
		rewritten, changed := rewritePackagePath(pkgPath, oldPath, newPath)
		if !changed {
			continue
		}
		replacements = append(replacements, replacement{
			startByte: pathNode.StartByte(),
			endByte:   pathNode.EndByte(),
			newText:   rewritten,
		})
	}

	if len(replacements) == 0 {
		return content, 0, false
	}

	out := content
	for i := len(replacements) - 1; i >= 0; i-- {
		r := replacements[i]
		out = out[:r.startByte] + r.newText + out[r.endByte:]
	}
	return out, len(replacements), true
}

func (p *Plugin) ImportSupport() (plugin.ImportSupport, bool)           { return p, true }
func (p *Plugin) WorkspaceSupport() (plugin.WorkspaceSupport, bool)     { return nil, false }
func (p *Plugin) RefactoringSupport() (plugin.RefactoringSupport, bool) { return p, true }
func (p *Plugin) AnalysisSupport() (plugin.AnalysisSupport, bool)       { return nil, false }
func (p *Plugin) Detector() (plugin.ReferenceDetectorCapability, bool)  { return p, true }

// FindImportersOf implements plugin.ReferenceDetectorCapability: Java
// package paths are fully-qualified symbolic references, so a
// candidate file imports oldPath whenever one of its import
// declarations equals or is nested under it.
func (p *Plugin) FindImportersOf(ctx context.Context, oldPath, projectRoot string, candidateFiles []string, hint *plugin.RewriteHint) ([]string, error) {
	var importers []string
	for _, file := range candidateFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			continue
		}
		tree, err := parse(ctx, content)
		if err != nil {
			continue
		}
		found := false
		root := tree.RootNode()
		for i := 0; i < int(root.ChildCount()) && !found; i++ {
			decl := root.Child(i)
			if decl.Type() != "import_declaration" {
				continue
			}
			pathNode := importPathNode(decl)
			if pathNode == nil {
				continue
			}
			pkgPath := string(content[pathNode.StartByte():pathNode.EndByte()])
			if pkgPath == oldPath || strings.HasPrefix(pkgPath, oldPath+".") {
				found = true
			}
		}
		tree.Close()
		if found {
			importers = append(importers, file)
		}
	}
	sort.Strings(importers)
	return importers, nil
}

// ModulePathFor implements plugin.ReferenceDetectorCapability. Java has
// no single canonical root marker the way Cargo.toml or go.mod do, so
// this follows the Maven/Gradle convention of a "src/main/java" source
// root; if none is found in filePath's ancestry, it falls back to
// treating projectRoot itself as the source root. Trimming ".java" is a
// no-op when filePath names a package directory, so isDir needs no
// special-casing here the way golangplugin's and rustplugin's do.
func (p *Plugin) ModulePathFor(projectRoot, filePath string, isDir bool) (string, error) {
	srcRoot := findJavaSourceRoot(filePath)
	rel := strings.TrimPrefix(filePath, srcRoot)
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimSuffix(rel, ".java")
	return strings.ReplaceAll(rel, "/", "."), nil
}

// javaSourceRootMarker is the Maven/Gradle convention for where package
// directories begin.
const javaSourceRootMarker = "src/main/java/"

func findJavaSourceRoot(filePath string) string {
	if idx := strings.Index(filePath, javaSourceRootMarker); idx >= 0 {
		return filePath[:idx+len(javaSourceRootMarker)]
	}
	return ""
}

func (p *Plugin) UpdateImportReference(ctx context.Context, path, content string, update plugin.DependencyUpdate) (string, error) {
	out, _, ok := p.RewriteFileReferences(ctx, content, update.OldReference, update.NewReference, path, "", nil)
	if !ok {
		return content, nil
	}
	return out, nil
}

// InsertionPointAfterImports places new declarations after the last
// import_declaration, or after the package_declaration if there are
// none.
func (p *Plugin) InsertionPointAfterImports(content string) (int, int) {
	tree, err := parse(context.Background(), []byte(content))
	if err != nil {
		return 0, 0
	}
	defer tree.Close()

	root := tree.RootNode()
	last := -1
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "import_declaration" || child.Type() == "package_declaration" {
			if line := int(child.EndPoint().Row); line > last {
				last = line
			}
		}
	}
	if last < 0 {
		return 0, 0
	}
	return last + 1, 0
}

func parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("javaplugin: parse failed: %w", err)
	}
	return tree, nil
}

// importPathNode returns the scoped_identifier (or identifier, for a
// single-segment import) child of an import_declaration, skipping the
// "import"/"static"/";" tokens and any trailing ".*" wildcard.
func importPathNode(decl *sitter.Node) *sitter.Node {
	for i := 0; i < int(decl.ChildCount()); i++ {
		child := decl.Child(i)
		switch child.Type() {
		case "scoped_identifier", "identifier":
			return child
		}
	}
	return nil
}

func rewritePackagePath(pkgPath, oldPath, newPath string) (string, bool) {
	if pkgPath == oldPath {
		return newPath, true
	}
	if strings.HasPrefix(pkgPath, oldPath+".") {
		return newPath + strings.TrimPrefix(pkgPath, oldPath), true
	}
	return pkgPath, false
}
