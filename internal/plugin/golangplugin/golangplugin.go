// Package golangplugin implements the plugin.Plugin capability
// interface for Go source files, rewriting import paths when a file or
// directory that corresponds to a Go import path moves.
//
// It walks a github.com/smacker/go-tree-sitter/golang parse tree
// directly (a fresh *sitter.Parser per call, since parsers are not
// goroutine-safe to reuse across concurrent Parse calls), visiting
// import_declaration / import_spec / import_spec_list nodes rather than
// the tree-sitter query language.
package golangplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"golang.org/x/mod/modfile"

	"github.com/forgeweave/refactorcore/internal/plugin"
)

// Plugin rewrites Go import declarations. Go imports are symbolic
// (module-path) references rather than relative file paths, so
// oldPath/newPath here are expected to be import paths, not filesystem
// paths — the caller (internal/refdetect) is responsible for mapping a
// filesystem rename to its corresponding import-path change before
// invoking this plugin, as Go import paths don't always mirror the
// directory layout one-to-one (e.g. an internal/ boundary).
type Plugin struct {
	priority int
}

// New constructs the Go language plugin.
func New() *Plugin { return &Plugin{priority: 0} }

func (p *Plugin) HandledExtensions() []string { return []string{".go"} }
func (p *Plugin) Priority() int               { return p.priority }
func (p *Plugin) Name() string                { return "golangplugin" }

// RewriteFileReferences rewrites every import spec whose path equals or
// is a subpackage of oldPath to the corresponding newPath.
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
	walkImportSpecs(root, []byte(content), func(specNode *sitter.Node, pathNode *sitter.Node, path string) {
		rewritten, changed := rewriteImportPath(path, oldPath, newPath)
		if !changed {
			return
		}
		replacements = append(replacements, replacement{
			startByte: pathNode.StartByte(),
			endByte:   pathNode.EndByte(),
			newText:   fmt.Sprintf("%q", rewritten),
		})
	})

	if len(replacements) == 0 {
		return content, 0, false
	}

	// Apply byte-offset replacements back to front so earlier offsets
	// stay valid, mirroring the transformer's own descending-order rule.
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

// FindImportersOf implements plugin.ReferenceDetectorCapability: Go
// import paths are symbolic module paths, so a file can reference
// oldPath without oldPath ever appearing as a filesystem path inside
// it — this scans each candidate file's import specs for a textual
// match rather than resolving relative paths like the TS/Python generic
// fallback does.
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
		walkImportSpecs(tree.RootNode(), content, func(_, _ *sitter.Node, path string) {
			if found {
				return
			}
			if path == oldPath || strings.HasPrefix(path, oldPath+"/") {
				found = true
			}
		})
		tree.Close()
		if found {
			importers = append(importers, file)
		}
	}
	sort.Strings(importers)
	return importers, nil
}

// ModulePathFor implements plugin.ReferenceDetectorCapability: it reads
// the module directive out of projectRoot/go.mod via
// golang.org/x/mod/modfile and joins it with filePath's directory, since
// Go import paths are directory-scoped, not per-file. isDir tells it
// whether filePath itself is the package directory (true) or a file
// inside one (false, in which case its parent directory is used).
func (p *Plugin) ModulePathFor(projectRoot, filePath string, isDir bool) (string, error) {
	raw, err := os.ReadFile(filepath.Join(projectRoot, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("golangplugin: reading go.mod: %w", err)
	}
	f, err := modfile.Parse("go.mod", raw, nil)
	if err != nil || f.Module == nil {
		return "", fmt.Errorf("golangplugin: parsing go.mod: %w", err)
	}

	pkgDir := filePath
	if !isDir {
		pkgDir = filepath.Dir(filePath)
	}

	dir := filepath.ToSlash(pkgDir)
	if dir == "." {
		return f.Module.Mod.Path, nil
	}
	return f.Module.Mod.Path + "/" + dir, nil
}

// UpdateImportReference implements plugin.ImportSupport for executor
// Phase 5 dependency updates.
func (p *Plugin) UpdateImportReference(ctx context.Context, path, content string, update plugin.DependencyUpdate) (string, error) {
	out, _, ok := p.RewriteFileReferences(ctx, content, update.OldReference, update.NewReference, path, "", nil)
	if !ok {
		return content, nil
	}
	return out, nil
}

// InsertionPointAfterImports implements plugin.RefactoringSupport:
// extract-function/variable/constant insertions land right after the
// last top-level import declaration, or at the top of the file if there
// are none.
func (p *Plugin) InsertionPointAfterImports(content string) (int, int) {
	tree, err := parse(context.Background(), []byte(content))
	if err != nil {
		return 0, 0
	}
	defer tree.Close()

	root := tree.RootNode()
	lastImportEndLine := -1
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "import_declaration" {
			line := int(child.EndPoint().Row)
			if line > lastImportEndLine {
				lastImportEndLine = line
			}
		}
	}
	if lastImportEndLine < 0 {
		return 0, 0
	}
	return lastImportEndLine + 1, 0
}

func parse(ctx context.Context, content []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("golangplugin: parse failed: %w", err)
	}
	return tree, nil
}

// walkImportSpecs visits every import_spec node in the file, in both
// single (`import "x"`) and grouped (`import (...)`) form, invoking fn
// with the spec node, its path-literal child node, and the unquoted
// path string.
func walkImportSpecs(root *sitter.Node, content []byte, fn func(spec, pathNode *sitter.Node, path string)) {
	for i := 0; i < int(root.ChildCount()); i++ {
		decl := root.Child(i)
		if decl.Type() != "import_declaration" {
			continue
		}
		for j := 0; j < int(decl.ChildCount()); j++ {
			child := decl.Child(j)
			switch child.Type() {
			case "import_spec":
				visitImportSpec(child, content, fn)
			case "import_spec_list":
				for k := 0; k < int(child.ChildCount()); k++ {
					spec := child.Child(k)
					if spec.Type() == "import_spec" {
						visitImportSpec(spec, content, fn)
					}
				}
			}
		}
	}
}

func visitImportSpec(spec *sitter.Node, content []byte, fn func(spec, pathNode *sitter.Node, path string)) {
	for i := 0; i < int(spec.ChildCount()); i++ {
		child := spec.Child(i)
		if child.Type() == "interpreted_string_literal" {
			raw := string(content[child.StartByte():child.EndByte()])
			path := strings.Trim(raw, "\"")
			fn(spec, child, path)
			return
		}
	}
}

// rewriteImportPath rewrites path if it equals oldPath or is rooted
// under oldPath as a subpackage (oldPath + "/...").
func rewriteImportPath(path, oldPath, newPath string) (string, bool) {
	if path == oldPath {
		return newPath, true
	}
	if strings.HasPrefix(path, oldPath+"/") {
		return newPath + strings.TrimPrefix(path, oldPath), true
	}
	return path, false
}
