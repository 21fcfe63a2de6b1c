// Package pyplugin implements the plugin.Plugin capability interface
// for Python source files. Python's `from . import x` / `from ..pkg
// import y` relative-import syntax is file-path-based (the dots encode
// "how many directories up from the importer"), so this plugin resolves
// each relative import against the importer's directory and rewrites it
// the same way tsplugin handles relative JS/TS specifiers.
//
// It walks tree-sitter-python's import_from_statement / relative_import
// / import_prefix / dotted_name nodes directly.
package pyplugin

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/forgeweave/refactorcore/internal/plugin"
)

// Plugin rewrites Python relative import paths; absolute (non-dotted
// prefix) imports are left as they are.
type Plugin struct{}

// New constructs the Python plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) HandledExtensions() []string { return []string{".py", ".pyi"} }
func (p *Plugin) Priority() int               { return 0 }
func (p *Plugin) Name() string                { return "pyplugin" }

// RewriteFileReferences finds import_from_statement relative imports
// whose resolved target equals oldPath and rewrites them to point at
// newPath, expressed with the correct number of leading dots relative
// to importerPath's directory.
func (p *Plugin) RewriteFileReferences(ctx context.Context, content, oldPath, newPath, importerPath, projectRoot string, hint *plugin.RewriteHint) (string, int, bool) {
	tree, err := parse(ctx, []byte(content))
	if err != nil {
		return content, 0, false
	}
	defer tree.Close()

	importerDir := path.Dir(importerPath)

	type replacement struct {
		startByte, endByte uint32
		newText            string
	}
	var replacements []replacement

	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if node.Type() != "import_from_statement" {
			continue
		}
		relNode, dots, dotted := findRelativeImport(node, []byte(content))
		if relNode == nil {
			continue
		}
		resolved := resolveDotted(importerDir, dots, dotted)
		if resolved != oldPath {
			continue
		}
		rewritten := dottedSpecifier(importerDir, newPath)
		replacements = append(replacements, replacement{
			startByte: relNode.StartByte(),
			endByte:   relNode.EndByte(),
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

// ResolvedImportTargets returns every relative import in content
// resolved against importerPath's directory to a project-relative
// path, so internal/refdetect can cache one parse per (file, mtime)
// and test it against many candidate renames.
func (p *Plugin) ResolvedImportTargets(ctx context.Context, content, importerPath string) ([]string, error) {
	tree, err := parse(ctx, []byte(content))
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	importerDir := path.Dir(importerPath)
	var targets []string
	root := tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		node := root.Child(i)
		if node.Type() != "import_from_statement" {
			continue
		}
		relNode, dots, dotted := findRelativeImport(node, []byte(content))
		if relNode == nil {
			continue
		}
		targets = append(targets, resolveDotted(importerDir, dots, dotted))
	}
	return targets, nil
}

func (p *Plugin) ImportSupport() (plugin.ImportSupport, bool)           { return p, true }
func (p *Plugin) WorkspaceSupport() (plugin.WorkspaceSupport, bool)     { return nil, false }
func (p *Plugin) RefactoringSupport() (plugin.RefactoringSupport, bool) { return p, true }
func (p *Plugin) AnalysisSupport() (plugin.AnalysisSupport, bool)       { return nil, false }
func (p *Plugin) Detector() (plugin.ReferenceDetectorCapability, bool)  { return nil, false }

func (p *Plugin) UpdateImportReference(ctx context.Context, filePath, content string, update plugin.DependencyUpdate) (string, error) {
	out, _, ok := p.RewriteFileReferences(ctx, content, update.OldReference, update.NewReference, filePath, "", nil)
	if !ok {
		return content, nil
	}
	return out, nil
}

// InsertionPointAfterImports places new declarations after the last
// top-level import_statement/import_from_statement.
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
		if child.Type() == "import_statement" || child.Type() == "import_from_statement" {
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
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("pyplugin: parse failed: %w", err)
	}
	return tree, nil
}

// findRelativeImport returns the relative_import node inside an
// import_from_statement along with its dot count and dotted module
// name, or nil if this is an absolute import.
func findRelativeImport(node *sitter.Node, content []byte) (rel *sitter.Node, dots int, dotted string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "relative_import" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			gc := child.Child(j)
			switch gc.Type() {
			case "import_prefix":
				dots = int(gc.EndByte() - gc.StartByte())
			case "dotted_name":
				dotted = string(content[gc.StartByte():gc.EndByte()])
			}
		}
		return child, dots, dotted
	}
	return nil, 0, ""
}

// resolveDotted converts a relative import (dots + optional dotted
// module name) into a project-relative filesystem path with no
// extension, so it can be compared against oldPath.
func resolveDotted(importerDir string, dots int, dotted string) string {
	dir := importerDir
	for i := 1; i < dots; i++ {
		dir = path.Dir(dir)
	}
	if dotted == "" {
		return dir
	}
	return path.Join(dir, strings.ReplaceAll(dotted, ".", "/"))
}

// dottedSpecifier converts a project-relative target path back into a
// relative-import specifier (dots + dotted name) relative to importerDir.
func dottedSpecifier(importerDir, targetPath string) string {
	targetPath = strings.TrimSuffix(strings.TrimSuffix(targetPath, ".py"), ".pyi")
	rel, dots := relativeDots(importerDir, targetPath)
	prefix := strings.Repeat(".", dots)
	if rel == "" {
		return prefix
	}
	return prefix + strings.ReplaceAll(rel, "/", ".")
}

func relativeDots(base, target string) (string, int) {
	baseParts := strings.Split(strings.Trim(base, "/"), "/")
	targetParts := strings.Split(strings.Trim(target, "/"), "/")

	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	dots := len(baseParts) - common + 1
	rel := strings.Join(targetParts[common:], "/")
	return rel, dots
}
