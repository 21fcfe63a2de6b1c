// Package rustplugin implements the plugin.Plugin capability interface
// for Rust source files. Rust `use` paths are symbolic (crate-relative
// or `crate::`/`super::`/`self::`-rooted module paths), not filesystem
// paths, so this plugin resolves and rewrites `use_declaration` nodes
// the same way golangplugin rewrites Go import specs, rather than doing
// file-path resolution like tsplugin/pyplugin: a symbolic-import
// language needs its own detector capability, not the generic
// path-based fallback.
//
// It uses sitter.NewParser + rust.GetLanguage() and walks
// tree-sitter-rust's use_declaration grammar (scoped_identifier chains
// joined by `::`) directly, the same traversal style golangplugin and
// tsplugin use for their own grammars' import node shapes.
package rustplugin

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"

	"github.com/forgeweave/refactorcore/internal/plugin"
)

// Plugin rewrites Rust `use` declarations whose path is rooted at, or a
// descendant of, the crate-relative module path being moved.
type Plugin struct{}

// New constructs the Rust plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) HandledExtensions() []string { return []string{".rs"} }
func (p *Plugin) Priority() int               { return 0 }
func (p *Plugin) Name() string                { return "rustplugin" }

// RewriteFileReferences rewrites every use_declaration path equal to or
// rooted under oldPath (both given as "::"-joined module paths, e.g.
// "crate::utils::old_module") to newPath.
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
	walkUseDeclarations(root, []byte(content), func(pathNode *sitter.Node, modPath string) {
		rewritten, changed := rewriteModulePath(modPath, oldPath, newPath)
		if !changed {
			return
		}
		replacements = append(replacements, replacement{
			startByte: pathNode.StartByte(),
			endByte:   pathNode.EndByte(),
			newText:   rewritten,
		})
	})

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
func (p *Plugin) WorkspaceSupport() (plugin.WorkspaceSupport, bool)     { return p, true }
func (p *Plugin) RefactoringSupport() (plugin.RefactoringSupport, bool) { return p, true }
func (p *Plugin) AnalysisSupport() (plugin.AnalysisSupport, bool)       { return nil, false }
func (p *Plugin) Detector() (plugin.ReferenceDetectorCapability, bool)  { return p, true }

// FindImportersOf implements plugin.ReferenceDetectorCapability:
// crate-relative `use` paths are symbolic, so a candidate file is an
// importer of oldPath whenever one of its use_declaration paths equals
// or is nested under it, regardless of any filesystem path appearing
// in the source.
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
		walkUseDeclarations(tree.RootNode(), content, func(_ *sitter.Node, modPath string) {
			if found {
				return
			}
			if modPath == oldPath || strings.HasPrefix(modPath, oldPath+"::") {
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

// ModulePathFor implements plugin.ReferenceDetectorCapability: it walks
// upward from filePath looking for the nearest Cargo.toml to find the
// crate root, reads the crate name from its [package] table via
// go-toml/v2 (the same library internal/manifest's CargoSupport uses to
// edit this file), and joins the path between the crate's src/ and
// filePath with "::", matching Rust's module-path-mirrors-directory
// convention. isDir tells it whether filePath itself names the module
// directory being renamed or a file inside it — the crate search starts
// one level up only in the file case.
//
// When filePath names a crate's own root directory (a whole-crate
// rename, not a submodule within one), the symbolic reference other
// crates use is the bare crate name from Cargo.toml — "crate::" only
// resolves within the crate itself and never appears in another
// crate's use declarations.
func (p *Plugin) ModulePathFor(projectRoot, filePath string, isDir bool) (string, error) {
	entry := filepath.Join(projectRoot, filePath)

	searchDir := entry
	if !isDir {
		searchDir = filepath.Dir(entry)
	}

	crateDir, crateName, err := findCrateRoot(searchDir)
	if err != nil {
		return "", err
	}

	if isDir && filepath.Clean(entry) == filepath.Clean(crateDir) {
		return crateName, nil
	}

	srcDir := filepath.Join(crateDir, "src")
	rel, err := filepath.Rel(srcDir, entry)
	if err != nil {
		return "", fmt.Errorf("rustplugin: resolving module path: %w", err)
	}
	rel = strings.TrimSuffix(filepath.ToSlash(rel), ".rs")
	rel = strings.TrimSuffix(rel, "/mod")
	if rel == "main" || rel == "lib" || rel == "." {
		return "crate", nil
	}
	return "crate::" + strings.ReplaceAll(rel, "/", "::"), nil
}

type cargoPackageDoc struct {
	Package struct {
		Name string `toml:"name"`
	} `toml:"package"`
}

func findCrateRoot(dir string) (string, string, error) {
	for {
		manifestPath := filepath.Join(dir, "Cargo.toml")
		if content, err := os.ReadFile(manifestPath); err == nil {
			var doc cargoPackageDoc
			if err := toml.Unmarshal(content, &doc); err == nil && doc.Package.Name != "" {
				return dir, doc.Package.Name, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("rustplugin: no Cargo.toml found above %s", dir)
		}
		dir = parent
	}
}

func (p *Plugin) UpdateImportReference(ctx context.Context, path, content string, update plugin.DependencyUpdate) (string, error) {
	out, _, ok := p.RewriteFileReferences(ctx, content, update.OldReference, update.NewReference, path, "", nil)
	if !ok {
		return content, nil
	}
	return out, nil
}

// ExecuteConsolidationPostProcessing implements plugin.WorkspaceSupport
// for merging one crate into another: this is a no-op placeholder for
// the text-level part of the job, since the manifest removal itself runs
// through internal/manifest's CargoSupport — the hook exists so the
// executor has a single dispatch point per language regardless of how
// much of the work that language needs here.
func (p *Plugin) ExecuteConsolidationPostProcessing(ctx context.Context, sourceCrateName, targetCrateName, targetModuleName string, paths []string, projectRoot string) error {
	return nil
}

// InsertionPointAfterImports places new declarations after the last
// top-level use_declaration.
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
		if child.Type() == "use_declaration" {
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
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("rustplugin: parse failed: %w", err)
	}
	return tree, nil
}

// walkUseDeclarations visits the path expression of every top-level
// use_declaration, invoking fn with the path node and its "::"-joined
// textual form. For an alias via `as`, the clause's path is visited
// and the alias name is kept; grouped paths `{a, b}` are left untouched
// since they don't carry a full module path to rewrite.
func walkUseDeclarations(root *sitter.Node, content []byte, fn func(pathNode *sitter.Node, modPath string)) {
	for i := 0; i < int(root.ChildCount()); i++ {
		decl := root.Child(i)
		if decl.Type() != "use_declaration" {
			continue
		}
		for j := 0; j < int(decl.ChildCount()); j++ {
			child := decl.Child(j)
			switch child.Type() {
			case "scoped_identifier", "identifier", "crate", "self", "super":
				fn(child, string(content[child.StartByte():child.EndByte()]))
			case "use_as_clause":
				if path := child.ChildByFieldName("path"); path != nil {
					fn(path, string(content[path.StartByte():path.EndByte()]))
				}
			}
		}
	}
}

func rewriteModulePath(modPath, oldPath, newPath string) (string, bool) {
	if modPath == oldPath {
		return newPath, true
	}
	if strings.HasPrefix(modPath, oldPath+"::") {
		return newPath + strings.TrimPrefix(modPath, oldPath), true
	}
	return modPath, false
}
