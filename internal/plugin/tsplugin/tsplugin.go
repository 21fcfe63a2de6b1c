// Package tsplugin implements the plugin.Plugin capability interface for
// TypeScript/TSX/JavaScript/JSX files. Unlike Go or Rust, these
// languages import by relative file path, so a rename is matched by
// resolving each import specifier against the importer's own directory
// and comparing to oldPath — the path-based fallback case, realized here
// as the plugin's own rewrite logic rather than a separate generic
// detector. Specifiers prefixed with "@/" or "~/" (tsconfig.json
// path-mapping aliases, commonly rooted at the project directory) are
// resolved against projectRoot instead of importerDir and rewritten
// keeping the same alias prefix.
//
// It walks tree-sitter-typescript's import_statement / import_clause /
// string nodes directly (including CommonJS `require('...')` calls,
// handled in walkSpecifiers).
package tsplugin

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/forgeweave/refactorcore/internal/plugin"
)

// Plugin rewrites relative ES module / CommonJS import specifiers.
type Plugin struct{}

// New constructs the TypeScript/JavaScript plugin.
func New() *Plugin { return &Plugin{} }

func (p *Plugin) HandledExtensions() []string {
	return []string{".ts", ".tsx", ".js", ".jsx", ".mjs", ".cjs"}
}
func (p *Plugin) Priority() int { return 0 }
func (p *Plugin) Name() string  { return "tsplugin" }

// RewriteFileReferences resolves every import/require specifier in
// content relative to importerPath and rewrites it if it points at
// oldPath, producing a specifier from importerPath's directory to
// newPath instead (an alias specifier keeps its alias prefix).
func (p *Plugin) RewriteFileReferences(ctx context.Context, content, oldPath, newPath, importerPath, projectRoot string, hint *plugin.RewriteHint) (string, int, bool) {
	tree, err := parse(ctx, []byte(content), importerPath)
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
	walkSpecifiers(root, []byte(content), func(specNode *sitter.Node, spec string) {
		var rewritten string
		if alias, rest, ok := resolveAlias(spec); ok {
			resolved := stripExt(rest)
			if resolved != stripExt(oldPath) && resolved != oldPath {
				return
			}
			rewritten = alias + stripExt(newPath)
		} else {
			resolved := resolveRelative(importerDir, spec)
			if resolved != stripExt(oldPath) && resolved != oldPath {
				return
			}
			rewritten = relativeSpecifier(importerDir, newPath)
		}
		replacements = append(replacements, replacement{
			startByte: specNode.StartByte(),
			endByte:   specNode.EndByte(),
			newText:   fmt.Sprintf("%q", rewritten),
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

// ResolvedImportTargets returns every relative import/require specifier
// in content resolved against importerPath's directory to a project-
// relative, extension-stripped path. internal/refdetect caches this
// list per (file, mtime) so the generic path-based fallback can check
// many candidate renames against one parse.
func (p *Plugin) ResolvedImportTargets(ctx context.Context, content, importerPath string) ([]string, error) {
	tree, err := parse(ctx, []byte(content), importerPath)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	importerDir := path.Dir(importerPath)
	var targets []string
	walkSpecifiers(tree.RootNode(), []byte(content), func(_ *sitter.Node, spec string) {
		if _, rest, ok := resolveAlias(spec); ok {
			targets = append(targets, stripExt(rest))
			return
		}
		if !strings.HasPrefix(spec, ".") {
			return
		}
		targets = append(targets, resolveRelative(importerDir, spec))
	})
	return targets, nil
}

// resolveAlias reports whether spec uses a tsconfig.json path-mapping
// alias prefix ("@/" or "~/", by convention rooted at the project
// directory) and, if so, the prefix and the path following it.
func resolveAlias(spec string) (alias, rest string, ok bool) {
	for _, a := range []string{"@/", "~/"} {
		if strings.HasPrefix(spec, a) {
			return a, strings.TrimPrefix(spec, a), true
		}
	}
	return "", "", false
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

// InsertionPointAfterImports places new declarations right after the
// last top-level import_statement.
func (p *Plugin) InsertionPointAfterImports(content string) (int, int) {
	tree, err := parse(context.Background(), []byte(content), "file.ts")
	if err != nil {
		return 0, 0
	}
	defer tree.Close()

	root := tree.RootNode()
	last := -1
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child.Type() == "import_statement" {
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

func parse(ctx context.Context, content []byte, filePath string) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	switch {
	case strings.HasSuffix(filePath, ".tsx"):
		parser.SetLanguage(tsx.GetLanguage())
	case strings.HasSuffix(filePath, ".ts"):
		parser.SetLanguage(typescript.GetLanguage())
	default:
		parser.SetLanguage(javascript.GetLanguage())
	}
	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("tsplugin: parse failed: %w", err)
	}
	return tree, nil
}

// walkSpecifiers visits every import/require/export-from string literal
// in the file (ES `import ... from "x"`, `export ... from "x"`,
// CommonJS `require("x")`).
func walkSpecifiers(root *sitter.Node, content []byte, fn func(node *sitter.Node, spec string)) {
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement", "export_statement":
			for i := 0; i < int(n.ChildCount()); i++ {
				c := n.Child(i)
				if c.Type() == "string" {
					fn(c, stringContent(c, content))
				}
			}
		case "call_expression":
			if callee := n.ChildByFieldName("function"); callee != nil && callee.Type() == "identifier" {
				name := string(content[callee.StartByte():callee.EndByte()])
				if name == "require" {
					args := n.ChildByFieldName("arguments")
					if args != nil {
						for i := 0; i < int(args.ChildCount()); i++ {
							c := args.Child(i)
							if c.Type() == "string" {
								fn(c, stringContent(c, content))
							}
						}
					}
				}
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			visit(n.Child(i))
		}
	}
	visit(root)
}

func stringContent(n *sitter.Node, content []byte) string {
	raw := string(content[n.StartByte():n.EndByte()])
	raw = strings.Trim(raw, "'\"`")
	return raw
}

func resolveRelative(importerDir, spec string) string {
	if !strings.HasPrefix(spec, ".") {
		return spec
	}
	return stripExt(path.Clean(path.Join(importerDir, spec)))
}

func relativeSpecifier(importerDir, targetPath string) string {
	rel, err := relPath(importerDir, stripExt(targetPath))
	if err != nil {
		return targetPath
	}
	if !strings.HasPrefix(rel, ".") {
		rel = "./" + rel
	}
	return rel
}

func relPath(base, target string) (string, error) {
	baseParts := strings.Split(strings.Trim(base, "/"), "/")
	targetParts := strings.Split(strings.Trim(target, "/"), "/")

	common := 0
	for common < len(baseParts) && common < len(targetParts) && baseParts[common] == targetParts[common] {
		common++
	}

	var up []string
	for i := common; i < len(baseParts); i++ {
		up = append(up, "..")
	}
	rel := append(up, targetParts[common:]...)
	if len(rel) == 0 {
		return ".", nil
	}
	return strings.Join(rel, "/"), nil
}

func stripExt(p string) string {
	for _, ext := range []string{".tsx", ".ts", ".jsx", ".js", ".mjs", ".cjs"} {
		if strings.HasSuffix(p, ext) {
			return strings.TrimSuffix(p, ext)
		}
	}
	return p
}
