package manifest

import (
	"context"
	"fmt"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// PyProjectSupport edits a pyproject.toml's workspace member list
// ([tool.uv.workspace].members, the convention used by the uv and
// hatch workspace tooling) and its dependency list, in either of the
// two formats a pyproject.toml commonly uses: PEP 621's
// [project].dependencies array, or Poetry's [tool.poetry.dependencies]
// table (package name -> version specifier).
type PyProjectSupport struct{}

// NewPyProjectSupport constructs the pyproject.toml manifest adapter.
func NewPyProjectSupport() *PyProjectSupport { return &PyProjectSupport{} }

func (p *PyProjectSupport) Kind() Kind { return KindPyProject }

func (p *PyProjectSupport) ManifestFileName() string { return "pyproject.toml" }

// pyProjectFormat identifies which of the two dependency-declaration
// conventions a parsed pyproject.toml uses.
type pyProjectFormat int

const (
	pyProjectUnknown pyProjectFormat = iota
	pyProjectPEP621
	pyProjectPoetry
)

// detectPyProjectFormat checks for Poetry's [tool.poetry.dependencies]
// first since it is the more specific signal; a bare [project] table
// without it is PEP 621.
func detectPyProjectFormat(doc map[string]any) pyProjectFormat {
	if tool, ok := doc["tool"].(map[string]any); ok {
		if poetry, ok := tool["poetry"].(map[string]any); ok {
			if _, ok := poetry["dependencies"]; ok {
				return pyProjectPoetry
			}
		}
	}
	if _, ok := doc["project"]; ok {
		return pyProjectPEP621
	}
	return pyProjectUnknown
}

func (p *PyProjectSupport) ApplyMemberUpdate(ctx context.Context, content []byte, update MemberUpdate) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("manifest: parsing pyproject.toml: %w", err)
	}

	if len(update.AddMembers) > 0 || len(update.RemoveMembers) > 0 {
		tool := subtable(doc, "tool")
		uv := subtable(tool, "uv")
		workspace := subtable(uv, "workspace")
		members := toStringSlice(workspace["members"])
		members = removeAll(members, update.RemoveMembers)
		members = appendMissing(members, update.AddMembers)
		workspace["members"] = members
		uv["workspace"] = workspace
		tool["uv"] = uv
		doc["tool"] = tool
	}

	if update.AddDependencyName != "" || update.RemoveDependencyName != "" {
		switch detectPyProjectFormat(doc) {
		case pyProjectPoetry:
			applyPoetryDependencyUpdate(doc, update)
		default:
			project := subtable(doc, "project")
			deps := toStringSlice(project["dependencies"])
			if update.RemoveDependencyName != "" {
				deps = removeByPrefix(deps, update.RemoveDependencyName)
			}
			if update.AddDependencyName != "" {
				spec := update.AddDependencyName
				deps = appendMissing(deps, []string{spec})
			}
			project["dependencies"] = deps
			doc["project"] = project
		}
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("manifest: re-encoding pyproject.toml: %w", err)
	}
	return out, nil
}

// applyPoetryDependencyUpdate edits [tool.poetry.dependencies], a table
// keyed by package name rather than an array of PEP 508 specifiers.
// RemoveDependencyName/AddDependencyName name the package directly; an
// added dependency with no version constraint gets "*", matching
// Poetry's own convention for an unconstrained dependency.
func applyPoetryDependencyUpdate(doc map[string]any, update MemberUpdate) {
	tool := subtable(doc, "tool")
	poetry := subtable(tool, "poetry")
	deps := subtable(poetry, "dependencies")

	if update.RemoveDependencyName != "" {
		delete(deps, update.RemoveDependencyName)
	}
	if update.AddDependencyName != "" {
		name, constraint := splitPoetrySpec(update.AddDependencyName)
		if constraint == "" {
			constraint = "*"
		}
		deps[name] = constraint
	}

	poetry["dependencies"] = deps
	tool["poetry"] = poetry
	doc["tool"] = tool
}

// splitPoetrySpec splits a "name>=1.2"-style specifier into Poetry's
// separate name/constraint halves; a bare name yields an empty
// constraint.
func splitPoetrySpec(spec string) (name, constraint string) {
	name = spec
	for _, sep := range []string{"==", ">=", "<=", "~=", "^", "!=", ">", "<"} {
		if idx := strings.Index(name, sep); idx >= 0 {
			return strings.TrimSpace(name[:idx]), strings.TrimSpace(name[idx:])
		}
	}
	return strings.TrimSpace(name), ""
}

func subtable(parent map[string]any, key string) map[string]any {
	sub, _ := parent[key].(map[string]any)
	if sub == nil {
		sub = map[string]any{}
	}
	return sub
}

// removeByPrefix drops PEP 508 dependency specifiers whose package name
// (the substring before any version/extras marker) matches name.
func removeByPrefix(specs []string, name string) []string {
	out := specs[:0:0]
	for _, s := range specs {
		pkgName := s
		for _, sep := range []string{"==", ">=", "<=", "~=", "!=", ">", "<", "[", " "} {
			if idx := strings.Index(pkgName, sep); idx >= 0 {
				pkgName = pkgName[:idx]
			}
		}
		if strings.TrimSpace(pkgName) != name {
			out = append(out, s)
		}
	}
	return out
}
