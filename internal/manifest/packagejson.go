package manifest

import (
	"context"
	"fmt"

	json "github.com/goccy/go-json"
)

// PackageJSONSupport edits the "workspaces" array and "dependencies"
// object of a package.json, the npm/pnpm/yarn-workspaces equivalent of
// Cargo's [workspace] members. It uses goccy/go-json as a drop-in
// encoding/json replacement for its faster marshal/unmarshal path.
type PackageJSONSupport struct{}

// NewPackageJSONSupport constructs the package.json manifest adapter.
func NewPackageJSONSupport() *PackageJSONSupport { return &PackageJSONSupport{} }

func (p *PackageJSONSupport) Kind() Kind { return KindPackageJSON }

func (p *PackageJSONSupport) ManifestFileName() string { return "package.json" }

func (p *PackageJSONSupport) ApplyMemberUpdate(ctx context.Context, content []byte, update MemberUpdate) ([]byte, error) {
	var doc map[string]any
	if err := json.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("manifest: parsing package.json: %w", err)
	}

	if len(update.AddMembers) > 0 || len(update.RemoveMembers) > 0 {
		members := toStringSlice(doc["workspaces"])
		members = removeAll(members, update.RemoveMembers)
		members = appendMissing(members, update.AddMembers)
		doc["workspaces"] = members
	}

	if update.AddDependencyName != "" || update.RemoveDependencyName != "" {
		deps, _ := doc["dependencies"].(map[string]any)
		if deps == nil {
			deps = map[string]any{}
			doc["dependencies"] = deps
		}
		if update.RemoveDependencyName != "" {
			delete(deps, update.RemoveDependencyName)
		}
		if update.AddDependencyName != "" {
			version := "*"
			if update.AddDependencyPath != "" {
				version = "file:" + update.AddDependencyPath
			}
			deps[update.AddDependencyName] = version
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("manifest: re-encoding package.json: %w", err)
	}
	return append(out, '\n'), nil
}
