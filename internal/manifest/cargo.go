package manifest

import (
	"context"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// CargoSupport edits a Cargo.toml's [workspace] members list and
// top-level [dependencies] table, the two things a crate-directory
// rename or an extract-module-to-package intent needs.
type CargoSupport struct{}

// NewCargoSupport constructs the Cargo.toml manifest adapter.
func NewCargoSupport() *CargoSupport { return &CargoSupport{} }

func (c *CargoSupport) Kind() Kind { return KindCargo }

func (c *CargoSupport) ManifestFileName() string { return "Cargo.toml" }

// ApplyMemberUpdate decodes content generically (to avoid losing tables
// this adapter doesn't model), mutates the workspace members and
// dependencies sections it understands, and re-encodes.
func (c *CargoSupport) ApplyMemberUpdate(ctx context.Context, content []byte, update MemberUpdate) ([]byte, error) {
	var doc map[string]any
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("manifest: parsing Cargo.toml: %w", err)
	}

	if len(update.AddMembers) > 0 || len(update.RemoveMembers) > 0 {
		ws, _ := doc["workspace"].(map[string]any)
		if ws == nil {
			ws = map[string]any{}
			doc["workspace"] = ws
		}
		members := toStringSlice(ws["members"])
		members = removeAll(members, update.RemoveMembers)
		members = appendMissing(members, update.AddMembers)
		ws["members"] = members
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
			entry := map[string]any{}
			if update.AddDependencyPath != "" {
				entry["path"] = update.AddDependencyPath
			}
			deps[update.AddDependencyName] = entry
		}
	}

	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("manifest: re-encoding Cargo.toml: %w", err)
	}
	return out, nil
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func removeAll(items []string, remove []string) []string {
	if len(remove) == 0 {
		return items
	}
	skip := make(map[string]struct{}, len(remove))
	for _, r := range remove {
		skip[r] = struct{}{}
	}
	out := items[:0:0]
	for _, it := range items {
		if _, ok := skip[it]; !ok {
			out = append(out, it)
		}
	}
	return out
}

func appendMissing(items []string, add []string) []string {
	present := make(map[string]struct{}, len(items))
	for _, it := range items {
		present[it] = struct{}{}
	}
	for _, a := range add {
		if _, ok := present[a]; !ok {
			items = append(items, a)
			present[a] = struct{}{}
		}
	}
	return items
}
