// Package manifest defines the interface the planner uses to request
// updates to package-manifest files (Cargo.toml, package.json,
// pyproject.toml) without owning their internals.
//
// The concrete adapters here are one implementation of that interface.
// The package also carries a hash-based scan/diff of a project's tracked
// files, adapted from "detect drift in arbitrary tracked files" to
// "detect and edit workspace member lists in a specific manifest format".
package manifest

import "context"

// Kind identifies a manifest format.
type Kind string

const (
	KindCargo      Kind = "cargo"       // Cargo.toml
	KindPackageJSON Kind = "package_json" // package.json
	KindPyProject  Kind = "pyproject"   // pyproject.toml
)

// MemberUpdate describes adding or removing a workspace member / a
// dependency entry in a manifest.
type MemberUpdate struct {
	// AddMembers are workspace-relative paths (Cargo workspace members,
	// npm/pnpm workspaces globs) to add.
	AddMembers []string
	// RemoveMembers are workspace-relative paths to remove.
	RemoveMembers []string
	// AddDependencyName, if non-empty, adds a dependency on this package/crate name.
	AddDependencyName string
	AddDependencyPath string
	// RemoveDependencyName, if non-empty, removes a dependency by name.
	RemoveDependencyName string
}

// Support edits one manifest format. Adapters are registered in a
// Registry, not exposed through the language plugins.
type Support interface {
	// Kind identifies which manifest format this adapter edits.
	Kind() Kind

	// ManifestFileName is the basename this adapter recognizes
	// (e.g. "Cargo.toml").
	ManifestFileName() string

	// ApplyMemberUpdate reads content, applies update, and returns the
	// new content. It never touches disk; the executor is responsible
	// for snapshotting and writing the result.
	ApplyMemberUpdate(ctx context.Context, content []byte, update MemberUpdate) ([]byte, error)
}

// Registry maps manifest basenames to their Support adapter; callers
// that need a manifest adapter look it up here by basename.
type Registry struct {
	byName map[string]Support
}

// NewRegistry creates an empty manifest registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Support)}
}

// Register adds an adapter, indexed by its ManifestFileName.
func (r *Registry) Register(s Support) {
	r.byName[s.ManifestFileName()] = s
}

// ForFileName returns the adapter registered for basename, if any.
func (r *Registry) ForFileName(basename string) (Support, bool) {
	s, ok := r.byName[basename]
	return s, ok
}
