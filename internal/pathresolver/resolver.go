// Package pathresolver translates between project-relative and absolute
// paths and enforces that every path the core handles stays inside the
// project root.
//
// Unicode normalization of paths (HFS/APFS decomposed forms vs NFC) is
// intentionally not addressed here — it's a filesystem-dependent concern
// left to the caller.
package pathresolver

import (
	"path/filepath"
	"strings"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// AbsolutePath is a canonicalized path guaranteed (at the time it was
// constructed) to be a descendant of some Resolver's project root.
type AbsolutePath string

// String implements fmt.Stringer.
func (p AbsolutePath) String() string { return string(p) }

// Resolver enforces containment within a single project root. All other
// components receive paths only through this interface.
type Resolver struct {
	root string
}

// New creates a Resolver rooted at root, which must already be an
// absolute, cleaned directory path.
func New(root string) (*Resolver, error) {
	if !filepath.IsAbs(root) {
		return nil, &editplan.FileIOError{Op: "resolve-root", Path: root, Err: errNotAbsolute}
	}
	return &Resolver{root: filepath.Clean(root)}, nil
}

var errNotAbsolute = errRoot("project root must be an absolute path")

type errRoot string

func (e errRoot) Error() string { return string(e) }

// Root returns the project root this resolver enforces containment against.
func (r *Resolver) Root() string { return r.root }

// ToAbsoluteChecked resolves p (absolute or relative to the project root)
// to an AbsolutePath, failing with editplan.ErrPathEscape if the result is
// not a descendant of the project root.
func (r *Resolver) ToAbsoluteChecked(p string) (AbsolutePath, error) {
	var abs string
	if filepath.IsAbs(p) {
		abs = filepath.Clean(p)
	} else {
		abs = filepath.Clean(filepath.Join(r.root, p))
	}

	if !r.contains(abs) {
		return "", &pathEscapeError{Path: p, Root: r.root}
	}
	return AbsolutePath(abs), nil
}

// contains reports whether abs is r.root itself or a descendant of it.
func (r *Resolver) contains(abs string) bool {
	if abs == r.root {
		return true
	}
	rel, err := filepath.Rel(r.root, abs)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RelativeTo returns p relative to the project root, for use in log
// messages and manifest entries. p must already be contained.
func (r *Resolver) RelativeTo(p AbsolutePath) string {
	rel, err := filepath.Rel(r.root, string(p))
	if err != nil {
		return string(p)
	}
	return rel
}

type pathEscapeError struct {
	Path string
	Root string
}

func (e *pathEscapeError) Error() string {
	return editplan.ErrPathEscape.Error() + ": " + e.Path + " is not inside " + e.Root
}

func (e *pathEscapeError) Unwrap() error { return editplan.ErrPathEscape }

// Is allows errors.Is(err, editplan.ErrPathEscape) to match.
func (e *pathEscapeError) Is(target error) bool { return target == editplan.ErrPathEscape }
