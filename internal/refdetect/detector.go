package refdetect

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/forgeweave/refactorcore/internal/plugin"
)

// ignoredDirs mirrors internal/manifest's skip-list; duplicated rather
// than imported because this package's concern (candidate-file
// enumeration for reference detection) is conceptually separate from
// manifest diffing, even though the directory names happen to coincide.
var ignoredDirs = map[string]struct{}{
	".git": {}, "node_modules": {}, "vendor": {}, "__pycache__": {}, "venv": {}, ".venv": {},
	"dist": {}, "build": {}, "target": {}, "bin": {}, "obj": {},
}

// RenameKind classifies a (old_path, new_path) pair.
type RenameKind int

const (
	SingleFileRename RenameKind = iota
	CrateDirectoryRename
	PlainDirectoryRename
)

// Detector finds every file whose content references a path about to
// be renamed.
type Detector struct {
	registry *plugin.Registry
	cache    *importCache
}

// Option configures a Detector.
type Option func(*options)

type options struct {
	cacheTTL time.Duration
}

// WithCacheTTL overrides how long a cached per-file parse survives.
func WithCacheTTL(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.cacheTTL = d
		}
	}
}

// New constructs a Detector backed by an in-memory cache.
func New(registry *plugin.Registry, opts ...Option) (*Detector, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := newImportCache(o.cacheTTL)
	if err != nil {
		return nil, err
	}
	return &Detector{registry: registry, cache: cache}, nil
}

// Close releases the detector's cache.
func (d *Detector) Close() error {
	return d.cache.Close()
}

// ClassifyRename inspects oldPath on disk to decide whether this is a
// single-file rename, a Cargo crate directory rename, or a plain
// directory rename.
func ClassifyRename(projectRoot, oldPath string) RenameKind {
	info, err := os.Stat(filepath.Join(projectRoot, oldPath))
	if err != nil || !info.IsDir() {
		return SingleFileRename
	}
	if _, err := os.Stat(filepath.Join(projectRoot, oldPath, "Cargo.toml")); err == nil {
		return CrateDirectoryRename
	}
	return PlainDirectoryRename
}

// FindImporters returns every project-relative file path whose content
// references oldPath, sorted lexicographically, excluding any file that
// lies inside the directory being renamed. oldPath and newPath are
// project-relative filesystem paths; for
// symbolic-import languages (Go, Rust, Java) this translates them to
// each plugin's native module-path form via ModulePathFor before
// invoking its detector.
func (d *Detector) FindImporters(ctx context.Context, projectRoot, oldPath, newPath string) ([]string, error) {
	candidates, err := d.enumerateCandidates(projectRoot)
	if err != nil {
		return nil, err
	}

	byPlugin := make(map[plugin.Plugin][]string)
	for _, rel := range candidates {
		p, ok := d.registry.FindByExtension(filepath.Ext(rel))
		if !ok {
			continue
		}
		byPlugin[p] = append(byPlugin[p], rel)
	}

	oldDir := strings.TrimSuffix(filepath.ToSlash(oldPath), "/") + "/"

	var found []string
	for p, files := range byPlugin {
		abs := make([]string, len(files))
		for i, rel := range files {
			abs[i] = filepath.Join(projectRoot, rel)
		}

		if detector, ok := p.Detector(); ok {
			oldIsDir := ClassifyRename(projectRoot, oldPath) != SingleFileRename
			symbolicOld, err := detector.ModulePathFor(projectRoot, oldPath, oldIsDir)
			if err != nil {
				continue
			}
			importers, err := detector.FindImportersOf(ctx, symbolicOld, projectRoot, abs, nil)
			if err != nil {
				continue
			}
			for _, imp := range importers {
				rel, rerr := filepath.Rel(projectRoot, imp)
				if rerr != nil {
					continue
				}
				found = append(found, filepath.ToSlash(rel))
			}
			continue
		}

		lister, ok := anyImportTargetLister(p)
		if !ok {
			continue
		}
		for i, rel := range files {
			matches, err := d.matchesGenericFallback(ctx, lister, abs[i], rel, oldPath)
			if err != nil || !matches {
				continue
			}
			found = append(found, rel)
		}
	}

	dedup := make(map[string]struct{}, len(found))
	result := make([]string, 0, len(found))
	for _, rel := range found {
		if strings.HasPrefix(rel+"/", oldDir) || rel == strings.TrimSuffix(oldDir, "/") {
			continue
		}
		if _, seen := dedup[rel]; seen {
			continue
		}
		dedup[rel] = struct{}{}
		result = append(result, rel)
	}
	sort.Strings(result)
	return result, nil
}

// matchesGenericFallback parses (or reuses a cached parse of) the
// candidate importer, resolves every import target relative to it, and
// checks whether any resolves to oldPath.
func (d *Detector) matchesGenericFallback(ctx context.Context, lister plugin.ImportTargetLister, absPath, relPath, oldPath string) (bool, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return false, err
	}

	if targets, ok := d.cache.get(relPath, info.ModTime()); ok {
		return containsTarget(targets, oldPath), nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return false, err
	}
	targets, err := lister.ResolvedImportTargets(ctx, string(content), relPath)
	if err != nil {
		return false, err
	}
	d.cache.put(relPath, info.ModTime(), targets)
	return containsTarget(targets, oldPath), nil
}

// containsTarget reports whether any resolved import target equals
// oldPath (a single-file or extension-stripped rename) or names a file
// inside it (a directory rename, where every path under the old
// directory shifts along with it).
func containsTarget(targets []string, oldPath string) bool {
	normalized := strings.TrimSuffix(oldPath, filepath.Ext(oldPath))
	prefix := oldPath + "/"
	for _, t := range targets {
		if t == oldPath || t == normalized || strings.HasPrefix(t, prefix) {
			return true
		}
	}
	return false
}

// anyImportTargetLister type-asserts p against the optional
// ImportTargetLister capability. Plugins expose it as a plain method,
// not through Plugin.Detector(), since it isn't a symbolic detector.
func anyImportTargetLister(p plugin.Plugin) (plugin.ImportTargetLister, bool) {
	lister, ok := p.(plugin.ImportTargetLister)
	return lister, ok
}

// enumerateCandidates walks projectRoot, skips ignored directories, and
// keeps only files whose extension some registered plugin claims.
func (d *Detector) enumerateCandidates(projectRoot string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(projectRoot, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != projectRoot && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			if _, skip := ignoredDirs[name]; skip {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := d.registry.FindByExtension(filepath.Ext(name)); !ok {
			return nil
		}
		rel, rerr := filepath.Rel(projectRoot, path)
		if rerr != nil {
			return nil
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
