package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forgeweave/refactorcore/internal/telemetry"
	"github.com/forgeweave/refactorcore/internal/treecache"
)

// runServe runs the same /healthz and /metrics surface the long-running
// service exposes, plus a tree-cache watcher over the project root: for
// a process that stays up across many plan applications, a file changed
// outside refactorctl's own write path (an editor save, a git checkout)
// must not leave a stale parsed tree behind.
func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	watcher, err := treecache.NewWatcher(a.cache, a.logger.Slog())
	if err != nil {
		return fmt.Errorf("start tree-cache watcher: %w", err)
	}
	defer watcher.Close()

	if err := addWatchDirs(watcher, projectRoot); err != nil {
		return fmt.Errorf("watch project tree: %w", err)
	}
	go watcher.Run()

	srv := telemetry.NewServer(fmt.Sprintf(":%d", telemetryPort), a.metrics)

	fmt.Printf("listening on :%d (/healthz, /metrics), watching %s\n", telemetryPort, projectRoot)
	return srv.Run(ctx)
}

// addWatchDirs registers every non-ignored directory under root with
// the watcher; fsnotify watches are non-recursive, so each directory
// needs its own Add.
func addWatchDirs(watcher *treecache.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if _, skip := walkIgnored[d.Name()]; skip && p != root {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}
