package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/forgeweave/refactorcore/internal/executor"
	"github.com/forgeweave/refactorcore/internal/manifest"
	"github.com/forgeweave/refactorcore/internal/pathresolver"
	"github.com/forgeweave/refactorcore/internal/planner"
	"github.com/forgeweave/refactorcore/internal/plugin"
	"github.com/forgeweave/refactorcore/internal/plugin/golangplugin"
	"github.com/forgeweave/refactorcore/internal/plugin/javaplugin"
	"github.com/forgeweave/refactorcore/internal/plugin/pyplugin"
	"github.com/forgeweave/refactorcore/internal/plugin/rustplugin"
	"github.com/forgeweave/refactorcore/internal/plugin/tsplugin"
	"github.com/forgeweave/refactorcore/internal/refdetect"
	"github.com/forgeweave/refactorcore/internal/telemetry"
	"github.com/forgeweave/refactorcore/internal/treecache"
	"github.com/forgeweave/refactorcore/pkg/logging"
)

// resolveProjectRoot turns --root (or the working directory, when unset)
// into an absolute path, the precondition pathresolver.New enforces.
func resolveProjectRoot() error {
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("determine working directory: %w", err)
		}
		projectRoot = wd
		return nil
	}
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolve --root: %w", err)
	}
	projectRoot = abs
	return nil
}

// registerPlugins wires every language plugin the pack supports into
// one registry, shared by the planner's rename/extract detection and
// the executor's dependency-update and consolidation dispatch.
func registerPlugins() *plugin.Registry {
	registry := plugin.NewRegistry()
	registry.Register(golangplugin.New())
	registry.Register(tsplugin.New())
	registry.Register(pyplugin.New())
	registry.Register(javaplugin.New())
	registry.Register(rustplugin.New())
	return registry
}

// registerManifests wires every workspace-manifest adapter the pack
// supports, shared by the planner's ManifestUpdate emission and the
// executor's Phase 5 dependency-update dispatch.
func registerManifests() *manifest.Registry {
	registry := manifest.NewRegistry()
	registry.Register(manifest.NewCargoSupport())
	registry.Register(manifest.NewPackageJSONSupport())
	registry.Register(manifest.NewPyProjectSupport())
	return registry
}

// app bundles the long-lived components a refactorctl subcommand needs:
// a plan Builder to turn an intent into an editplan.EditPlan, and an
// Executor to apply one.
type app struct {
	builder  *planner.Builder
	executor *executor.Executor
	logger   *logging.Logger
	cache    *treecache.Cache
	metrics  *telemetry.Metrics
}

func newApp(ctx context.Context) (*app, error) {
	logger := logging.New(logging.Config{Service: "refactorctl"})

	plugins := registerPlugins()
	manifests := registerManifests()
	logger.Debug("plugins loaded", "names", pluginNames(plugins))

	detector, err := refdetect.New(plugins, refdetect.WithCacheTTL(detectorTTL))
	if err != nil {
		return nil, fmt.Errorf("build reference detector: %w", err)
	}
	builder := planner.New(plugins, manifests, detector)

	resolver, err := pathresolver.New(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve project root %s: %w", projectRoot, err)
	}

	cache := treecache.New()
	metrics := telemetry.NewMetrics()

	ex, err := executor.New(ctx, executor.Config{
		Resolver:         resolver,
		Plugins:          plugins,
		Manifests:        manifests,
		Cache:            cache,
		Tracer:           telemetry.NewTracer("refactorctl"),
		Metrics:          metrics,
		Logger:           logger,
		DetectCollisions: true,
		Preflight:        executor.NewPreflightGuard(),
	})
	if err != nil {
		return nil, fmt.Errorf("build executor: %w", err)
	}

	return &app{builder: builder, executor: ex, logger: logger, cache: cache, metrics: metrics}, nil
}

func (a *app) Close(ctx context.Context) error {
	return a.executor.Close(ctx)
}

// pluginNames reports every registered plugin's name, for the one-line
// startup log that confirms which languages this invocation can parse.
func pluginNames(registry *plugin.Registry) []string {
	all := registry.All()
	names := make([]string, len(all))
	for i, p := range all {
		names[i] = p.Name()
	}
	return names
}
