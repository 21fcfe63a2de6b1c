// Package executor applies an EditPlan atomically across an eight-phase
// pipeline: drain the operation queue, snapshot every affected file,
// perform file operations, run a plugin's consolidation hook, splice
// text edits, rewrite dependency references, invalidate the syntax-tree
// cache, and commit — rolling every snapshot back to its pre-plan
// content if any phase after snapshotting fails.
//
// The snapshot/apply/rollback shape generalizes "one file op with a
// journal" to "a whole plan's worth of file ops and text edits with a
// phase-ordered journal."
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/lockmgr"
	"github.com/forgeweave/refactorcore/internal/manifest"
	"github.com/forgeweave/refactorcore/internal/opqueue"
	"github.com/forgeweave/refactorcore/internal/pathresolver"
	"github.com/forgeweave/refactorcore/internal/plugin"
	"github.com/forgeweave/refactorcore/internal/telemetry"
	"github.com/forgeweave/refactorcore/internal/treecache"
	"github.com/forgeweave/refactorcore/pkg/logging"
)

// Executor applies edit plans against one project root.
type Executor struct {
	resolver  *pathresolver.Resolver
	locks     *lockmgr.Manager
	queue     *opqueue.Queue
	cache     *treecache.Cache
	plugins   *plugin.Registry
	manifests *manifest.Registry
	tracer    *telemetry.Tracer
	metrics   *telemetry.Metrics
	logger    *logging.Logger

	// preflight is optional; when set, ApplyPlan runs it before Phase 0
	// and attaches any warnings to the result instead of failing on them.
	preflight *PreflightGuard

	// collisions is optional; when set, ApplyPlan scans the project tree
	// before and after the run and attaches a warning for any change the
	// plan itself didn't make.
	collisions *collisionDetector

	// ownsQueue/ownsTracer record whether New constructed these itself
	// (and so must release them in Close) or the caller supplied them
	// and retains that responsibility.
	ownsQueue  bool
	ownsTracer bool
}

// Config gathers the collaborators an Executor needs. Resolver is
// required. Locks, Queue, Cache, Plugins, Manifests, Tracer, Metrics and
// Logger fall back to defaults (a fresh lock manager, a just-started
// queue, a default-tuned cache, empty plugin and manifest registries, an
// in-process no-export tracer, a private metrics registry, and a stderr
// logger) when left nil, so tests can construct a minimal Executor from
// a Resolver alone. A nil Preflight skips the preflight check.
type Config struct {
	Resolver  *pathresolver.Resolver
	Locks     *lockmgr.Manager
	Queue     *opqueue.Queue
	Cache     *treecache.Cache
	Plugins   *plugin.Registry
	Manifests *manifest.Registry
	Tracer    *telemetry.Tracer
	Metrics   *telemetry.Metrics
	Logger    *logging.Logger
	Preflight *PreflightGuard

	// DetectCollisions enables a full-tree before/after hash scan of the
	// project root around every ApplyPlan call, surfacing any change the
	// plan didn't itself make as a preflight-style warning. Off by
	// default: it costs a full directory walk and hash on both sides.
	DetectCollisions bool
}

// New builds an Executor. A queue the caller supplied in cfg.Queue stays
// the caller's: Close does not close it. A queue constructed here
// because none was supplied belongs to the Executor's lifetime and is
// closed by Close.
func New(ctx context.Context, cfg Config) (*Executor, error) {
	if cfg.Resolver == nil {
		return nil, fmt.Errorf("executor: Resolver is required")
	}
	if cfg.Locks == nil {
		cfg.Locks = lockmgr.New()
	}
	ownsQueue := cfg.Queue == nil
	if cfg.Queue == nil {
		cfg.Queue = opqueue.New(ctx)
	}
	if cfg.Cache == nil {
		cfg.Cache = treecache.New()
	}
	if cfg.Plugins == nil {
		cfg.Plugins = plugin.NewRegistry()
	}
	if cfg.Manifests == nil {
		cfg.Manifests = manifest.NewRegistry()
	}
	ownsTracer := cfg.Tracer == nil
	if cfg.Tracer == nil {
		cfg.Tracer = telemetry.NewTracer("refactorcore-executor")
	}
	if cfg.Metrics == nil {
		cfg.Metrics = telemetry.NewMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}

	var collisions *collisionDetector
	if cfg.DetectCollisions {
		collisions = newCollisionDetector(cfg.Resolver.Root())
	}

	return &Executor{
		resolver:   cfg.Resolver,
		locks:      cfg.Locks,
		queue:      cfg.Queue,
		cache:      cfg.Cache,
		plugins:    cfg.Plugins,
		manifests:  cfg.Manifests,
		tracer:     cfg.Tracer,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		preflight:  cfg.Preflight,
		collisions: collisions,
		ownsQueue:  ownsQueue,
		ownsTracer: ownsTracer,
	}, nil
}

// execState carries the working data threaded through every phase of a
// single ApplyPlan call.
type execState struct {
	plan *editplan.EditPlan

	renames      renameMaps
	affected     []string // project-relative paths, stable order
	snapshots    map[string]snapshot
	modified     map[string]struct{} // project-relative paths actually written
	preflightWarnings []PreflightWarning

	// failedPhase names whichever of Phase 3/3.5/4/5 returned the error
	// that triggered rollback, for the rollback-count metric's label.
	failedPhase string
}

// ApplyPlan runs the full Phase 0-7 pipeline against plan and returns a
// result on success. Otherwise it returns a nil result and an error:
// the Validate, preflight or Phase 1/2 error; ctx.Err() when ctx is
// cancelled before Phase 3 starts (no file has been touched then); or,
// when Phase 3-5 fails, the phase's original error after a clean
// rollback, or a RollbackPartialError when rollback itself could not
// restore every file.
func (ex *Executor) ApplyPlan(ctx context.Context, plan *editplan.EditPlan) (*editplan.EditPlanResult, error) {
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("executor: invalid plan: %w", err)
	}

	state := &execState{
		plan:     plan,
		modified: make(map[string]struct{}),
	}

	if ex.preflight != nil {
		warnings, err := ex.preflight.Check(ctx, ex.resolver.Root())
		if err != nil {
			return nil, fmt.Errorf("executor: preflight check failed: %w", err)
		}
		state.preflightWarnings = warnings
	}

	var collisionSnap *manifest.Snapshot
	if ex.collisions != nil {
		collisionSnap, _ = ex.collisions.before(ctx)
	}

	ex.phase0Quiescence(ctx)

	if err := ex.phase1AffectedPaths(ctx, state); err != nil {
		return nil, err
	}

	if err := ex.phase2Snapshot(ctx, state); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := ex.runPhases3through5(ctx, state); err != nil {
		rerr := ex.rollback(ctx, state, err)
		return nil, rerr
	}

	ex.phase6CacheInvalidation(ctx, state)

	if collisionSnap != nil {
		if warnings, err := ex.collisions.after(ctx, collisionSnap, state.modified); err == nil {
			state.preflightWarnings = append(state.preflightWarnings, warnings...)
		}
	}

	return ex.phase7Commit(state), nil
}

// runPhases3through5 groups the file-mutating phases so ApplyPlan's
// rollback call site has one error to react to, regardless of which of
// Phase 3/3.5/4/5 produced it.
func (ex *Executor) runPhases3through5(ctx context.Context, state *execState) error {
	if err := ex.phase3FileOperations(ctx, state); err != nil {
		state.failedPhase = "phase3_file_operations"
		return err
	}
	if err := ex.phase3_5Consolidation(ctx, state); err != nil {
		state.failedPhase = "phase3_5_consolidation"
		return err
	}
	if err := ex.phase4TextEdits(ctx, state); err != nil {
		state.failedPhase = "phase4_text_edits"
		return err
	}
	if err := ex.phase5DependencyUpdates(ctx, state); err != nil {
		state.failedPhase = "phase5_dependency_updates"
		return err
	}
	return nil
}

// withSpanAndTimer wraps fn in an OpenTelemetry span named "executor."+phase
// and observes its wall-clock duration in the phase-duration histogram,
// per SPEC_FULL.md's "each wrapped in a span and a histogram observation."
func (ex *Executor) withSpanAndTimer(ctx context.Context, phase string, fn func(ctx context.Context) error) error {
	start := time.Now()
	spanCtx, finish := ex.tracer.StartSpan(ctx, "executor."+phase)
	err := fn(spanCtx)
	finish(err)
	ex.metrics.PhaseDuration.WithLabelValues(phase).Observe(time.Since(start).Seconds())
	return err
}

// phase0Quiescence drains the Operation Queue so Phase 2's snapshots
// never race a background filesystem op.
func (ex *Executor) phase0Quiescence(ctx context.Context) {
	_ = ex.withSpanAndTimer(ctx, "phase0_quiescence", func(ctx context.Context) error {
		ex.metrics.QueueDepth.Set(0)
		ex.queue.WaitUntilIdle()
		return nil
	})
}

// phase3FileOperations runs Move/Create/Delete edits in plan order.
func (ex *Executor) phase3FileOperations(ctx context.Context, state *execState) error {
	return ex.withSpanAndTimer(ctx, "phase3_file_operations", func(ctx context.Context) error {
		for _, e := range state.plan.Edits {
			switch e.EditType {
			case editplan.EditMove:
				if err := ex.applyMove(e.FilePath, e.NewText); err != nil {
					return err
				}
				state.modified[e.FilePath] = struct{}{}
				state.modified[e.NewText] = struct{}{}
			case editplan.EditCreate:
				if err := ex.applyCreate(e.FilePath, e.NewText); err != nil {
					return err
				}
				state.modified[e.FilePath] = struct{}{}
			case editplan.EditDelete:
				if err := ex.applyDelete(e.FilePath); err != nil {
					return err
				}
				state.modified[e.FilePath] = struct{}{}
			}
		}
		return nil
	})
}

func (ex *Executor) applyMove(oldRel, newRel string) error {
	oldAbs, err := ex.resolver.ToAbsoluteChecked(oldRel)
	if err != nil {
		return err
	}
	newAbs, err := ex.resolver.ToAbsoluteChecked(newRel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(string(newAbs)), 0750); err != nil {
		return &editplan.FileIOError{Op: "mkdir", Path: filepath.Dir(string(newAbs)), Err: err}
	}
	if err := os.Rename(string(oldAbs), string(newAbs)); err != nil {
		return &editplan.FileIOError{Op: "rename", Path: oldRel, Err: err}
	}
	return nil
}

func (ex *Executor) applyCreate(rel, content string) error {
	abs, err := ex.resolver.ToAbsoluteChecked(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(string(abs)), 0750); err != nil {
		return &editplan.FileIOError{Op: "mkdir", Path: filepath.Dir(string(abs)), Err: err}
	}
	if err := os.WriteFile(string(abs), []byte(content), 0640); err != nil {
		return &editplan.FileIOError{Op: "create", Path: rel, Err: err}
	}
	return nil
}

func (ex *Executor) applyDelete(rel string) error {
	abs, err := ex.resolver.ToAbsoluteChecked(rel)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(string(abs)); err != nil {
		return &editplan.FileIOError{Op: "delete", Path: rel, Err: err}
	}
	return nil
}

// phase3_5Consolidation dispatches the plan's consolidation hint (if
// any) to the plugin owning the target module's extension. It runs
// after every Move has landed but before text edits, since the hook
// itself may rewrite files Move just relocated. A plugin that can't
// even attempt the hook (nothing claims the paths, or the plugin that
// does has no workspace support) only warns — but once the hook runs,
// a failure it reports is a real apply failure and triggers rollback
// like any other phase 3-5 error.
func (ex *Executor) phase3_5Consolidation(ctx context.Context, state *execState) error {
	hint := state.plan.Metadata.ConsolidationHint
	if hint == nil {
		return nil
	}
	return ex.withSpanAndTimer(ctx, "phase3_5_consolidation", func(ctx context.Context) error {
		log := logging.WithPhase(ctx, logging.WithPlan(ctx, ex.logger, state.plan.Metadata.PlanID), "phase3_5_consolidation")

		p, ok := ex.pluginForAny(hint.Paths)
		if !ok {
			log.Warn("consolidation hint present but no plugin claims its paths",
				"source_package", hint.SourcePackageName, "target_package", hint.TargetPackageName)
			return nil
		}
		ws, ok := p.WorkspaceSupport()
		if !ok {
			log.Warn("plugin for consolidation hint has no workspace support",
				"plugin", p.Name())
			return nil
		}
		start := time.Now()
		err := ws.ExecuteConsolidationPostProcessing(ctx, hint.SourcePackageName, hint.TargetPackageName, hint.TargetModuleName, hint.Paths, ex.resolver.Root())
		ex.metrics.ObservePlugin(p.Name(), time.Since(start), err)
		if err != nil {
			log.Error("consolidation post-processing failed", "error", err)
			return fmt.Errorf("consolidation post-processing failed: %w", err)
		}
		return nil
	})
}

func (ex *Executor) pluginForAny(paths []string) (plugin.Plugin, bool) {
	for _, p := range paths {
		if pl, ok := ex.plugins.FindByExtension(filepath.Ext(p)); ok {
			return pl, true
		}
	}
	return nil, false
}

// phase6CacheInvalidation drops the syntax-tree cache entry for every
// file this plan modified. A stale cache entry only costs a future
// re-parse, so failures here are non-essential and only logged.
func (ex *Executor) phase6CacheInvalidation(ctx context.Context, state *execState) {
	_ = ex.withSpanAndTimer(ctx, "phase6_cache_invalidation", func(ctx context.Context) error {
		for rel := range state.modified {
			abs, err := ex.resolver.ToAbsoluteChecked(rel)
			if err != nil {
				continue
			}
			ex.cache.Invalidate(string(abs))
		}
		return nil
	})
}

// phase7Commit discards the snapshots (letting them be garbage
// collected) and builds the success result.
func (ex *Executor) phase7Commit(state *execState) *editplan.EditPlanResult {
	state.snapshots = nil
	ex.metrics.PlansTotal.WithLabelValues("success").Inc()

	modified := make([]string, 0, len(state.modified))
	for rel := range state.modified {
		modified = append(modified, rel)
	}

	result := &editplan.EditPlanResult{
		Success:       true,
		ModifiedFiles: modified,
		Metadata:      state.plan.Metadata,
	}
	if len(state.preflightWarnings) > 0 {
		for _, w := range state.preflightWarnings {
			result.Metadata.Warnings = append(result.Metadata.Warnings, fmt.Sprintf("preflight: [%s] %s", w.Code, w.Message))
		}
	}
	return result
}

// Close stops the Operation Queue's consumer goroutine and shuts down
// the tracer provider, but only for the ones New constructed itself;
// collaborators supplied via Config remain the caller's responsibility.
func (ex *Executor) Close(ctx context.Context) error {
	if ex.ownsQueue {
		ex.queue.Close()
	}
	if ex.ownsTracer {
		return ex.tracer.Shutdown(ctx)
	}
	return nil
}
