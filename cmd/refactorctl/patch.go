package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeweave/refactorcore/internal/planner"
)

var patchCmd = &cobra.Command{
	Use:   "patch <unified-diff-file>",
	Short: "Build and apply a plan from a unified-diff patch file",
	Args:  cobra.ExactArgs(1),
	RunE:  runPatch,
}

func init() {
	patchCmd.Flags().BoolVar(&yes, "yes", false, "apply without an interactive confirmation")
	rootCmd.AddCommand(patchCmd)
}

func runPatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read patch file: %w", err)
	}

	plan, err := planner.BuildFromUnifiedDiff(string(data))
	if err != nil {
		return fmt.Errorf("build plan from patch: %w", err)
	}

	if jsonOutput {
		return printPlanJSON(plan)
	}
	fmt.Println(renderPlan(plan))

	ok, err := confirmApply("Apply this patch?")
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("cancelled")
		return nil
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	result, err := a.executor.ApplyPlan(ctx, plan)
	if err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	return printResult(result)
}
