package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeweave/refactorcore/internal/planner"
)

func runRename(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	consolidateInto, err := cmd.Flags().GetString("consolidate-into")
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	plan, err := a.builder.BuildRename(ctx, planner.RenameRequest{
		ProjectRoot:     projectRoot,
		OldPath:         args[0],
		NewPath:         args[1],
		ConsolidateInto: consolidateInto,
	})
	if err != nil {
		return fmt.Errorf("build rename plan: %w", err)
	}

	if jsonOutput {
		return printPlanJSON(plan)
	}
	fmt.Println(renderPlan(plan))

	ok, err := confirmApply(fmt.Sprintf("Apply rename of %s -> %s?", args[0], args[1]))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("cancelled")
		return nil
	}

	result, err := a.executor.ApplyPlan(ctx, plan)
	if err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	return printResult(result)
}

func printPlanJSON(plan any) error {
	enc, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(enc))
	return nil
}
