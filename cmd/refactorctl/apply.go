package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

func runApply(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read plan file: %w", err)
	}
	var plan editplan.EditPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return fmt.Errorf("parse plan file: %w", err)
	}
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("invalid plan: %w", err)
	}

	fmt.Println(renderPlan(&plan))

	ok, err := confirmApply(fmt.Sprintf("Apply plan %q?", plan.Metadata.Intent))
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

	result, err := a.executor.ApplyPlan(ctx, &plan)
	if err != nil {
		return fmt.Errorf("apply plan: %w", err)
	}
	return printResult(result)
}
