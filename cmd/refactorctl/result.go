package main

import (
	"fmt"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

// printResult reports an ApplyPlan outcome the way the preview box
// reports a plan: a status line, one line per modified file, and any
// warnings or errors the executor attached.
func printResult(result *editplan.EditPlanResult) error {
	if result.Success {
		fmt.Println(addedStyle.Render("applied"))
	} else {
		fmt.Println(destructive.Render("failed"))
	}
	for _, f := range result.ModifiedFiles {
		fmt.Printf("  %s %s\n", mutedStyle.Render("modified:"), f)
	}
	for _, w := range result.Metadata.Warnings {
		fmt.Printf("%s %s\n", warningStyle.Render("warning:"), w)
	}
	for _, e := range result.Errors {
		fmt.Printf("%s %s\n", destructive.Render("error:"), e)
	}
	if !result.Success {
		return fmt.Errorf("plan application did not succeed")
	}
	return nil
}
