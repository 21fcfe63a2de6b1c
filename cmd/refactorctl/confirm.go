package main

import (
	"fmt"

	"github.com/charmbracelet/huh"
)

// confirmApply prompts the operator before a plan is applied, grounded
// on pkg/ux/prompt.go's AskConfirm: a single huh.Confirm field wrapped
// in its own form.
func confirmApply(question string) (bool, error) {
	if yes {
		return true, nil
	}
	var confirmed bool
	field := huh.NewConfirm().
		Title(question).
		Affirmative("Apply").
		Negative("Cancel").
		Value(&confirmed)

	if err := huh.NewForm(huh.NewGroup(field)).Run(); err != nil {
		return false, fmt.Errorf("confirmation prompt: %w", err)
	}
	return confirmed, nil
}
