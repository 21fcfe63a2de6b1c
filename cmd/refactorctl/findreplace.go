package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/planner"
)

// walkIgnored mirrors the directory skip-list internal/manifest and
// internal/refdetect both carry for tree walks.
var walkIgnored = map[string]struct{}{
	".git": {}, "node_modules": {}, "vendor": {}, "__pycache__": {}, "venv": {}, ".venv": {},
	"dist": {}, "build": {}, "target": {}, "bin": {}, "obj": {},
}

func runFindReplace(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	literal, replacement := args[0], args[1]
	targets := args[2:]
	if len(targets) == 0 {
		targets = []string{"."}
	}

	var matches []planner.FindReplaceMatch
	for _, target := range targets {
		abs := target
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(projectRoot, target)
		}
		found, err := scanForLiteral(abs, literal, replacement)
		if err != nil {
			return fmt.Errorf("scan %s: %w", target, err)
		}
		matches = append(matches, found...)
	}
	if len(matches) == 0 {
		fmt.Println("no occurrences found")
		return nil
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(ctx)

	plan, err := a.builder.BuildFindReplace(ctx, planner.FindReplaceRequest{
		ProjectRoot: projectRoot,
		Matches:     matches,
	})
	if err != nil {
		return fmt.Errorf("build find-replace plan: %w", err)
	}

	if jsonOutput {
		return printPlanJSON(plan)
	}
	fmt.Println(renderPlan(plan))

	ok, err := confirmApply(fmt.Sprintf("Apply %d replacement(s) of %q with %q?", len(matches), literal, replacement))
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

// scanForLiteral walks path (a file or directory) for every line
// containing literal, one FindReplaceMatch per occurrence. This is a
// plain substring scan, not the planner's comment-and-string-aware
// literal scanner (planner.BuildFindReplace itself is match-agnostic by
// design, so locating matches is a caller concern).
func scanForLiteral(path, literal, replacement string) ([]planner.FindReplaceMatch, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var matches []planner.FindReplaceMatch
	walk := func(p string) error {
		rel, err := filepath.Rel(projectRoot, p)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		lines := strings.Split(string(content), "\n")
		for lineNo, line := range lines {
			runes := []rune(line)
			search := runes
			offset := 0
			for {
				idx := indexRunes(search, []rune(literal))
				if idx < 0 {
					break
				}
				start := offset + idx
				end := start + len([]rune(literal))
				matches = append(matches, planner.FindReplaceMatch{
					FilePath: rel,
					Location: editplan.Location{
						StartLine: lineNo, StartColumn: start,
						EndLine: lineNo, EndColumn: end,
					},
					OriginalText:    literal,
					ReplacementText: replacement,
				})
				search = search[idx+len([]rune(literal)):]
				offset = end
			}
		}
		return nil
	}

	if !info.IsDir() {
		return matches, walk(path)
	}

	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if _, skip := walkIgnored[d.Name()]; skip && p != path {
				return filepath.SkipDir
			}
			return nil
		}
		return walk(p)
	})
	return matches, err
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 || len(haystack) < len(needle) {
		return -1
	}
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := range needle {
			if haystack[i+j] != needle[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
