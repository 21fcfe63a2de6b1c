package planner

import (
	"strings"
	"testing"

	"github.com/forgeweave/refactorcore/internal/editplan"
	"github.com/forgeweave/refactorcore/internal/transform"
)

var sampleUnifiedDiff = strings.Join([]string{
	"--- a/widget.go",
	"+++ b/widget.go",
	"@@ -1,4 +1,4 @@",
	" package widget",
	" ",
	"-func Old() int { return 1 }",
	"+func New() int { return 2 }",
	" ",
	"",
}, "\n")

func TestBuildFromUnifiedDiffEmitsOneReplacePerHunk(t *testing.T) {
	plan, err := BuildFromUnifiedDiff(sampleUnifiedDiff)
	if err != nil {
		t.Fatalf("BuildFromUnifiedDiff: %v", err)
	}
	if len(plan.Edits) != 1 {
		t.Fatalf("expected one edit, got %d", len(plan.Edits))
	}
	edit := plan.Edits[0]
	if edit.FilePath != "widget.go" {
		t.Fatalf("unexpected file path %q", edit.FilePath)
	}
	if edit.EditType != editplan.EditReplace {
		t.Fatalf("expected a Replace edit, got %v", edit.EditType)
	}
}

func TestBuildFromUnifiedDiffEditAppliesCleanlyToOriginal(t *testing.T) {
	original := "package widget\n\nfunc Old() int { return 1 }\n\n"

	plan, err := BuildFromUnifiedDiff(sampleUnifiedDiff)
	if err != nil {
		t.Fatalf("BuildFromUnifiedDiff: %v", err)
	}

	result := transform.Apply(original, plan.Edits)
	if len(result.Skipped) != 0 {
		t.Fatalf("expected no skipped edits, got %+v", result.Skipped)
	}
	if !strings.Contains(result.TransformedSource, "func New() int { return 2 }") {
		t.Fatalf("expected transformed source to contain the new function, got %q", result.TransformedSource)
	}
	if strings.Contains(result.TransformedSource, "Old()") {
		t.Fatalf("expected the old function to be gone, got %q", result.TransformedSource)
	}
}

func TestBuildFromUnifiedDiffHandlesFileCreationAndDeletion(t *testing.T) {
	patch := `--- /dev/null
+++ b/new_file.go
@@ -0,0 +1,2 @@
+package widget
+
--- a/old_file.go
+++ /dev/null
@@ -1,1 +0,0 @@
-package widget
`
	plan, err := BuildFromUnifiedDiff(patch)
	if err != nil {
		t.Fatalf("BuildFromUnifiedDiff: %v", err)
	}
	if len(plan.Edits) != 2 {
		t.Fatalf("expected a Create and a Delete edit, got %d: %+v", len(plan.Edits), plan.Edits)
	}

	var sawCreate, sawDelete bool
	for _, e := range plan.Edits {
		switch e.EditType {
		case editplan.EditCreate:
			sawCreate = true
			if e.FilePath != "new_file.go" {
				t.Fatalf("unexpected create target %q", e.FilePath)
			}
		case editplan.EditDelete:
			sawDelete = true
			if e.FilePath != "old_file.go" {
				t.Fatalf("unexpected delete target %q", e.FilePath)
			}
		}
	}
	if !sawCreate || !sawDelete {
		t.Fatalf("expected both a create and a delete, got %+v", plan.Edits)
	}
}
