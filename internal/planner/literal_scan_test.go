package planner

import (
	"testing"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

func TestFindLiteralOccurrencesSkipsStringsAndComments(t *testing.T) {
	content := "timeout := 30\n" +
		"// retry after 30 seconds\n" +
		"msg := \"wait 30ms\"\n" +
		"backoff := 30 * factor\n"

	got := findLiteralOccurrences(content, "30", ".go")

	want := []editplan.Location{
		{StartLine: 0, StartColumn: 11, EndLine: 0, EndColumn: 13},
		{StartLine: 3, StartColumn: 11, EndLine: 3, EndColumn: 13},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d occurrences, got %d: %+v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("occurrence %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestFindLiteralOccurrencesSkipsMultilineBlockComment(t *testing.T) {
	content := "/*\n" +
		"the limit is 8080\n" +
		"*/\n" +
		"port := 8080\n"

	got := findLiteralOccurrences(content, "8080", ".go")

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 occurrence outside the block comment, got %d: %+v", len(got), got)
	}
	if got[0].StartLine != 3 {
		t.Fatalf("expected the surviving occurrence on line 3, got %+v", got[0])
	}
}

func TestFindLiteralOccurrencesSkipsPythonTripleQuotedString(t *testing.T) {
	content := "\"\"\"\n" +
		"default retries is 5\n" +
		"\"\"\"\n" +
		"retries = 5\n"

	got := findLiteralOccurrences(content, "5", ".py")

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 occurrence outside the docstring, got %d: %+v", len(got), got)
	}
	if got[0].StartLine != 3 {
		t.Fatalf("expected the surviving occurrence on line 3, got %+v", got[0])
	}
}

func TestFindLiteralOccurrencesHandlesEscapedQuotes(t *testing.T) {
	content := `s := "a \"42\" inside"` + "\n" + "n := 42\n"

	got := findLiteralOccurrences(content, "42", ".go")

	if len(got) != 1 {
		t.Fatalf("expected exactly 1 occurrence, got %d: %+v", len(got), got)
	}
	if got[0].StartLine != 1 {
		t.Fatalf("expected the surviving occurrence on line 1, got %+v", got[0])
	}
}

func TestFindLiteralOccurrencesEmptyLiteralReturnsNil(t *testing.T) {
	if got := findLiteralOccurrences("anything", "", ".go"); got != nil {
		t.Fatalf("expected nil for empty literal, got %+v", got)
	}
}
