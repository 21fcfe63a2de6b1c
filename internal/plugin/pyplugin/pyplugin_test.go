package pyplugin

import (
	"context"
	"strings"
	"testing"
)

func TestRewriteFileReferencesSiblingRelativeImport(t *testing.T) {
	p := New()
	src := "from .old_module import helper\n\nhelper()\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "pkg/old_module", "pkg/new_module", "pkg/main.py", "", nil)
	if !ok || count != 1 {
		t.Fatalf("expected one rewrite, count=%d ok=%v", count, ok)
	}
	if !strings.Contains(out, ".new_module") {
		t.Fatalf("expected rewritten module name, got %s", out)
	}
}

func TestRewriteFileReferencesParentRelativeImport(t *testing.T) {
	p := New()
	src := "from ..shared.old_module import helper\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "pkg/shared/old_module", "pkg/shared/new_module", "pkg/sub/main.py", "", nil)
	if !ok || count != 1 {
		t.Fatalf("expected one rewrite, count=%d ok=%v", count, ok)
	}
	if !strings.Contains(out, "new_module") {
		t.Fatalf("expected rewritten module name, got %s", out)
	}
}

func TestRewriteFileReferencesUnrelatedImportUntouched(t *testing.T) {
	p := New()
	src := "import os\nfrom .other import thing\n"
	_, _, ok := p.RewriteFileReferences(context.Background(), src, "pkg/old_module", "pkg/new_module", "pkg/main.py", "", nil)
	if ok {
		t.Fatal("expected no rewrite for an unrelated module")
	}
}

func TestInsertionPointAfterImports(t *testing.T) {
	p := New()
	src := "import os\nimport sys\n\ndef main():\n    pass\n"
	line, col := p.InsertionPointAfterImports(src)
	if col != 0 {
		t.Fatalf("expected column 0, got %d", col)
	}
	if line <= 0 {
		t.Fatalf("expected a positive insertion line, got %d", line)
	}
}
