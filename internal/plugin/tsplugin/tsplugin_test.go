package tsplugin

import (
	"context"
	"strings"
	"testing"
)

func TestRewriteFileReferencesRelativeImport(t *testing.T) {
	p := New()
	src := "import { helper } from \"./utils/old\";\n\nhelper();\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "src/utils/old", "src/utils/new", "src/main.ts", "", nil)
	if !ok {
		t.Fatal("expected a rewrite")
	}
	if count != 1 {
		t.Fatalf("expected 1 change, got %d", count)
	}
	if !strings.Contains(out, "./utils/new") {
		t.Fatalf("expected rewritten specifier, got %s", out)
	}
}

func TestRewriteFileReferencesCommonJSRequire(t *testing.T) {
	p := New()
	src := "const helper = require(\"./utils/old\");\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "src/utils/old", "src/utils/new", "src/main.js", "", nil)
	if !ok || count != 1 {
		t.Fatalf("expected one rewrite, count=%d ok=%v", count, ok)
	}
	if !strings.Contains(out, "./utils/new") {
		t.Fatalf("expected rewritten require path, got %s", out)
	}
}

func TestRewriteFileReferencesUnrelatedImportUntouched(t *testing.T) {
	p := New()
	src := "import React from \"react\";\n"
	_, _, ok := p.RewriteFileReferences(context.Background(), src, "src/utils/old", "src/utils/new", "src/main.ts", "", nil)
	if ok {
		t.Fatal("expected no rewrite for an unrelated package import")
	}
}

func TestRewriteFileReferencesFromDifferentDirectory(t *testing.T) {
	p := New()
	src := "import { helper } from \"../utils/old\";\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "src/utils/old", "src/helpers/new", "src/components/main.ts", "", nil)
	if !ok || count != 1 {
		t.Fatalf("expected one rewrite, count=%d ok=%v", count, ok)
	}
	if !strings.Contains(out, "../helpers/new") {
		t.Fatalf("expected cross-directory relative path, got %s", out)
	}
}

func TestRewriteFileReferencesAliasImport(t *testing.T) {
	p := New()
	src := "import Button from \"@/components/Button\";\n"
	out, count, ok := p.RewriteFileReferences(context.Background(), src, "components/Button", "ui/Button", "src/App.tsx", "", nil)
	if !ok || count != 1 {
		t.Fatalf("expected one rewrite, count=%d ok=%v", count, ok)
	}
	if !strings.Contains(out, "@/ui/Button") {
		t.Fatalf("expected rewritten alias specifier, got %s", out)
	}
}

func TestRewriteFileReferencesAliasImportUnrelatedUntouched(t *testing.T) {
	p := New()
	src := "import { cn } from \"~/lib/utils\";\n"
	_, _, ok := p.RewriteFileReferences(context.Background(), src, "components/Button", "ui/Button", "src/App.tsx", "", nil)
	if ok {
		t.Fatal("expected no rewrite for an unrelated alias import")
	}
}

func TestResolvedImportTargetsIncludesAliasImports(t *testing.T) {
	p := New()
	src := "import Button from \"@/components/Button\";\nimport { helper } from \"./utils\";\n"
	targets, err := p.ResolvedImportTargets(context.Background(), src, "src/App.tsx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawAlias, sawRelative bool
	for _, target := range targets {
		if target == "components/Button" {
			sawAlias = true
		}
		if target == "src/utils" {
			sawRelative = true
		}
	}
	if !sawAlias {
		t.Fatalf("expected alias target in %v", targets)
	}
	if !sawRelative {
		t.Fatalf("expected relative target in %v", targets)
	}
}
