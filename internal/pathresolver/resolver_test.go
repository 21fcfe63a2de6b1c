package pathresolver

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/forgeweave/refactorcore/internal/editplan"
)

func TestToAbsoluteChecked(t *testing.T) {
	root := t.TempDir()
	r, err := New(root)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	t.Run("relative_path_inside_root", func(t *testing.T) {
		got, err := r.ToAbsoluteChecked("src/main.go")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := AbsolutePath(filepath.Join(root, "src/main.go"))
		if got != want {
			t.Errorf("got %s, want %s", got, want)
		}
	})

	t.Run("absolute_path_inside_root", func(t *testing.T) {
		p := filepath.Join(root, "a", "b.go")
		got, err := r.ToAbsoluteChecked(p)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != p {
			t.Errorf("got %s, want %s", got, p)
		}
	})

	t.Run("escape_via_dotdot_rejected", func(t *testing.T) {
		_, err := r.ToAbsoluteChecked("../outside.go")
		if !errors.Is(err, editplan.ErrPathEscape) {
			t.Fatalf("expected ErrPathEscape, got %v", err)
		}
	})

	t.Run("escape_via_absolute_path_rejected", func(t *testing.T) {
		_, err := r.ToAbsoluteChecked(filepath.Join(filepath.Dir(root), "sibling", "x.go"))
		if !errors.Is(err, editplan.ErrPathEscape) {
			t.Fatalf("expected ErrPathEscape, got %v", err)
		}
	})

	t.Run("root_itself_is_contained", func(t *testing.T) {
		got, err := r.ToAbsoluteChecked(".")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != root {
			t.Errorf("got %s, want %s", got, root)
		}
	})

	t.Run("sibling_directory_with_shared_prefix_rejected", func(t *testing.T) {
		// e.g. root = /tmp/proj, escape attempt = /tmp/proj-evil
		evil := root + "-evil/file.go"
		_, err := r.ToAbsoluteChecked(evil)
		if !errors.Is(err, editplan.ErrPathEscape) {
			t.Fatalf("expected ErrPathEscape, got %v", err)
		}
	})
}

func TestRelativeTo(t *testing.T) {
	root := t.TempDir()
	r, _ := New(root)
	abs, err := r.ToAbsoluteChecked("pkg/foo.go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := r.RelativeTo(abs); got != filepath.Join("pkg", "foo.go") {
		t.Errorf("got %s", got)
	}
}
