package fs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker_DefaultPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "faq.txt"), "faq")
	writeFile(t, filepath.Join(root, "guides", "setup.md"), "setup")
	writeFile(t, filepath.Join(root, "guides", "manual.pdf"), "%PDF")
	writeFile(t, filepath.Join(root, "image.png"), "png")
	writeFile(t, filepath.Join(root, ".hidden.txt"), "hidden")
	writeFile(t, filepath.Join(root, ".git", "notes.txt"), "git")

	files, err := NewWalker(nil, nil).Walk(root)
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, f := range files {
		rel, _ := filepath.Rel(root, f.Path)
		got = append(got, filepath.ToSlash(rel))
	}
	want := []string{"faq.txt", "guides/manual.pdf", "guides/setup.md"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected %v, got %v", want, got)
			break
		}
	}
}

func TestWalker_CustomExcludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "keep.txt"), "k")
	writeFile(t, filepath.Join(root, "drafts", "skip.txt"), "s")

	files, err := NewWalker([]string{"**/*.txt"}, []string{"drafts/**"}).Walk(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || filepath.Base(files[0].Path) != "keep.txt" {
		t.Errorf("unexpected files: %+v", files)
	}
	if files[0].Size != 1 {
		t.Errorf("expected size 1, got %d", files[0].Size)
	}
}

func TestWalker_MissingRoot(t *testing.T) {
	if _, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing root")
	}
}
