package staticfileserver

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewDocumentRoot(t *testing.T) {
	dir := newTestTree(t)

	root, err := NewDocumentRoot(dir)
	if err != nil {
		t.Fatalf("NewDocumentRoot(%q): %v", dir, err)
	}
	if !filepath.IsAbs(root.Dir()) {
		t.Errorf("Dir() = %q, want absolute path", root.Dir())
	}

	if _, err := NewDocumentRoot(filepath.Join(dir, "missing")); err == nil {
		t.Error("Expected error for missing directory")
	}
	if _, err := NewDocumentRoot(filepath.Join(dir, "a.txt")); err == nil {
		t.Error("Expected error for regular file as document root")
	}
}

func TestClassify(t *testing.T) {
	root := newTestDocumentRoot(t)

	tests := []struct {
		path string
		want EntityStatus
	}{
		{"a.txt", IsFile},
		{"docs", IsDir},
		{"empty", IsDir},
		{"nested/deep/file.json", IsFile},
		{"missing.txt", NotFound},
		{"docs/missing.html", NotFound},
		{"", IsDir},
		{".", IsDir},
	}
	for _, tt := range tests {
		// The same answer is expected with or without a leading separator,
		// and in the "./" form produced by NormalizePath.
		for _, form := range []string{tt.path, "/" + tt.path, "./" + tt.path} {
			if got := root.Classify(form); got != tt.want {
				t.Errorf("Classify(%q) = %s, want %s", form, got, tt.want)
			}
		}
	}
}

func TestClassify_OutsideRoot(t *testing.T) {
	parent := t.TempDir()
	inner := filepath.Join(parent, "www")
	if err := os.Mkdir(inner, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(parent, "secret.txt"), []byte("secret"), 0o644); err != nil {
		t.Fatal(err)
	}
	root, err := NewDocumentRoot(inner)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []string{"../secret.txt", "./../secret.txt", "/../secret.txt", "..", "a/../../secret.txt"} {
		if got := root.Classify(p); got != NotFound {
			t.Errorf("Classify(%q) = %s, want NotFound", p, got)
		}
	}
	// ".." is resolved by the OS, so it only works through directories that exist.
	for p, want := range map[string]EntityStatus{"www/../": NotFound, "./a/../": NotFound} {
		if got := root.Classify(p); got != want {
			t.Errorf("Classify(%q) = %s, want %s", p, got, want)
		}
	}
}

func TestClassify_LookupAsRequested(t *testing.T) {
	root := newTestDocumentRoot(t)

	tests := []struct {
		path string
		want EntityStatus
	}{
		{"./a.txt/", NotFound},
		{"/a.txt/", NotFound},
		{"./a.txt/.", NotFound},
		{"./docs/", IsDir},
		{"./docs/../a.txt", IsFile},
		{"./docs/../docs/index.html", IsFile},
		{"./missing/../a.txt", NotFound},
	}
	for _, tt := range tests {
		if got := root.Classify(tt.path); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.path, got, tt.want)
		}
	}
}

func TestClassify_OtherKinds(t *testing.T) {
	dir := t.TempDir()
	if err := os.Symlink(filepath.Join(dir, "nowhere"), filepath.Join(dir, "dangling")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "target.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(dir, "target.txt"), filepath.Join(dir, "link.txt")); err != nil {
		t.Fatal(err)
	}
	root, err := NewDocumentRoot(dir)
	if err != nil {
		t.Fatal(err)
	}

	if got := root.Classify("dangling"); got != NotFound {
		t.Errorf("Classify(dangling) = %s, want NotFound", got)
	}
	if got := root.Classify("link.txt"); got != IsFile {
		t.Errorf("Classify(link.txt) = %s, want IsFile", got)
	}
}

func TestClassify_NotCached(t *testing.T) {
	root := newTestDocumentRoot(t)
	full := filepath.Join(root.Dir(), "late.txt")

	if got := root.Classify("late.txt"); got != NotFound {
		t.Fatalf("Classify before create = %s, want NotFound", got)
	}
	if err := os.WriteFile(full, []byte("late"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := root.Classify("late.txt"); got != IsFile {
		t.Errorf("Classify after create = %s, want IsFile", got)
	}
}

func TestEntityStatus_String(t *testing.T) {
	if IsFile.String() != "IsFile" || IsDir.String() != "IsDir" || NotFound.String() != "NotFound" {
		t.Errorf("unexpected String() values: %s %s %s", IsFile, IsDir, NotFound)
	}
	if got := EntityStatus(42).String(); got != "EntityStatus(42)" {
		t.Errorf("EntityStatus(42).String() = %q", got)
	}
}
