package staticfileserver

import (
	"os"
	"path/filepath"
	"testing"
)

// newTestTree creates a document root laid out as:
//
//	a.txt            "hello\n"
//	page.html        "<p>page</p>"
//	Cargo.toml       "[package]\n"
//	blob             binary bytes
//	docs/index.html  "<h1>docs</h1>"
//	empty/           no index document
//	nested/deep/file.json
func newTestTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string][]byte{
		"a.txt":                 []byte("hello\n"),
		"page.html":             []byte("<p>page</p>"),
		"Cargo.toml":            []byte("[package]\n"),
		"blob":                  {0x00, 0xff, 0x10, 0x80},
		"docs/index.html":       []byte("<h1>docs</h1>"),
		"nested/deep/file.json": []byte(`{"ok":true}`),
	}
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("MkdirAll(%s): %v", full, err)
		}
		if err := os.WriteFile(full, content, 0o644); err != nil {
			t.Fatalf("WriteFile(%s): %v", full, err)
		}
	}
	if err := os.Mkdir(filepath.Join(root, "empty"), 0o755); err != nil {
		t.Fatalf("Mkdir(empty): %v", err)
	}
	return root
}

func newTestDocumentRoot(t *testing.T) *DocumentRoot {
	t.Helper()
	root, err := NewDocumentRoot(newTestTree(t))
	if err != nil {
		t.Fatalf("NewDocumentRoot: %v", err)
	}
	return root
}

// skipIfRoot skips tests relying on permission bits, which root bypasses.
func skipIfRoot(t *testing.T) {
	t.Helper()
	if os.Geteuid() == 0 {
		t.Skip("permission checks are bypassed when running as root")
	}
}
