package staticfileserver

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EntityStatus classifies a path inside the document root.
// Consumers switch over all three values and panic on anything else, so a
// new kind cannot be added without revisiting every call site.
type EntityStatus int

const (
	NotFound EntityStatus = iota
	IsFile
	IsDir
)

func (s EntityStatus) String() string {
	switch s {
	case NotFound:
		return "NotFound"
	case IsFile:
		return "IsFile"
	case IsDir:
		return "IsDir"
	default:
		return fmt.Sprintf("EntityStatus(%d)", int(s))
	}
}

func unhandledStatus(s EntityStatus) string {
	return fmt.Sprintf("staticfileserver: unhandled entity status %s", s)
}

// DocumentRoot is the directory every resolved path is interpreted against.
type DocumentRoot struct {
	dir string
}

// NewDocumentRoot validates dir and returns a DocumentRoot for it.
// Relative directories are made absolute once, at construction.
func NewDocumentRoot(dir string) (*DocumentRoot, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving document root %q: %w", dir, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("document root %q: %w", abs, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("document root %q is not a directory", abs)
	}
	return &DocumentRoot{dir: abs}, nil
}

// Dir returns the absolute document root directory.
func (d *DocumentRoot) Dir() string { return d.dir }

// fsPath maps a resolved path onto the host filesystem. A leading "/" or "./"
// makes no difference. ok is false when the cleaned path escapes the root.
// The returned path is not cleaned: trailing slashes and ".." segments are
// left for the OS to resolve, so "a.txt/" fails as the lookup would.
func (d *DocumentRoot) fsPath(p string) (full string, ok bool) {
	rel, err := filepath.Rel(d.dir, filepath.Join(d.dir, filepath.FromSlash(p)))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return d.dir + string(filepath.Separator) + filepath.FromSlash(p), true
}

// Classify probes the filesystem for p. Any lookup failure, and any object
// that is neither a regular file nor a directory, reports NotFound.
// Nothing is cached: a later read may observe a different filesystem.
func (d *DocumentRoot) Classify(p string) EntityStatus {
	full, ok := d.fsPath(p)
	if !ok {
		return NotFound
	}
	fi, err := os.Stat(full)
	if err != nil {
		return NotFound
	}
	switch mode := fi.Mode(); {
	case mode.IsRegular():
		return IsFile
	case mode.IsDir():
		return IsDir
	default:
		return NotFound
	}
}
