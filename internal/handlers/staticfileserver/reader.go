package staticfileserver

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
)

// FileErrorKind distinguishes the causes a file read can fail with.
type FileErrorKind int

const (
	NotFoundError FileErrorKind = iota
	PermissionError
	OtherIOError
)

func (k FileErrorKind) String() string {
	switch k {
	case NotFoundError:
		return "not found"
	case PermissionError:
		return "permission denied"
	default:
		return "i/o error"
	}
}

// FileError is returned by ReadFile and CheckReadable.
type FileError struct {
	Kind FileErrorKind
	// Path is the document-root relative path, never the absolute host path.
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("reading %s: %s: %v", e.Path, e.Kind, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// StatusCode maps the error kind onto an HTTP status.
func (e *FileError) StatusCode() int {
	switch e.Kind {
	case NotFoundError:
		return http.StatusNotFound
	case PermissionError:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func newFileError(p string, err error) *FileError {
	kind := OtherIOError
	switch {
	case errors.Is(err, fs.ErrNotExist):
		kind = NotFoundError
	case errors.Is(err, fs.ErrPermission):
		kind = PermissionError
	}
	return &FileError{Kind: kind, Path: p, Err: err}
}

// ReadFile reads the whole file at p into memory. Callers classify p as
// IsFile first; the read itself still reports every failure as *FileError.
func (d *DocumentRoot) ReadFile(p string) ([]byte, error) {
	full, ok := d.fsPath(p)
	if !ok {
		return nil, &FileError{Kind: NotFoundError, Path: p, Err: fs.ErrNotExist}
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, newFileError(p, err)
	}
	return data, nil
}

// CheckReadable opens and closes p without reading it, yielding the same
// error ReadFile would report for an unreadable file.
func (d *DocumentRoot) CheckReadable(p string) error {
	full, ok := d.fsPath(p)
	if !ok {
		return &FileError{Kind: NotFoundError, Path: p, Err: fs.ErrNotExist}
	}
	f, err := os.Open(full)
	if err != nil {
		return newFileError(p, err)
	}
	return f.Close()
}

// statusForReadError maps any error from ReadFile or CheckReadable to a status.
func statusForReadError(err error) int {
	var fileErr *FileError
	if errors.As(err, &fileErr) {
		return fileErr.StatusCode()
	}
	return http.StatusInternalServerError
}
