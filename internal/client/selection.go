// Package client implements the uploader CLI: file selection, validation,
// previews, sequential uploads with progress and the result panel.
package client

import (
	"bufio"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"filerelay/internal/upload"
)

// State is the lifecycle position of a selected file.
type State string

const (
	StateSelected  State = "selected"
	StateRejected  State = "rejected"
	StateValidated State = "validated"
	StateUploading State = "uploading"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// File is one entry of a selection.
type File struct {
	Path  string
	Name  string
	Type  string
	Size  int64
	State State
	Err   error
}

// Select stats every path and resolves its MIME type from the extension.
// Paths that cannot be read become rejected entries so the rest of the
// batch still proceeds.
func Select(paths []string) []*File {
	files := make([]*File, 0, len(paths))
	for _, p := range paths {
		f := &File{Path: p, Name: filepath.Base(p), Type: typeOf(p), State: StateSelected}
		fi, err := os.Stat(p)
		switch {
		case err != nil:
			f.State, f.Err = StateRejected, err
		case fi.IsDir():
			f.State, f.Err = StateRejected, fmt.Errorf("%s is a directory", p)
		default:
			f.Size = fi.Size()
		}
		files = append(files, f)
	}
	return files
}

// ReadPaths reads one path per line, skipping blanks.
func ReadPaths(r io.Reader) ([]string, error) {
	var paths []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			paths = append(paths, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}
	return paths, nil
}

// Validate moves a selected file to validated, or to rejected with the rule it broke.
func Validate(f *File, rules upload.Rules) error {
	if f.State == StateRejected {
		return f.Err
	}
	if err := rules.Check(f.Size, f.Type); err != nil {
		f.State, f.Err = StateRejected, err
		return err
	}
	f.State = StateValidated
	return nil
}

func typeOf(p string) string {
	t := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}
