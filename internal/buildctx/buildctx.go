// SPDX-License-Identifier: MPL-2.0

// Package buildctx packages an image build context as a transient tar file.
//
// The archive is written to the working directory right before the build call
// and removed right after it. Required inputs are checked first so a missing
// Dockerfile fails before the engine is contacted.
package buildctx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/moby/go-archive"
	"github.com/moby/patternmatcher/ignorefile"
)

const (
	// DefaultDockerfile is the Dockerfile name used when none is configured.
	DefaultDockerfile = "Dockerfile"

	ignoreFileName = ".dockerignore"
	archivePattern = ".launchbox-context-*.tar"
)

var (
	// ErrMissingFile is the sentinel wrapped by MissingFileError.
	ErrMissingFile = errors.New("build context file missing")

	// ErrOutsideContext is returned for paths that escape the context directory.
	ErrOutsideContext = errors.New("path escapes the build context")
)

type (
	// Options describes a build context.
	Options struct {
		// ContextDir is the directory archived. Defaults to ".".
		ContextDir string
		// Dockerfile is the Dockerfile path relative to ContextDir.
		Dockerfile string
		// Include lists extra context-relative paths to archive. "." archives
		// the whole directory minus .dockerignore matches.
		Include []string
		// WorkDir is where the transient archive file is written. Defaults to ".".
		WorkDir string
	}

	// MissingFileError is a precondition failure: a required input does not exist.
	MissingFileError struct {
		Path string
		Err  error
	}

	// Archive is a tar build context on disk.
	Archive struct {
		path string
	}
)

// Error implements the error interface.
func (e *MissingFileError) Error() string {
	return fmt.Sprintf("required build context file %s not found", e.Path)
}

// Unwrap returns ErrMissingFile for errors.Is() compatibility.
func (e *MissingFileError) Unwrap() []error {
	return []error{ErrMissingFile, e.Err}
}

func (o Options) withDefaults() Options {
	if o.ContextDir == "" {
		o.ContextDir = "."
	}
	if o.Dockerfile == "" {
		o.Dockerfile = DefaultDockerfile
	}
	if o.WorkDir == "" {
		o.WorkDir = "."
	}
	return o
}

// DockerfilePath returns the Dockerfile path as the engine sees it inside the archive.
func (o Options) DockerfilePath() string {
	return filepath.ToSlash(filepath.Clean(o.withDefaults().Dockerfile))
}

// Check verifies that the Dockerfile and every included path exist.
func Check(opts Options) error {
	opts = opts.withDefaults()
	for _, rel := range append([]string{opts.Dockerfile}, opts.Include...) {
		if rel == "." {
			continue
		}
		if !filepath.IsLocal(rel) {
			return fmt.Errorf("%w: %s", ErrOutsideContext, rel)
		}
		full := filepath.Join(opts.ContextDir, rel)
		if _, err := os.Stat(full); err != nil {
			return &MissingFileError{Path: full, Err: err}
		}
	}
	return nil
}

// Create checks opts and writes the archive to a new file in opts.WorkDir.
// The caller must Remove the archive once the build call returns.
func Create(opts Options) (*Archive, error) {
	opts = opts.withDefaults()
	if err := Check(opts); err != nil {
		return nil, err
	}

	excludes, err := readIgnoreFile(opts.ContextDir)
	if err != nil {
		return nil, err
	}
	if len(excludes) > 0 {
		// The Dockerfile and the ignore file always travel with the context.
		excludes = append(excludes, "!"+opts.DockerfilePath(), "!"+ignoreFileName)
	}
	// Archives left behind by an interrupted run never ship.
	excludes = append(excludes, archivePattern)

	tarOpts := &archive.TarOptions{
		IncludeFiles:    includeFiles(opts),
		ExcludePatterns: excludes,
	}
	rc, err := archive.TarWithOptions(opts.ContextDir, tarOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to archive build context %s: %w", opts.ContextDir, err)
	}
	defer rc.Close()

	f, err := os.CreateTemp(opts.WorkDir, archivePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create build context archive: %w", err)
	}
	a := &Archive{path: f.Name()}

	if _, err := io.Copy(f, rc); err != nil {
		f.Close()
		_ = a.Remove()
		return nil, fmt.Errorf("failed to write build context archive: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = a.Remove()
		return nil, fmt.Errorf("failed to close build context archive: %w", err)
	}
	return a, nil
}

// Path returns the archive file path.
func (a *Archive) Path() string {
	return a.path
}

// Open opens the archive for reading.
func (a *Archive) Open() (*os.File, error) {
	return os.Open(a.path)
}

// Remove deletes the archive file. Removing twice is not an error.
func (a *Archive) Remove() error {
	if err := os.Remove(a.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove build context archive: %w", err)
	}
	return nil
}

// includeFiles returns the archive's include list; nil archives everything.
func includeFiles(opts Options) []string {
	if slices.Contains(opts.Include, ".") {
		return nil
	}
	files := []string{opts.DockerfilePath()}
	for _, inc := range opts.Include {
		inc = filepath.ToSlash(filepath.Clean(inc))
		if !slices.Contains(files, inc) {
			files = append(files, inc)
		}
	}
	return files
}

func readIgnoreFile(contextDir string) ([]string, error) {
	f, err := os.Open(filepath.Join(contextDir, ignoreFileName))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", ignoreFileName, err)
	}
	defer f.Close()

	patterns, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", ignoreFileName, err)
	}
	return slices.DeleteFunc(patterns, func(p string) bool { return strings.TrimSpace(p) == "" }), nil
}
