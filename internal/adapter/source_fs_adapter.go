// Package adapter contains the infrastructure adapters of the ferrule CLI:
// filesystem access, parsing and report persistence.
package adapter

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	m "ferrule.dev/pkg/ferrule/internal/model"
)

// SourceExt is the extension of analysed files.
const SourceExt = ".rs"

// recursiveSuffix marks a path whose sub-directories are walked too.
const recursiveSuffix = "/..."

// SourceFSAdapter abstracts the filesystem operations the domain layer relies
// on when scanning user projects.
type SourceFSAdapter interface {
	// Get expands paths into the sorted list of source files. A path ending
	// in "/..." is walked recursively; files matching one of the exclude
	// regular expressions are dropped.
	Get(ctx context.Context, paths []m.Path, exclude ...string) ([]m.Path, error)

	// Load reads a source file and fingerprints its content.
	Load(path m.Path) (m.File, error)

	// Walk traverses the provided root path. When recursive is false the
	// implementation should limit itself to the root directory (no sub-dirs).
	Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error

	// ReadFile loads a file from disk and returns its contents.
	ReadFile(path m.Path) ([]byte, error)
}

// FilepathWalkFunc mirrors the callback shape used by filepath.Walk.
type FilepathWalkFunc func(path string, info os.FileInfo, err error) error

// LocalSourceFSAdapter implements SourceFSAdapter on the local disk.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Get expands paths into source files.
func (a *LocalSourceFSAdapter) Get(ctx context.Context, paths []m.Path, exclude ...string) ([]m.Path, error) {
	patterns := make([]*regexp.Regexp, 0, len(exclude))

	for _, expr := range exclude {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile exclude pattern %q: %w", expr, err)
		}

		patterns = append(patterns, re)
	}

	seen := map[m.Path]bool{}

	var out []m.Path

	add := func(path string) {
		p := m.Path(filepath.Clean(path))
		if seen[p] || excluded(string(p), patterns) {
			return
		}

		seen[p] = true
		out = append(out, p)
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		root := string(path)
		recursive := strings.HasSuffix(root, recursiveSuffix)

		if recursive {
			root = strings.TrimSuffix(root, recursiveSuffix)
			if root == "" {
				root = "."
			}
		}

		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			add(root)
			continue
		}

		err = a.Walk(m.Path(root), recursive, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			if !info.IsDir() && filepath.Ext(p) == SourceExt {
				add(p)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out, nil
}

func excluded(path string, patterns []*regexp.Regexp) bool {
	slashed := filepath.ToSlash(path)

	for _, re := range patterns {
		if re.MatchString(slashed) {
			return true
		}
	}

	return false
}

// Load reads path and hashes its content.
func (a *LocalSourceFSAdapter) Load(path m.Path) (m.File, error) {
	content, err := a.ReadFile(path)
	if err != nil {
		return m.File{}, err
	}

	return m.File{
		Path:    path,
		Content: content,
		Hash:    fmt.Sprintf("%x", sha256.Sum256(content)),
	}, nil
}

// Walk iterates over files under root, optionally descending into subdirectories.
func (a *LocalSourceFSAdapter) Walk(root m.Path, recursive bool, fn FilepathWalkFunc) error {
	rootStr := string(root)

	return filepath.Walk(rootStr, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fn(path, info, err)
		}

		if info.IsDir() && path != rootStr {
			if !recursive || strings.HasPrefix(info.Name(), ".") || info.Name() == "target" {
				return filepath.SkipDir
			}
		}

		return fn(path, info, nil)
	})
}

// ReadFile loads file contents from disk.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) ([]byte, error) {
	return os.ReadFile(string(path))
}
