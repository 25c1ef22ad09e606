// Package locator anchors index file paths: it finds the repository root
// and resolves paths to canonical absolute, symlink-free form so that
// locations compare and sort stably.
package locator

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	git "github.com/go-git/go-git/v5"
)

// ErrNoRepository is returned when no enclosing git repository exists.
var ErrNoRepository = errors.New("no enclosing repository")

// RepoRoot walks up from dir to the enclosing git worktree root.
func RepoRoot(dir string) (string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return "", ErrNoRepository
		}
		return "", err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return "", err
	}
	return wt.Filesystem.Root(), nil
}

// RootOrDir returns the repository root containing dir, or dir itself in
// absolute form when there is no repository.
func RootOrDir(dir string) string {
	if root, err := RepoRoot(dir); err == nil {
		return root
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Canonicalizer memoizes path resolution against a base directory. Safe
// for concurrent use; index units resolve paths in parallel.
type Canonicalizer struct {
	base  string
	mu    sync.Mutex
	cache map[string]string
}

// NewCanonicalizer creates a canonicalizer rooted at base.
func NewCanonicalizer(base string) *Canonicalizer {
	return &Canonicalizer{
		base:  base,
		cache: make(map[string]string),
	}
}

// Canonicalize resolves a possibly relative path to absolute, symlink-free
// form. Paths that do not exist resolve lexically.
func (c *Canonicalizer) Canonicalize(path string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if out, ok := c.cache[path]; ok {
		return out
	}
	out := path
	if !filepath.IsAbs(out) {
		out = filepath.Join(c.base, out)
	}
	out = filepath.Clean(out)
	if resolved, err := filepath.EvalSymlinks(out); err == nil {
		out = resolved
	} else if !os.IsNotExist(err) {
		out = filepath.Clean(out)
	}
	c.cache[path] = out
	return out
}
