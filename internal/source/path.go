package source

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard confines local document paths to one directory
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for root. The directory does not have to
// exist yet
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("document directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve document directory: %w", err)
	}
	return &PathGuard{root: filepath.Clean(abs)}, nil
}

// Root returns the absolute document directory
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve returns the absolute path of p, which may be relative to the
// document directory. Paths that leave the directory, directly or through a
// symlink, are rejected
func (g *PathGuard) Resolve(p string) (string, error) {
	p = strings.ReplaceAll(p, "\x00", "")
	if strings.TrimSpace(p) == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(g.root, p)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	if !within(g.root, abs) {
		return "", fmt.Errorf("path is outside document directory: %s", p)
	}

	// Compare real locations once both exist
	realRoot, rootErr := filepath.EvalSymlinks(g.root)
	realPath, pathErr := filepath.EvalSymlinks(abs)
	if rootErr == nil && pathErr == nil && !within(realRoot, realPath) {
		return "", fmt.Errorf("path resolves outside document directory: %s", p)
	}
	if rootErr == nil && pathErr != nil && !os.IsNotExist(pathErr) {
		return "", fmt.Errorf("cannot resolve path: %w", pathErr)
	}
	return abs, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
