package ops

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdc-app/mdc/internal/config"
	"github.com/mdc-app/mdc/internal/errors"
)

// PathCheckMode indicates whether the path check is for reading or writing.
type PathCheckMode int

const (
	PathCheckRead  PathCheckMode = iota // for import (read file)
	PathCheckWrite                      // for export (write file)
)

// PathPolicy decides where export files may be written and read.
type PathPolicy struct {
	ExportsDir   string   // default directory, <base dir>/exports
	AllowedPaths []string // extra absolute directories
	AllowUnsafe  bool     // skip directory checks; symlink checks still apply
}

// NewPathPolicy builds the policy for baseDir from cfg.
func NewPathPolicy(baseDir string, cfg *config.Config) PathPolicy {
	p := PathPolicy{ExportsDir: filepath.Join(baseDir, "exports")}
	if cfg != nil {
		p.AllowedPaths = cfg.AllowedPaths
		p.AllowUnsafe = cfg.AllowUnsafePaths
	}
	return p
}

// ValidatePath checks an import/export path:
// no ".." components, a .jsonl extension, a parent that is exactly one of
// the allowed directories (no subdirectories) and no symlinks on the file
// or its parent. Files opened afterwards use O_NOFOLLOW, so the
// no-subdirectory rule leaves no intermediate component to swap.
func ValidatePath(path string, mode PathCheckMode, policy PathPolicy) error {
	if path == "" {
		return errors.NewInvalidRequest("path is required")
	}

	if containsTraversal(path) {
		return errors.NewInvalidRequest("path must not contain directory traversal (..)")
	}

	cleaned := filepath.Clean(path)
	if filepath.Ext(cleaned) != ".jsonl" {
		return errors.NewInvalidRequest("path must have .jsonl extension")
	}

	absPath, err := filepath.Abs(cleaned)
	if err != nil {
		return errors.NewInvalidRequest(fmt.Sprintf("invalid path: %v", err))
	}

	if !policy.AllowUnsafe {
		allowedDirs, err := policy.allowedDirs()
		if err != nil {
			return err
		}

		parentDir := filepath.Dir(absPath)
		if !isDirectlyInAllowedDir(parentDir, allowedDirs) {
			return errors.NewInvalidRequest(
				fmt.Sprintf("file must be directly in an allowed directory (no subdirectories); allowed: %v",
					allowedDirs))
		}

		if info, err := os.Lstat(parentDir); err == nil && info.Mode()&os.ModeSymlink != 0 {
			return errors.NewInvalidRequest("parent directory must not be a symlink")
		}
	}

	if mode == PathCheckRead {
		if _, err := os.Stat(absPath); os.IsNotExist(err) {
			return errors.NewFileNotFound(path)
		}
	}

	if info, err := os.Lstat(absPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("path must not be a symlink")
	}

	return nil
}

// allowedDirs returns the allowed directories, absolute and cleaned.
// Existing symlinked entries are resolved so they match their target.
func (p PathPolicy) allowedDirs() ([]string, error) {
	dirs := make([]string, 0, 1+len(p.AllowedPaths))
	if p.ExportsDir != "" {
		dirs = append(dirs, p.ExportsDir)
	}
	for _, d := range p.AllowedPaths {
		if filepath.IsAbs(d) {
			dirs = append(dirs, d)
		}
	}

	result := make([]string, 0, len(dirs))
	for _, d := range dirs {
		abs, err := filepath.Abs(filepath.Clean(d))
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid allowed path: %v", err))
		}
		if info, err := os.Lstat(abs); err == nil && info.Mode()&os.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(abs)
			if err != nil {
				return nil, errors.NewInvalidRequest(fmt.Sprintf("cannot resolve symlink in allowed path: %v", err))
			}
			abs = resolved
		}
		result = append(result, abs)
	}
	return result, nil
}

// isDirectlyInAllowedDir reports whether parentDir is exactly one of allowedDirs.
func isDirectlyInAllowedDir(parentDir string, allowedDirs []string) bool {
	parentDir = filepath.Clean(parentDir)
	for _, dir := range allowedDirs {
		if parentDir == filepath.Clean(dir) {
			return true
		}
	}
	return false
}

// containsTraversal checks if path contains a ".." component.
func containsTraversal(path string) bool {
	for _, part := range strings.Split(path, string(filepath.Separator)) {
		if part == ".." {
			return true
		}
	}
	// User input may use forward slashes on any platform
	if filepath.Separator != '/' {
		for _, part := range strings.Split(path, "/") {
			if part == ".." {
				return true
			}
		}
	}
	return false
}
