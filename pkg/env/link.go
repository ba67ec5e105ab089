// pkg/env/link.go
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/arc-language/shellenv/pkg/core"
)

// CreateLink makes linkPath a symbolic link to target.
// An existing link to the same target is left alone, a stale link is
// replaced atomically and anything else at linkPath is an error.
func CreateLink(linkPath, target string) (created bool, err error) {
	fail := func(err error) (bool, error) {
		return false, &core.LinkCreationError{Path: linkPath, Target: target, Err: err}
	}

	if !filepath.IsAbs(target) {
		return fail(fmt.Errorf("target is not absolute"))
	}

	parent, name := filepath.Split(filepath.Clean(linkPath))
	if parent == "" {
		parent = "."
	}

	// All mutations go through a handle on the parent directory
	root, err := os.OpenRoot(parent)
	if err != nil {
		return fail(fmt.Errorf("opening parent directory: %w", err))
	}
	defer root.Close()

	info, err := root.Lstat(name)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// nothing there yet
	case err != nil:
		return fail(fmt.Errorf("inspecting existing entry: %w", err))
	case info.Mode()&fs.ModeSymlink == 0:
		return fail(fmt.Errorf("%s exists and is not a symbolic link", name))
	default:
		current, err := root.Readlink(name)
		if err != nil {
			return fail(fmt.Errorf("reading existing link: %w", err))
		}
		if current == target {
			return false, nil
		}
	}

	// Create under a temporary name, then rename over the final one so a
	// failure never leaves a half-made link behind.
	tmp := "." + name + ".tmp-" + strconv.Itoa(os.Getpid())
	_ = root.Remove(tmp)

	if err := root.Symlink(target, tmp); err != nil {
		return fail(fmt.Errorf("creating link: %w", err))
	}
	if err := root.Rename(tmp, name); err != nil {
		_ = root.Remove(tmp)
		return fail(fmt.Errorf("installing link: %w", err))
	}

	return true, nil
}
