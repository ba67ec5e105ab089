// Package index keeps the pins registry in the cache in step with a git repository.
package index

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"go.uber.org/zap"
)

const (
	RepoURL    = "https://github.com/arc-language/shellenv-pins"
	RepoBranch = "main"
)

// Options selects the pins repository to sync from
type Options struct {
	URL      string    // Default: RepoURL
	Branch   string    // Empty clones the remote HEAD
	Depth    int       // 0 clones full history
	Progress io.Writer // Optional clone progress output
}

// Result describes a completed sync
type Result struct {
	Commit  string
	Entries int
}

// Sync clones the pins repository and installs its deps/ tree into the cache.
// The previous deps/ tree is replaced only after the new one is complete.
func Sync(ctx context.Context, cacheDir string, opts Options, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.URL == "" {
		opts.URL = RepoURL
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "shellenv-clone-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	logger.Info("updating pins", zap.String("url", opts.URL), zap.String("branch", opts.Branch))

	cloneOpts := &git.CloneOptions{
		URL:      opts.URL,
		Depth:    opts.Depth,
		Progress: opts.Progress,
	}
	if opts.Branch != "" {
		cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(opts.Branch)
		cloneOpts.SingleBranch = true
	}

	repo, err := git.PlainCloneContext(ctx, tempDir, false, cloneOpts)
	if err != nil {
		return nil, fmt.Errorf("git clone failed: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("reading HEAD: %w", err)
	}

	src := filepath.Join(tempDir, "deps")
	entries, err := os.ReadDir(src)
	if err != nil {
		return nil, fmt.Errorf("pins repository has no deps/ tree: %w", err)
	}

	staging := filepath.Join(cacheDir, ".deps-new")
	_ = os.RemoveAll(staging)
	defer os.RemoveAll(staging)

	if err := copyDir(src, staging); err != nil {
		return nil, fmt.Errorf("copying deps: %w", err)
	}

	dst := filepath.Join(cacheDir, "deps")
	old := filepath.Join(cacheDir, ".deps-old")
	_ = os.RemoveAll(old)
	if err := os.Rename(dst, old); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("moving old deps aside: %w", err)
	}
	if err := os.Rename(staging, dst); err != nil {
		_ = os.Rename(old, dst)
		return nil, fmt.Errorf("installing deps: %w", err)
	}
	_ = os.RemoveAll(old)

	result := &Result{Commit: head.Hash().String(), Entries: countDirs(entries)}
	logger.Info("pins updated",
		zap.String("commit", result.Commit),
		zap.Int("entries", result.Entries))

	return result, nil
}

func countDirs(entries []os.DirEntry) int {
	n := 0
	for _, entry := range entries {
		if entry.IsDir() {
			n++
		}
	}
	return n
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func copyDir(src, dst string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err := copyDir(srcPath, dstPath); err != nil {
				return err
			}
		} else if entry.Type().IsRegular() {
			if err := copyFile(srcPath, dstPath); err != nil {
				return err
			}
		}
	}

	return nil
}
