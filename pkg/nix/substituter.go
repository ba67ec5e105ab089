// substituter.go
package nix

import (
	"bufio"
	"compress/bzip2"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
	"go.uber.org/zap"
	"zombiezen.com/go/nix"
	"zombiezen.com/go/nix/nar"
	"zombiezen.com/go/nix/nixbase32"

	"github.com/arc-language/shellenv/pkg/core"
	"github.com/arc-language/shellenv/pkg/platform"
)

// Substituter resolves packages to the latest Hydra build and fetches the
// build outputs from a binary cache into the store directory
type Substituter struct {
	client *Client
	config *Config
	logger *zap.Logger
}

// NewSubstituter creates a substituter, filling in defaults
func NewSubstituter(cfg *Config) *Substituter {
	if cfg == nil {
		cfg = &Config{}
	}

	if cfg.CacheURL == "" {
		cfg.CacheURL = DefaultCacheURL
	}
	if cfg.HydraURL == "" {
		cfg.HydraURL = DefaultHydraURL
	}
	if cfg.Jobset == "" {
		cfg.Jobset = DefaultJobset
	}
	if cfg.StoreDir == "" {
		cfg.StoreDir = DefaultStoreDir
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Debug("initialized substituter",
		zap.String("cache", cfg.CacheURL),
		zap.String("hydra", cfg.HydraURL),
		zap.String("store", cfg.StoreDir),
		zap.Duration("timeout", cfg.Timeout))

	return &Substituter{
		client: NewClientWithTimeout(cfg.Timeout),
		config: cfg,
		logger: logger,
	}
}

// Name returns the registry name
func (s *Substituter) Name() string {
	return "substitute"
}

// Resolve fetches every output of the latest build of attr and returns the
// primary ("out") output
func (s *Substituter) Resolve(ctx context.Context, attr string) (string, error) {
	build, err := s.LatestBuild(ctx, attr)
	if err != nil {
		return "", err
	}

	if build.Status != 0 {
		s.logger.Warn("latest build did not succeed",
			zap.String("package", attr),
			zap.Int("build", build.ID),
			zap.Int("status", build.Status))
	}

	names := make([]string, 0, len(build.Outputs))
	for name := range build.Outputs {
		names = append(names, name)
	}
	sort.Strings(names)

	var primary string
	for _, name := range names {
		local, err := s.Fetch(ctx, build.Outputs[name])
		if err != nil {
			return "", fmt.Errorf("fetching output %s of %s: %w", name, attr, err)
		}
		if name == "out" || primary == "" {
			primary = local
		}
	}

	return primary, nil
}

// LatestBuild queries Hydra for the latest build of a nixpkgs attribute
func (s *Substituter) LatestBuild(ctx context.Context, attr string) (*BuildInfo, error) {
	system := s.config.System
	if system == "" {
		detected, err := platform.NixSystem()
		if err != nil {
			return nil, err
		}
		system = detected
	}

	url := fmt.Sprintf("%s/job/%s/nixpkgs.%s.%s/latest", s.config.HydraURL, s.config.Jobset, attr, system)
	s.logger.Debug("querying hydra", zap.String("package", attr), zap.String("url", url))

	resp, err := s.client.Get(ctx, url, "application/json")
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: no hydra job for '%s' on %s", core.ErrUnresolvedPackage, attr, system)
		}
		return nil, fmt.Errorf("hydra request failed: %w", err)
	}
	defer resp.Body.Close()

	return parseHydraBuild(resp.Body)
}

// GetNARInfo retrieves binary cache metadata for a store path
func (s *Substituter) GetNARInfo(ctx context.Context, storePath string) (*NARInfo, error) {
	sp, err := nix.ParseStorePath(storePath)
	if err != nil {
		return nil, fmt.Errorf("parsing store path: %w", err)
	}

	url := fmt.Sprintf("%s/%s.narinfo", s.config.CacheURL, sp.Digest())
	s.logger.Debug("fetching narinfo", zap.String("url", url))

	content, err := s.client.GetString(ctx, url)
	if err != nil {
		return nil, err
	}

	return parseNARInfo(content)
}

// Fetch makes storePath available in the store directory and returns its
// local path. Objects already present are not fetched again.
func (s *Substituter) Fetch(ctx context.Context, storePath string) (string, error) {
	dest := filepath.Join(s.config.StoreDir, path.Base(storePath))
	if _, err := os.Lstat(dest); err == nil {
		s.logger.Debug("already in store", zap.String("path", dest))
		return dest, nil
	}

	info, err := s.GetNARInfo(ctx, storePath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.config.StoreDir, 0755); err != nil {
		return "", fmt.Errorf("creating store directory: %w", err)
	}

	archive, err := os.CreateTemp(s.config.StoreDir, ".nar-*")
	if err != nil {
		return "", fmt.Errorf("creating archive file: %w", err)
	}
	defer os.Remove(archive.Name())
	defer archive.Close()

	if err := s.download(ctx, info, archive); err != nil {
		return "", err
	}

	if _, err := archive.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewinding archive: %w", err)
	}

	// Unpack next to the destination, then move into place
	staging := filepath.Join(s.config.StoreDir, "."+path.Base(storePath)+".tmp-"+strconv.Itoa(os.Getpid()))
	_ = os.RemoveAll(staging)
	defer os.RemoveAll(staging)

	if err := s.extract(archive, info, staging); err != nil {
		return "", fmt.Errorf("extracting %s: %w", storePath, err)
	}

	if err := os.Rename(staging, dest); err != nil {
		return "", fmt.Errorf("installing %s: %w", dest, err)
	}

	s.logger.Info("fetched store path", zap.String("path", dest), zap.Int64("bytes", info.FileSize))
	return dest, nil
}

// download writes the compressed NAR to w and checks its file hash
func (s *Substituter) download(ctx context.Context, info *NARInfo, w io.Writer) error {
	url := fmt.Sprintf("%s/%s", s.config.CacheURL, info.URL)
	s.logger.Debug("downloading nar", zap.String("url", url))

	hasher := sha256.New()
	n, err := s.client.Download(ctx, url, io.MultiWriter(w, hasher))
	if err != nil {
		return fmt.Errorf("downloading: %w", err)
	}

	if info.FileSize != 0 && n != info.FileSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", info.FileSize, n)
	}

	if info.FileHash != "" {
		actual := nixbase32.EncodeToString(hasher.Sum(nil))
		if actual != info.FileHash {
			return fmt.Errorf("hash mismatch: expected %s, got %s", info.FileHash, actual)
		}
	}

	return nil
}

// decompress wraps r according to the narinfo compression
func decompress(r io.Reader, compression string) (io.Reader, func(), error) {
	switch compression {
	case CompressionNone:
		return r, func() {}, nil
	case CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating xz reader: %w", err)
		}
		return xr, func() {}, nil
	case CompressionBZip2:
		return bzip2.NewReader(r), func() {}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("creating zstd reader: %w", err)
		}
		return zr, zr.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression: %s", compression)
	}
}

// extract unpacks the NAR into destPath and checks the NAR hash
func (s *Substituter) extract(archive io.Reader, info *NARInfo, destPath string) error {
	plain, done, err := decompress(bufio.NewReader(archive), info.Compression)
	if err != nil {
		return err
	}
	defer done()

	hasher := sha256.New()
	tee := io.TeeReader(plain, hasher)
	narReader := nar.NewReader(tee)

	fileCount := 0
	for {
		hdr, err := narReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("reading NAR entry: %w", err)
		}

		targetPath := filepath.Join(destPath, filepath.FromSlash(hdr.Path))

		switch hdr.Mode.Type() {
		case os.ModeDir:
			if err := os.MkdirAll(targetPath, 0755); err != nil {
				return fmt.Errorf("creating directory %s: %w", targetPath, err)
			}
		case os.ModeSymlink:
			if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
				return fmt.Errorf("creating parent directory: %w", err)
			}
			if err := os.Symlink(hdr.LinkTarget, targetPath); err != nil {
				return fmt.Errorf("creating symlink: %w", err)
			}
		case 0:
			if err := writeFile(targetPath, hdr, narReader); err != nil {
				return err
			}
			fileCount++
		}
	}

	// Drain the trailer so the hash covers the whole NAR
	if _, err := io.Copy(io.Discard, tee); err != nil {
		return fmt.Errorf("reading NAR trailer: %w", err)
	}

	if info.NarHash != "" {
		actual := nixbase32.EncodeToString(hasher.Sum(nil))
		if actual != info.NarHash {
			return fmt.Errorf("nar hash mismatch: expected %s, got %s", info.NarHash, actual)
		}
	}

	s.logger.Debug("extraction complete", zap.String("path", destPath), zap.Int("files", fileCount))
	return nil
}

func writeFile(targetPath string, hdr *nar.Header, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(targetPath), 0755); err != nil {
		return fmt.Errorf("creating parent directory: %w", err)
	}

	perm := os.FileMode(0644)
	if hdr.Mode&0111 != 0 {
		perm = 0755
	}

	out, err := os.OpenFile(targetPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", targetPath, err)
	}

	written, err := io.Copy(out, r)
	closeErr := out.Close()
	if err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	if closeErr != nil {
		return fmt.Errorf("closing file: %w", closeErr)
	}
	if written != hdr.Size {
		return fmt.Errorf("size mismatch for %s: header says %d, wrote %d", targetPath, hdr.Size, written)
	}

	return nil
}
