// types.go
package nix

import (
	"time"

	"go.uber.org/zap"
)

// Config configures the substituter
type Config struct {
	CacheURL string        // Default: https://cache.nixos.org
	HydraURL string        // Default: https://hydra.nixos.org
	Jobset   string        // Default: nixos/trunk-combined
	StoreDir string        // Default: /nix/store
	System   string        // e.g. x86_64-linux; auto-detected when empty
	Timeout  time.Duration // Per-request timeout
	Logger   *zap.Logger
}

// NARInfo contains metadata about a store path in a binary cache
type NARInfo struct {
	StorePath   string
	URL         string
	Compression string
	FileHash    string // nixbase32, without the "sha256:" prefix
	FileSize    int64
	NarHash     string
	NarSize     int64
	References  []string
	Deriver     string
	Signature   string
}

// BuildInfo is the latest Hydra build of a job
type BuildInfo struct {
	ID      int
	Status  int               // 0 = succeeded
	Outputs map[string]string // output name -> store path
}
