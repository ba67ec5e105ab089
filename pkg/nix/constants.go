// constants.go
package nix

const (
	// DefaultCacheURL is the official Nix binary cache
	DefaultCacheURL = "https://cache.nixos.org"

	// DefaultHydraURL is the official Hydra instance
	DefaultHydraURL = "https://hydra.nixos.org"

	// DefaultJobset is the jobset whose latest builds are substituted
	DefaultJobset = "nixos/trunk-combined"

	// DefaultStoreDir is where Nix typically stores packages
	DefaultStoreDir = "/nix/store"

	// CompressionXZ uses xz compression
	CompressionXZ = "xz"

	// CompressionBZip2 uses bzip2 compression
	CompressionBZip2 = "bzip2"

	// CompressionZstd uses zstd compression
	CompressionZstd = "zstd"

	// CompressionNone uses no compression
	CompressionNone = "none"
)

// outputSuffixes are store name suffixes of secondary outputs
var outputSuffixes = []string{
	"-bin",
	"-dev",
	"-doc",
	"-info",
	"-lib",
	"-man",
	"-debug",
	"-out",
}
