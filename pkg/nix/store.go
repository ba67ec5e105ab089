// store.go
package nix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"
	"zombiezen.com/go/nix"

	"github.com/arc-language/shellenv/pkg/core"
)

// Store resolves package names against the objects of a local store directory
type Store struct {
	dir     string
	aliases map[string]core.Alias
	logger  *zap.Logger
}

// storeObject is a parsed entry of the store directory
type storeObject struct {
	path   string
	digest string
	name   string // name-version, as in the store path
}

// query selects store objects by pname, version prefix and output
type query struct {
	pname   string
	version string
	output  string
}

// NewStore creates a registry over a store directory. aliases map
// requested names onto the store names that provide them.
func NewStore(dir string, aliases map[string]core.Alias, logger *zap.Logger) *Store {
	if dir == "" {
		dir = DefaultStoreDir
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{dir: dir, aliases: aliases, logger: logger}
}

// Name returns the registry name
func (s *Store) Name() string {
	return "store"
}

// Dir returns the store directory
func (s *Store) Dir() string {
	return s.dir
}

// Resolve picks the store object for a package name.
// An alias for name is tried first. Otherwise an object named exactly name
// wins, then the highest version of name-<version>, ignoring secondary
// outputs (-dev, -lib, ...). For attribute paths such as
// llvmPackages.libclang the last component is tried when the full name has
// no match.
func (s *Store) Resolve(ctx context.Context, name string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	objects, err := s.list()
	if err != nil {
		return "", err
	}

	for _, q := range s.queries(name) {
		if obj, ok := pickObject(objects, q); ok {
			s.logger.Debug("store match",
				zap.String("package", name),
				zap.String("object", obj.name),
				zap.String("digest", obj.digest))
			return obj.path, nil
		}
	}

	return "", fmt.Errorf("%w: no store object for '%s' in %s", core.ErrUnresolvedPackage, name, s.dir)
}

func (s *Store) queries(name string) []query {
	var queries []query
	if alias, ok := s.aliases[name]; ok {
		queries = append(queries, query{pname: alias.Pname, version: alias.Version, output: alias.Output})
	}

	queries = append(queries, query{pname: name})
	if i := strings.LastIndex(name, "."); i >= 0 && i < len(name)-1 {
		queries = append(queries, query{pname: name[i+1:]})
	}
	return queries
}

// list parses every package directory in the store
func (s *Store) list() ([]storeObject, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading store directory: %w", err)
	}

	objects := make([]storeObject, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		sp, err := nix.ParseStorePath(path)
		if err != nil {
			continue
		}

		objects = append(objects, storeObject{
			path:   path,
			digest: sp.Digest(),
			name:   sp.Name(),
		})
	}

	return objects, nil
}

func pickObject(objects []storeObject, q query) (storeObject, bool) {
	var exact, versioned []storeObject

	for _, obj := range objects {
		if obj.name == q.pname && q.version == "" && q.output == "" {
			exact = append(exact, obj)
			continue
		}

		version, ok := strings.CutPrefix(obj.name, q.pname+"-")
		if !ok || version == "" || version[0] < '0' || version[0] > '9' {
			continue
		}
		if q.output != "" {
			if version, ok = strings.CutSuffix(version, "-"+q.output); !ok {
				continue
			}
		} else if isSecondaryOutput(version) {
			continue
		}
		if !hasVersionPrefix(version, q.version) {
			continue
		}
		versioned = append(versioned, obj)
	}

	pool := exact
	if len(pool) == 0 {
		pool = versioned
	}
	if len(pool) == 0 {
		return storeObject{}, false
	}

	sort.Slice(pool, func(i, j int) bool {
		if c := CompareVersions(pool[i].name, pool[j].name); c != 0 {
			return c > 0
		}
		return pool[i].digest < pool[j].digest
	})

	return pool[0], true
}

// hasVersionPrefix reports whether version starts with the whole numeric
// component prefix: "8" matches 8u272-b10 and 8.0.1 but not 80.1.
func hasVersionPrefix(version, prefix string) bool {
	rest, ok := strings.CutPrefix(version, prefix)
	if !ok {
		return false
	}
	if prefix == "" || rest == "" {
		return true
	}
	last, next := prefix[len(prefix)-1], rest[0]
	return !(isDigit(last) && isDigit(next))
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSecondaryOutput(version string) bool {
	for _, suffix := range outputSuffixes {
		if strings.HasSuffix(version, suffix) {
			return true
		}
	}
	return false
}
