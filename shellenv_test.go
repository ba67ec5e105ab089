package shellenv

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/shellenv/pkg/core"
)

const (
	protobufObject = "gyi5k0jkcsvjvwafkh252xiym9c4scwi-protobuf-25.1"
	openjdkObject  = "scycgwsz2fswgvdzc22hhgdfsh9l3l7r-openjdk-8u272-b10"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	store := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(store, protobufObject, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store, protobufObject, "bin", "protoc"), nil, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(store, openjdkObject, "lib", "openjdk"), 0o755))

	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, "query-engine", "connector-test-kit"), 0o755))

	cfg := DefaultConfig()
	cfg.ProjectRoot = project
	cfg.StoreDir = store
	cfg.CachePath = t.TempDir()
	cfg.Packages = []string{"protobuf", "openjdk8"}
	cfg.Variables = []Variable{
		{Name: "PROTOC", Package: "protobuf", Path: "bin/protoc"},
		{Name: "JAVA_HOME", Package: "openjdk8", Path: "lib/openjdk"},
	}
	return cfg
}

func TestManagerBuildFromStore(t *testing.T) {
	cfg := testConfig(t)

	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, RegistryStore, m.Registry())
	assert.NotNil(t, m.Platform())

	desc, err := m.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"PROTOC":    filepath.Join(cfg.StoreDir, protobufObject, "bin", "protoc"),
		"JAVA_HOME": filepath.Join(cfg.StoreDir, openjdkObject, "lib", "openjdk"),
	}, desc.Map())
	assert.Equal(t, []string{filepath.Join(cfg.StoreDir, protobufObject, "bin")}, desc.SearchPath())

	target, err := os.Readlink(filepath.Join(cfg.ProjectRoot, cfg.Link.Path))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.StoreDir, openjdkObject, "lib", "openjdk"), target)

	// A fresh manager rebuilds without touching the existing link
	again, err := NewManager(cfg, nil)
	require.NoError(t, err)
	_, err = again.Build(context.Background())
	require.NoError(t, err)
}

func TestManagerAutoFallsBackToSubstituter(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreDir = filepath.Join(t.TempDir(), "missing", "store")

	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, RegistrySubstitute, m.Registry())
}

func TestManagerUnknownRegistry(t *testing.T) {
	cfg := testConfig(t)
	cfg.Registry = "apt"

	_, err := NewManager(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	var opErr *Error
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "choose registry", opErr.Op)
}

func TestManagerLayersPins(t *testing.T) {
	cfg := testConfig(t)
	pinDir := filepath.Join(cfg.CachePath, "deps", "openjdk8")
	require.NoError(t, os.MkdirAll(pinDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pinDir, "index.toml"),
		[]byte("name = \"openjdk8\"\nstore_path = \""+filepath.Join(cfg.StoreDir, openjdkObject)+"\"\n"), 0o644))

	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, "store+pins", m.Registry())

	entry, err := m.GetRegistryEntry("openjdk8")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.StoreDir, openjdkObject), entry.StorePath)

	refs, err := m.Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, refs, 2)
	assert.Equal(t, filepath.Join(cfg.StoreDir, openjdkObject), refs[1].Path)
}

func TestManagerRegistryEntryWithoutPins(t *testing.T) {
	m, err := NewManager(testConfig(t), nil)
	require.NoError(t, err)

	_, err = m.GetRegistryEntry("openjdk8")
	assert.ErrorContains(t, err, "run sync first")
}

func TestManagerLink(t *testing.T) {
	cfg := testConfig(t)
	m := NewManagerWithRegistry(cfg, core.StaticRegistry{
		"openjdk8": filepath.Join(cfg.StoreDir, openjdkObject),
	}, nil)

	linkPath, err := m.Link(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, cfg.Link.Path), linkPath)

	target, err := os.Readlink(linkPath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.StoreDir, openjdkObject, "lib", "openjdk"), target)

	cfg.Link.Enabled = false
	_, err = m.Link(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestManagerBuildUnresolvedPackage(t *testing.T) {
	cfg := testConfig(t)
	m := NewManagerWithRegistry(cfg, core.StaticRegistry{}, nil)

	_, err := m.Build(context.Background())
	assert.ErrorIs(t, err, ErrUnresolvedPackage)

	var unresolved *UnresolvedPackageError
	require.ErrorAs(t, err, &unresolved)
	assert.Equal(t, "protobuf", unresolved.Name)

	_, statErr := os.Lstat(filepath.Join(cfg.ProjectRoot, cfg.Link.Path))
	assert.True(t, os.IsNotExist(statErr), "link created for a failed build")
}

func TestManagerSyncRequiresCachePath(t *testing.T) {
	cfg := testConfig(t)
	cfg.CachePath = ""
	m := NewManagerWithRegistry(cfg, core.StaticRegistry{}, nil)

	_, err := m.Sync(context.Background(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
