package env

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-language/shellenv/pkg/core"
)

func TestDescriptorSearchPathSkipsPackagesWithoutBinaries(t *testing.T) {
	store := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(store, "protobuf", "bin"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(store, "openssl", "lib"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(store, "sbt", "bin"), 0o755))

	desc := &Descriptor{
		Packages: []core.PackageReference{
			{Name: "sbt", Path: filepath.Join(store, "sbt")},
			{Name: "openssl", Path: filepath.Join(store, "openssl")},
			{Name: "protobuf", Path: filepath.Join(store, "protobuf")},
		},
		layout: NixLayout(),
	}

	assert.Equal(t, []string{
		filepath.Join(store, "sbt", "bin"),
		filepath.Join(store, "protobuf", "bin"),
	}, desc.SearchPath())
}

func TestDescriptorEnviron(t *testing.T) {
	store := t.TempDir()
	binDir := filepath.Join(store, "protobuf", "bin")
	require.NoError(t, os.MkdirAll(binDir, 0o755))

	desc := &Descriptor{
		Packages: []core.PackageReference{{Name: "protobuf", Path: filepath.Join(store, "protobuf")}},
		Variables: []Variable{
			{Name: "PROTOC", Value: filepath.Join(binDir, "protoc"), Package: "protobuf"},
		},
		layout: NixLayout(),
	}

	base := []string{"HOME=/home/dev", "PROTOC=/usr/bin/protoc", "PATH=/usr/bin"}
	env := desc.Environ(base)

	assert.Contains(t, env, "HOME=/home/dev")
	assert.Contains(t, env, "PROTOC="+filepath.Join(binDir, "protoc"))
	assert.NotContains(t, env, "PROTOC=/usr/bin/protoc")
	assert.Contains(t, env, "PATH="+binDir+string(os.PathListSeparator)+"/usr/bin")
	assert.Equal(t, []string{"HOME=/home/dev", "PROTOC=/usr/bin/protoc", "PATH=/usr/bin"}, base, "base mutated")

	var paths int
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			paths++
		}
	}
	assert.Equal(t, 1, paths)
}

func TestDescriptorValidate(t *testing.T) {
	pkgs := []core.PackageReference{{Name: "openjdk8", Path: "/nix/store/ghi-openjdk8"}}

	testCases := []struct {
		name    string
		v       Variable
		wantErr string
	}{
		{name: "ok", v: Variable{Name: "JAVA_HOME", Value: "/nix/store/ghi-openjdk8/lib/openjdk", Package: "openjdk8"}},
		{name: "dangling", v: Variable{Name: "PROTOC", Value: "/nix/store/def-protobuf/bin/protoc", Package: "protobuf"}, wantErr: "missing from the environment"},
		{name: "relative", v: Variable{Name: "JAVA_HOME", Value: "lib/openjdk", Package: "openjdk8"}, wantErr: "not an absolute path"},
		{name: "escapes", v: Variable{Name: "JAVA_HOME", Value: "/nix/store/other", Package: "openjdk8"}, wantErr: "escapes package"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			desc := &Descriptor{Packages: pkgs, Variables: []Variable{tc.v}}
			err := desc.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestDescriptorPkgConfigPath(t *testing.T) {
	store := t.TempDir()
	opensslPC := filepath.Join(store, "openssl-dev", "lib", "pkgconfig")
	krb5PC := filepath.Join(store, "krb5-dev", "lib", "pkgconfig")
	sharePC := filepath.Join(store, "krb5-dev", "share", "pkgconfig")
	for _, dir := range []string{opensslPC, krb5PC, sharePC, filepath.Join(store, "protobuf", "bin")} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	desc := NewDescriptor([]core.PackageReference{
		{Name: "openssl", Path: filepath.Join(store, "openssl-dev")},
		{Name: "protobuf", Path: filepath.Join(store, "protobuf")},
		{Name: "krb5", Path: filepath.Join(store, "krb5-dev")},
	}, nil, NixLayout())

	assert.Equal(t, []string{opensslPC, krb5PC, sharePC}, desc.PkgConfigPath())

	env := desc.Environ([]string{"PKG_CONFIG_PATH=/usr/lib/pkgconfig"})
	sep := string(os.PathListSeparator)
	assert.Contains(t, env, "PKG_CONFIG_PATH="+opensslPC+sep+krb5PC+sep+sharePC+sep+"/usr/lib/pkgconfig")

	env = desc.Environ(nil)
	assert.Contains(t, env, "PKG_CONFIG_PATH="+opensslPC+sep+krb5PC+sep+sharePC)
}

func TestDescriptorEnvironWithoutPkgConfig(t *testing.T) {
	desc := NewDescriptor([]core.PackageReference{{Name: "sbt", Path: t.TempDir()}}, nil, NixLayout())

	assert.Empty(t, desc.PkgConfigPath())
	assert.Equal(t, []string{"PKG_CONFIG_PATH=/usr/lib/pkgconfig"}, desc.Environ([]string{"PKG_CONFIG_PATH=/usr/lib/pkgconfig"}))
}

func TestPackageTreeFindSharedLibrary(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "lib"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "libssl.a"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "lib", "libssl.so.3"), nil, 0o644))

	tree := NewPackageTree(root, NixLayout())

	shared := tree.FindSharedLibrary("ssl")
	require.NotNil(t, shared)
	assert.Equal(t, filepath.Join(root, "lib", "libssl.so.3"), shared.Path)
	assert.Equal(t, filepath.Join(root, "lib"), shared.Dir)

	assert.Nil(t, tree.FindSharedLibrary("crypto"))
	assert.Equal(t, []string{filepath.Join(root, "lib")}, tree.LibraryPaths())
	assert.Empty(t, tree.BinaryPaths())
	assert.Empty(t, tree.PkgConfigPaths())
}
