package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	protobufObject = "gyi5k0jkcsvjvwafkh252xiym9c4scwi-protobuf-25.1"
	openjdkObject  = "scycgwsz2fswgvdzc22hhgdfsh9l3l7r-openjdk-8u272-b10"
)

type fixture struct {
	store   string
	project string
	config  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	t.Setenv("SHELLENV_CACHE_PATH", t.TempDir())
	t.Setenv("SHELLENV_REGISTRY", "")
	t.Setenv("SHELLENV_STORE_DIR", "")
	t.Setenv("SHELLENV_DEBUG", "")

	store := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(store, protobufObject, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(store, protobufObject, "bin", "protoc"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(store, protobufObject, "include"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(store, openjdkObject, "lib", "openjdk"), 0o755))

	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, "query-engine", "connector-test-kit"), 0o755))

	config := filepath.Join(project, "shellenv.yaml")
	body := `store_dir: ` + store + `
registry: store
packages: [protobuf, openjdk8]
variables:
  - {name: PROTOC, package: protobuf, path: bin/protoc}
  - {name: PROTOC_INCLUDE, package: protobuf, path: include}
  - {name: JAVA_HOME, package: openjdk8, path: lib/openjdk}
link:
  enabled: true
  path: query-engine/connector-test-kit/.openjdk
  package: openjdk8
  target: lib/openjdk
`
	require.NoError(t, os.WriteFile(config, []byte(body), 0o644))

	return fixture{store: store, project: project, config: config}
}

func (f fixture) linkPath() string {
	return filepath.Join(f.project, "query-engine", "connector-test-kit", ".openjdk")
}

func executeCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestEnvBashCreatesLink(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, "--config", f.config, "env", "--format", "bash")
	require.NoError(t, err)

	assert.Contains(t, stdout, "export PROTOC="+filepath.Join(f.store, protobufObject, "bin", "protoc")+"\n")
	assert.Contains(t, stdout, "export PROTOC_INCLUDE="+filepath.Join(f.store, protobufObject, "include")+"\n")
	assert.Contains(t, stdout, "export JAVA_HOME="+filepath.Join(f.store, openjdkObject, "lib", "openjdk")+"\n")
	assert.Contains(t, stdout, "export PATH="+filepath.Join(f.store, protobufObject, "bin"))

	target, err := os.Readlink(f.linkPath())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.store, openjdkObject, "lib", "openjdk"), target)
}

func TestEnvJSONWithoutLink(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, "--config", f.config, "env", "--format", "json", "--no-link")
	require.NoError(t, err)

	var doc struct {
		Variables map[string]string `json:"variables"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))
	assert.Len(t, doc.Variables, 3)

	_, statErr := os.Lstat(f.linkPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestEnvUnknownFormat(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, "--config", f.config, "env", "--format", "powershell")
	assert.ErrorContains(t, err, "unsupported format")
}

func TestEnvFailsForMissingPackage(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.RemoveAll(filepath.Join(f.store, openjdkObject)))

	stdout, _, err := executeCLI(t, "--config", f.config, "env", "--format", "bash")
	assert.ErrorContains(t, err, "openjdk8")
	assert.Empty(t, stdout)
	assert.Equal(t, 1, ExitCode(err))
}

func TestResolveListsPackages(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, "--config", f.config, "resolve")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "protobuf"))
	assert.True(t, strings.HasSuffix(lines[0], filepath.Join(f.store, protobufObject)))
	assert.True(t, strings.HasSuffix(lines[1], filepath.Join(f.store, openjdkObject)))

	_, statErr := os.Lstat(f.linkPath())
	assert.True(t, os.IsNotExist(statErr), "resolve must not create the link")
}

func TestLinkCommand(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, "--config", f.config, "link")
	require.NoError(t, err)
	assert.Equal(t, f.linkPath()+"\n", stdout)

	_, err = os.Readlink(f.linkPath())
	require.NoError(t, err)
}

func TestShellRunsCommandInEnvironment(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, "--config", f.config, "shell", "--no-link",
		"/bin/sh", "-c", `echo "$JAVA_HOME"; exit 4`)
	require.Error(t, err)
	assert.Equal(t, 4, ExitCode(err))
	assert.Equal(t, filepath.Join(f.store, openjdkObject, "lib", "openjdk")+"\n", stdout)
}

func TestShellSuccess(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, "--config", f.config, "shell", "/bin/sh", "-c", `test -x "$PROTOC"`)
	require.NoError(t, err)
	assert.Equal(t, 0, ExitCode(err))
}

func TestEnvironmentOverrides(t *testing.T) {
	f := newFixture(t)

	t.Setenv("SHELLENV_REGISTRY", "apt")
	_, _, err := executeCLI(t, "--config", f.config, "resolve")
	assert.ErrorContains(t, err, "unknown registry")

	t.Setenv("SHELLENV_REGISTRY", "")
	t.Setenv("SHELLENV_STORE_DIR", t.TempDir())
	_, _, err = executeCLI(t, "--config", f.config, "resolve")
	assert.ErrorContains(t, err, "protobuf")
}

func TestStoreDirFlag(t *testing.T) {
	f := newFixture(t)

	_, _, err := executeCLI(t, "--config", f.config, "--store-dir", t.TempDir(), "resolve")
	assert.ErrorContains(t, err, "unresolved package")
}

func TestMissingConfigFile(t *testing.T) {
	newFixture(t)

	_, _, err := executeCLI(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "resolve")
	assert.ErrorContains(t, err, "reading config")
}

func TestInfoCommand(t *testing.T) {
	f := newFixture(t)

	stdout, _, err := executeCLI(t, "--config", f.config, "info", "protobuf")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Registry: store\n")
	assert.Contains(t, stdout, "Path: "+filepath.Join(f.store, protobufObject)+"\n")
}

func TestInitWritesConfig(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(t.TempDir(), "shellenv.yaml")

	stdout, _, err := executeCLI(t, "--config", f.config, "init", out)
	require.NoError(t, err)
	assert.Equal(t, "Wrote "+out+"\n", stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "registry: store")

	_, _, err = executeCLI(t, "--config", f.config, "init", out)
	assert.ErrorContains(t, err, "already exists")

	_, _, err = executeCLI(t, "--config", f.config, "init", "--force", out)
	assert.NoError(t, err)
}

func TestHookCommand(t *testing.T) {
	t.Setenv("SHELLENV_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	stdout, _, err := executeCLI(t, "hook", "zsh")
	require.NoError(t, err)
	assert.Contains(t, stdout, "add-zsh-hook precmd")

	_, _, err = executeCLI(t, "hook", "json")
	assert.ErrorContains(t, err, "no shell integration")
}

func TestVersionCommand(t *testing.T) {
	stdout, _, err := executeCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "shellenv version "+version)
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 7, ExitCode(&ExitError{Code: 7}))
	assert.Equal(t, 1, ExitCode(os.ErrNotExist))
	assert.Equal(t, "exit status 7", (&ExitError{Code: 7}).Error())
}
