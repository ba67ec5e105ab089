/*
Package env builds the environment of a development shell from resolved packages.

It handles:
  - Resolving the configured package names through a core.Registry
  - Deriving environment variables (JAVA_HOME, PROTOC, ...) from package roots
  - Finding shared libraries inside packages (LIBCLANG_PATH)
  - Computing the executable search path and PKG_CONFIG_PATH
  - Creating the optional symbolic link a test harness expects

Basic Usage:

	cfg := core.DefaultConfig()
	b := env.NewBuilder(cfg, registry, zap.NewNop())

	desc, err := b.Build(ctx)
	if err != nil {
		return err
	}

	cmd.Env = desc.Environ(os.Environ())

Package Layouts:

Nix store paths are flat: lib/, bin/ and lib/pkgconfig/ sit directly below
the root. NixLayout describes them.
*/
package env
