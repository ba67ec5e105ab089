// internal/cli/root.go
package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/arc-language/shellenv"
)

// app carries what every command needs once flags are parsed
type app struct {
	v      *viper.Viper
	config *shellenv.Config
	logger *zap.Logger
}

// ExitError carries a child process exit code out of Execute
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return "exit status " + strconv.Itoa(e.Code)
}

// Execute executes the root command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

// ExitCode maps an Execute error to a process exit code
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "shellenv",
		Short: "Reproducible development shell environments",
		Long: `shellenv - reproducible development shell environments

Resolves a fixed set of Nix packages, exports the variables the build
needs and opens a shell with the packages on PATH.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "config file (default is ./shellenv.yaml)")
	flags.String("registry", "", "package registry to use (auto, store, substitute)")
	flags.String("store-dir", "", "nix store directory")
	flags.Bool("debug", false, "enable debug logging")

	a.v.SetEnvPrefix("SHELLENV")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()
	for _, name := range []string{"config", "registry", "store-dir", "debug"} {
		_ = a.v.BindPFlag(name, flags.Lookup(name))
	}

	rootCmd.AddCommand(
		newShellCmd(a),
		newEnvCmd(a),
		newResolveCmd(a),
		newLinkCmd(a),
		newInfoCmd(a),
		newSyncCmd(a),
		newInitCmd(a),
		newHookCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func (a *app) init() error {
	cfg, err := shellenv.LoadConfig(a.v.GetString("config"))
	if err != nil {
		return err
	}

	// Override config with flags and environment
	if registry := a.v.GetString("registry"); registry != "" {
		cfg.Registry = registry
	}
	if storeDir := a.v.GetString("store-dir"); storeDir != "" {
		cfg.StoreDir = storeDir
	}
	if a.v.GetBool("debug") {
		cfg.Debug = true
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		return err
	}

	a.config = cfg
	a.logger = logger
	return nil
}

func (a *app) manager() (*shellenv.Manager, error) {
	return shellenv.NewManager(a.config, a.logger)
}

func newLogger(debug bool) (*zap.Logger, error) {
	if !debug {
		return zap.NewNop(), nil
	}
	return zap.NewDevelopment()
}

