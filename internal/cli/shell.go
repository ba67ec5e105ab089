// internal/cli/shell.go
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arc-language/shellenv/pkg/shell"
)

func newShellCmd(a *app) *cobra.Command {
	var noLink bool

	cmd := &cobra.Command{
		Use:   "shell [command [args...]]",
		Short: "Open a shell inside the environment",
		Long: `Build the environment and start $SHELL, or the given command, with the
variables exported and package binaries on PATH.

Examples:
  shellenv shell
  shellenv shell cargo test
  shellenv shell --no-link -- sbt compile`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if noLink {
				a.config.Link.Enabled = false
			}

			m, err := a.manager()
			if err != nil {
				return err
			}

			desc, err := m.Build(cmd.Context())
			if err != nil {
				return err
			}

			runner := shell.NewRunner(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())

			code, err := runner.Run(cmd.Context(), desc, args)
			if err != nil {
				return err
			}
			if code != 0 {
				return &ExitError{Code: code}
			}
			return nil
		},
	}

	cmd.Flags().SetInterspersed(false)
	cmd.Flags().BoolVar(&noLink, "no-link", false, "skip creating the configured link")

	return cmd
}

func newEnvCmd(a *app) *cobra.Command {
	var (
		format string
		noLink bool
	)

	cmd := &cobra.Command{
		Use:   "env",
		Short: "Print the activation script for the environment",
		Long: `Build the environment and print shell code that activates it.

Examples:
  eval "$(shellenv env)"
  shellenv env --format fish | source
  shellenv env --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := shell.Detect(os.Getenv("SHELL"))
			if format != "" {
				parsed, err := shell.ParseFormat(format)
				if err != nil {
					return err
				}
				f = parsed
			}

			if noLink {
				a.config.Link.Enabled = false
			}

			m, err := a.manager()
			if err != nil {
				return err
			}

			desc, err := m.Build(cmd.Context())
			if err != nil {
				return err
			}

			return shell.WriteScript(cmd.OutOrStdout(), desc, f)
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "output format: bash, zsh, fish or json (default from $SHELL)")
	cmd.Flags().BoolVar(&noLink, "no-link", false, "skip creating the configured link")

	return cmd
}
