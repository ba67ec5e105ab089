// internal/cli/hook.go
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arc-language/shellenv/pkg/shell"
)

func newHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hook [bash|zsh|fish]",
		Short: "Generate shell integration code",
		Long: `Print shell functions that add "shellenv activate" and
"shellenv deactivate" to the current shell.

Setup:
  echo 'eval "$(shellenv hook bash)"' >> ~/.bashrc
  echo 'eval "$(shellenv hook zsh)"' >> ~/.zshrc
  echo 'shellenv hook fish | source' >> ~/.config/fish/config.fish`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh", "fish"},
		// No configuration is needed to print the hook
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			f := shell.Detect(os.Getenv("SHELL"))
			if len(args) == 1 {
				parsed, err := shell.ParseFormat(args[0])
				if err != nil {
					return err
				}
				f = parsed
			}
			return shell.WriteHook(cmd.OutOrStdout(), f)
		},
	}
}
