// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "shellenv version %s\n", version)
			fmt.Fprintln(out, "Reproducible development shell environments")
			_, err := fmt.Fprintln(out, "https://github.com/arc-language/shellenv")
			return err
		},
	}
}
