// internal/cli/sync.go
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSyncCmd(a *app) *cobra.Command {
	var (
		url    string
		branch string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Update the package pins from the pins repository",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if url != "" {
				a.config.PinsURL = url
			}
			if branch != "" {
				a.config.PinsBranch = branch
			}

			m, err := a.manager()
			if err != nil {
				return err
			}

			var progress io.Writer
			if a.config.Debug {
				progress = cmd.ErrOrStderr()
			}

			result, err := m.Sync(cmd.Context(), progress)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Pins updated to %s (%d packages).\n", result.Commit, result.Entries)
			return err
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "pins repository URL")
	cmd.Flags().StringVar(&branch, "branch", "", "pins repository branch")

	return cmd
}
