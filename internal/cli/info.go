// internal/cli/info.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info [package]",
		Short: "Show the platform, registry and pins for a package",
		Long: `Display the detected platform and the active registry. With a package
name, also show its pins entry and the path it resolves to.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.manager()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Platform: %s\n", m.Platform())
			fmt.Fprintf(out, "Registry: %s\n", m.Registry())

			if len(args) == 0 {
				return nil
			}
			pkg := args[0]

			fmt.Fprintf(out, "Package: %s\n", pkg)
			if entry, err := m.GetRegistryEntry(pkg); err == nil {
				if entry.Attribute != "" {
					fmt.Fprintf(out, "Attribute: %s\n", entry.Attribute)
				}
				if entry.StorePath != "" {
					fmt.Fprintf(out, "Pinned: %s\n", entry.StorePath)
				}
				if len(entry.Libs) > 0 {
					fmt.Fprintf(out, "Libs: %v\n", entry.Libs)
				}
			}

			path, err := m.ResolvePackage(cmd.Context(), pkg)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Path: %s\n", path)

			return nil
		},
	}
}
