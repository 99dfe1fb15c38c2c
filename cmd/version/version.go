// Package version provides the version command for connectctl.
package version

import (
	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/spf13/cobra"
)

// NewCmdVersion creates the version command
func NewCmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version information for connectctl.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return output.FprintPlain(cmd.OutOrStdout(), "%s", app.Version)
		},
	}
}
