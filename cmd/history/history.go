// Package history implements the history command.
package history

import (
	"fmt"
	"path/filepath"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/spf13/cobra"
)

func NewCmdHistory() *cobra.Command {
	return &cobra.Command{
		Use:   "history <bundle>",
		Short: "List the recorded deployments of a bundle",
		Long: `Show every deployment of the bundle recorded in the local store, most
recent first, across all servers.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve bundle path: %w", err)
			}

			records, err := app.GetAppStore().ListByPath(path)
			if err != nil {
				return err
			}

			out, err := output.PrintDeploymentRecords(records)
			if err != nil {
				return err
			}
			return output.FprintPlain(cmd.OutOrStdout(), "%s", out)
		},
	}
}
