// Package search implements the commands that look up apps on a server.
package search

import (
	"fmt"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/cmd/utils"
	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/executor"
	"github.com/spf13/cobra"
)

const (
	formatTable = "table"
	formatYAML  = "yaml"
)

func NewCmdSearch() *cobra.Command {
	var (
		server utils.ServerFlags
		appID  int64
		format string
	)

	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Find apps that a deployment could overwrite",
		Long: `List the static and notebook apps you can edit whose title matches the
given text. With --app-id, that app is included when its mode qualifies
even if its title does not match.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != formatTable && format != formatYAML {
				return fmt.Errorf("invalid output format %q: must be %s or %s", format, formatTable, formatYAML)
			}

			client, err := connectedClient(cmd, &server)
			if err != nil {
				return err
			}

			apps, err := connect.OverrideTitleSearch(cmd.Context(), client, appID, args[0])
			if err != nil {
				return err
			}

			var out string
			if format == formatYAML {
				out, err = output.PrintYAML(apps)
			} else {
				out, err = output.PrintAppSummaries(apps)
			}
			if err != nil {
				return err
			}
			return output.FprintPlain(cmd.OutOrStdout(), "%s", out)
		},
	}

	server.Register(cmd)
	cmd.Flags().Int64Var(&appID, "app-id", 0, "Also consider the app with this ID")
	cmd.Flags().StringVarP(&format, "output", "o", formatTable, "Output format (table or yaml)")
	return cmd
}

func NewCmdFindName() *cobra.Command {
	var server utils.ServerFlags

	cmd := &cobra.Command{
		Use:   "find-name <title>",
		Short: "Show the app name a new deployment would get",
		Long: `Derive an app name from the title and print the first variant of it
that no app on the server uses yet.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := connectedClient(cmd, &server)
			if err != nil {
				return err
			}

			name, err := connect.FindUniqueName(cmd.Context(), client, executor.MakeDeploymentName(args[0]))
			if err != nil {
				return err
			}
			return output.FprintPlain(cmd.OutOrStdout(), "%s", name)
		},
	}

	server.Register(cmd)
	return cmd
}

func connectedClient(cmd *cobra.Command, flags *utils.ServerFlags) (*connect.Client, error) {
	sel, err := flags.Selection(true)
	if err != nil {
		return nil, err
	}
	exec := app.GetExecutor()
	server, err := exec.ValidateServer(cmd.Context(), sel)
	if err != nil {
		return nil, err
	}
	return exec.Client(server)
}
