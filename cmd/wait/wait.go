// Package wait implements the wait command.
package wait

import (
	"fmt"
	"strconv"
	"time"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/cmd/utils"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/executor"
	"github.com/spf13/cobra"
)

func NewCmdWait() *cobra.Command {
	var (
		server   utils.ServerFlags
		timeout  time.Duration
		pollWait time.Duration
	)

	cmd := &cobra.Command{
		Use:   "wait <app-id> <task-id>",
		Short: "Follow a running deployment task",
		Long: `Stream the log of a deployment task until it finishes, then print the
URL the app is served at.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			appID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || appID <= 0 {
				return fmt.Errorf("invalid app ID %q: must be a positive integer", args[0])
			}

			sel, err := server.Selection(false)
			if err != nil {
				return err
			}

			exec := app.GetExecutor()
			srv, err := exec.ValidateServer(cmd.Context(), sel)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			dc := &executor.DeployContext{
				Server: srv,
				Result: &domain.DeploymentResult{AppID: appID, TaskID: args[1]},
			}
			if err := exec.WaitForDeployment(cmd.Context(), dc, utils.WaitOptions(out, timeout, pollWait)); err != nil {
				return err
			}
			return output.FprintSuccess(out, "Task finished. App URL: %s", dc.ConfigURL)
		},
	}

	server.Register(cmd)
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop waiting after this long (default: no limit)")
	cmd.Flags().DurationVar(&pollWait, "poll-wait", 0, "Interval between task status requests")
	return cmd
}
