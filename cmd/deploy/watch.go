package deploy

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/cmd/utils"
	"github.com/oar-cd/connectctl/watcher"
	"github.com/spf13/cobra"
)

const defaultWatchInterval = 5 * time.Second

func NewCmdWatch() *cobra.Command {
	opts := &deployOptions{}
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <bundle>",
		Short: "Redeploy a bundle whenever it changes",
		Long: `Deploy the bundle, then keep checking it and deploy again each time its
content changes. The first deployment picks the app like the deploy
command does; later ones update that app. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if interval <= 0 {
				return fmt.Errorf("interval must be positive, got: %v", interval)
			}

			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve bundle path: %w", err)
			}

			s, err := newSession(cmd, absPath, opts)
			if err != nil {
				return err
			}

			if err := output.FprintPlain(cmd.OutOrStdout(), "Watching %s every %s", absPath, interval); err != nil {
				return err
			}
			return watcher.NewBundleWatcher(absPath, &reportingDeployer{s}, interval).Start(cmd.Context())
		},
	}

	registerDeployFlags(cmd, opts)
	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "How often to check the bundle for changes")
	return cmd
}

// reportingDeployer prints a failed deploy so the watch goes on with the
// user informed.
type reportingDeployer struct {
	*session
}

func (d *reportingDeployer) Deploy(ctx context.Context, bundle []byte) error {
	err := d.session.Deploy(ctx, bundle)
	if err != nil {
		_ = output.FprintError(d.out, "Deployment failed: %s", utils.FormatErrorForUser(err))
	}
	return err
}
