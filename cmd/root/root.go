// Package root implements the command line interface for connectctl.
package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/deploy"
	"github.com/oar-cd/connectctl/cmd/history"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/cmd/search"
	"github.com/oar-cd/connectctl/cmd/server"
	"github.com/oar-cd/connectctl/cmd/utils"
	"github.com/oar-cd/connectctl/cmd/version"
	"github.com/oar-cd/connectctl/cmd/wait"
	"github.com/oar-cd/connectctl/config"
	"github.com/oar-cd/connectctl/logging"
	"github.com/spf13/cobra"
)

// skipInitCommands run without opening the local store.
var skipInitCommands = []string{"version", "help", "completion"}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewCmdRoot(config.GetDefaultDataDir())
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		utils.HandleCommandError(cmd.ErrOrStderr(), "running command", err)
	}
}

func NewCmdRoot(defaultDataDir string) *cobra.Command {
	var (
		dataDir    string
		configPath string
	)

	cmd := &cobra.Command{
		Use:   "connectctl",
		Short: "Deploy bundles to Connect servers",
		Long: `connectctl uploads pre-built bundles to a Connect server, deploys them
and follows the deployment log. Servers can be stored under nicknames and
every deployment is recorded locally, so redeploying a bundle updates the
same app.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts := []config.Option{config.WithCLIDefaults()}
			if cmd.Flags().Changed("data-dir") {
				opts = append(opts, config.WithDataDir(dataDir))
			}
			cfg, err := config.NewConfig(configPath, opts...)
			if err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			// CLI flags override config
			colorDisabled := !cfg.ColorEnabled
			if output.NoColor.IsSet() {
				colorDisabled = true
			}
			output.InitColors(colorDisabled)

			logLevel := cfg.LogLevel
			if logging.LogLevel.IsSet() {
				logLevel = logging.LogLevel.String()
			}
			logging.InitLogging(logLevel)

			if slices.Contains(skipInitCommands, cmd.Name()) {
				return nil
			}
			if err := app.InitializeWithConfig(cfg); err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().
		StringVarP(&dataDir, "data-dir", "d", defaultDataDir, "Data directory for the local store and configuration")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to configuration file")
	cmd.PersistentFlags().VarP(logging.LogLevel, "log-level", "l", "Set log verbosity level")
	cmd.PersistentFlags().VarP(output.NoColor, "no-color", "c", "Disable colored terminal output")

	cmd.AddCommand(deploy.NewCmdDeploy())
	cmd.AddCommand(deploy.NewCmdWatch())
	cmd.AddCommand(wait.NewCmdWait())
	cmd.AddCommand(search.NewCmdSearch())
	cmd.AddCommand(search.NewCmdFindName())
	cmd.AddCommand(history.NewCmdHistory())
	cmd.AddCommand(server.NewCmdServer())
	cmd.AddCommand(version.NewCmdVersion())
	return cmd
}
