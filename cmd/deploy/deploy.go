// Package deploy implements the deploy and watch commands.
package deploy

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oar-cd/connectctl/app"
	"github.com/oar-cd/connectctl/cmd/output"
	"github.com/oar-cd/connectctl/cmd/utils"
	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/executor"
	"github.com/spf13/cobra"
)

type deployOptions struct {
	server   utils.ServerFlags
	appID    int64
	title    string
	isNew    bool
	mode     string
	env      []string
	envFile  string
	timeout  time.Duration
	pollWait time.Duration
	noWait   bool
}

func NewCmdDeploy() *cobra.Command {
	opts := &deployOptions{}

	cmd := &cobra.Command{
		Use:   "deploy <bundle>",
		Short: "Deploy a bundle to a Connect server",
		Long: `Upload a pre-built bundle (a tar.gz archive) to a Connect server and deploy it.

Without --app-id, a bundle that was deployed to the same server before
updates the same app. Use --new to create a separate app instead.
The deployment log is streamed until the task finishes unless --no-wait
is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeploy(cmd, args[0], opts)
		},
	}

	registerDeployFlags(cmd, opts)
	return cmd
}

func registerDeployFlags(cmd *cobra.Command, opts *deployOptions) {
	opts.server.Register(cmd)
	cmd.Flags().Int64VarP(&opts.appID, "app-id", "a", 0, "ID of an existing app to update")
	cmd.Flags().StringVarP(&opts.title, "title", "t", "", "Title of the app (default: bundle file name)")
	cmd.Flags().BoolVar(&opts.isNew, "new", false, "Always create a new app")
	cmd.Flags().StringVar(&opts.mode, "mode", domain.AppModeStatic.Name(),
		fmt.Sprintf("App mode of the bundle (one of %s)", strings.Join(domain.AppModeNames()[1:], ", ")))
	cmd.Flags().StringArrayVarP(&opts.env, "environment", "E", nil, "Environment variable NAME=VALUE (repeatable)")
	cmd.Flags().StringVar(&opts.envFile, "env-file", "", "File with environment variables to set")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 0, "Stop waiting for the deployment after this long (default: no limit)")
	cmd.Flags().DurationVar(&opts.pollWait, "poll-wait", 0, "Interval between task status requests")
	cmd.Flags().BoolVar(&opts.noWait, "no-wait", false, "Return once the deployment has started")
}

func runDeploy(cmd *cobra.Command, bundlePath string, opts *deployOptions) error {
	absPath, err := filepath.Abs(bundlePath)
	if err != nil {
		return fmt.Errorf("failed to resolve bundle path: %w", err)
	}
	bundle, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read bundle: %w", err)
	}

	s, err := newSession(cmd, absPath, opts)
	if err != nil {
		return err
	}
	return s.Deploy(cmd.Context(), bundle)
}

// session holds what stays the same across deploys of one bundle path.
type session struct {
	exec    *executor.Executor
	server  *domain.Server
	path    string
	mode    domain.AppMode
	envVars []domain.EnvVar
	opts    *deployOptions
	out     io.Writer
}

func newSession(cmd *cobra.Command, absPath string, opts *deployOptions) (*session, error) {
	mode, err := domain.ParseAppMode(opts.mode)
	if err != nil {
		return nil, err
	}

	envVars, err := utils.ParseEnvVars(opts.env, opts.envFile)
	if err != nil {
		return nil, err
	}

	sel, err := opts.server.Selection(true)
	if err != nil {
		return nil, err
	}

	exec := app.GetExecutor()
	server, err := exec.ValidateServer(cmd.Context(), sel)
	if err != nil {
		return nil, err
	}

	return &session{
		exec:    exec,
		server:  server,
		path:    absPath,
		mode:    mode,
		envVars: envVars,
		opts:    opts,
		out:     cmd.OutOrStdout(),
	}, nil
}

// Deploy runs one deployment of bundle. Once an app exists, later calls
// update that app even when the first one created it with --new.
func (s *session) Deploy(ctx context.Context, bundle []byte) error {
	if err := output.FprintPlain(s.out, "Deploying %s to %s", filepath.Base(s.path), s.server.URL); err != nil {
		return err
	}

	dc := &executor.DeployContext{
		Server:  s.server,
		Path:    s.path,
		AppID:   s.opts.appID,
		AppMode: s.mode,
		New:     s.opts.isNew,
		Title:   s.opts.title,
		Bundle:  bundle,
		EnvVars: s.envVars,
	}

	var wait *connect.WaitOptions
	if !s.opts.noWait {
		w := utils.WaitOptions(s.out, s.opts.timeout, s.opts.pollWait)
		wait = &w
	}

	err := s.exec.Run(ctx, dc, s.mode, wait)
	if dc.Result != nil {
		s.opts.isNew = false
		s.opts.appID = dc.Result.AppID
	}
	if err != nil {
		return err
	}

	table, err := output.PrintDeploymentResult(dc.Result, dc.ConfigURL)
	if err != nil {
		return err
	}
	if err := output.FprintPlain(s.out, "%s", table); err != nil {
		return err
	}

	if s.opts.noWait {
		return output.FprintPlain(s.out, "Follow the deployment with: connectctl wait %d %s",
			dc.Result.AppID, dc.Result.TaskID)
	}
	return output.FprintSuccess(s.out, "Deployment completed")
}
