// Package executor runs a bundle deployment as a sequence of steps that
// share one typed DeployContext: server validation, app mode validation,
// naming, the deploy itself and the wait for its task.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/repository"
)

// Dialer opens a client for a server with the given request timeout.
type Dialer func(server *domain.Server, timeout time.Duration) (*connect.Client, error)

// DeployContext carries what each step learns to the steps after it.
type DeployContext struct {
	Server *domain.Server
	// Path identifies the deployed content locally; deployment records are
	// keyed by it.
	Path    string
	AppID   int64
	AppMode domain.AppMode
	New     bool

	Name           string
	Title          string
	TitleIsDefault bool

	Bundle  []byte
	EnvVars []domain.EnvVar

	Result    *domain.DeploymentResult
	Record    *domain.DeploymentRecord
	ConfigURL string
}

// Executor runs deployment steps against one server at a time.
type Executor struct {
	servers        repository.ServerStore
	apps           repository.AppStore
	dial           Dialer
	requestTimeout time.Duration
	deployTimeout  time.Duration
}

type Option func(*Executor)

// WithDialer replaces how clients are opened.
func WithDialer(dial Dialer) Option {
	return func(e *Executor) { e.dial = dial }
}

// WithTimeouts sets the request timeout for ordinary calls and for deploys.
func WithTimeouts(request, deploy time.Duration) Option {
	return func(e *Executor) {
		if request > 0 {
			e.requestTimeout = request
		}
		if deploy > 0 {
			e.deployTimeout = deploy
		}
	}
}

func New(servers repository.ServerStore, apps repository.AppStore, opts ...Option) *Executor {
	e := &Executor{
		servers:        servers,
		apps:           apps,
		dial:           connect.Dial,
		requestTimeout: connect.DefaultRequestTimeout,
		deployTimeout:  connect.DeployTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Client opens a client for server with the ordinary request timeout.
func (e *Executor) Client(server *domain.Server) (*connect.Client, error) {
	return e.dial(server, e.requestTimeout)
}

// DeployBundle runs the deploy and records it locally. The record is saved
// as soon as the server accepted the deploy, so a later run of the same
// path finds the app even when waiting for the task fails.
func (e *Executor) DeployBundle(ctx context.Context, dc *DeployContext) error {
	client, err := e.dial(dc.Server, e.deployTimeout)
	if err != nil {
		return err
	}

	result, err := client.Deploy(ctx, connect.DeployRequest{
		AppID:          dc.AppID,
		Name:           dc.Name,
		Title:          dc.Title,
		TitleIsDefault: dc.TitleIsDefault,
		Bundle:         dc.Bundle,
		EnvVars:        dc.EnvVars,
	})
	if err != nil {
		return err
	}
	dc.Result = result
	dc.AppID = result.AppID

	record := domain.NewDeploymentRecord(dc.Server.URL, dc.Path, result, dc.AppMode)
	if err := e.apps.Save(&record); err != nil {
		return fmt.Errorf("failed to save deployment record: %w", err)
	}
	dc.Record = &record

	slog.Info("Deployment recorded",
		"layer", "executor",
		"app_id", result.AppID,
		"task_id", result.TaskID,
		"path", dc.Path)
	return nil
}

// WaitForDeployment follows the deploy task to its end, then stores the
// outcome and the app's final URL on the deployment record.
func (e *Executor) WaitForDeployment(ctx context.Context, dc *DeployContext, opts connect.WaitOptions) error {
	if dc.Result == nil {
		return errors.New("no deployment to wait for")
	}

	client, err := e.Client(dc.Server)
	if err != nil {
		return err
	}

	configURL, _, status, err := connect.EmitTaskLog(ctx, client, dc.Result.AppID, dc.Result.TaskID, opts)

	if dc.Record != nil {
		switch {
		case errors.Is(err, connect.ErrTaskFailed):
			dc.Record.Status = domain.DeploymentStatusFailed
		case err == nil && status != nil && status.Code != 0:
			dc.Record.Status = domain.DeploymentStatusFailed
		case err == nil:
			dc.Record.Status = domain.DeploymentStatusCompleted
			dc.Record.AppURL = configURL
		}
		if dc.Record.Status != domain.DeploymentStatusStarted {
			if saveErr := e.apps.Save(dc.Record); saveErr != nil {
				slog.Error("Failed to update deployment record",
					"layer", "executor",
					"operation", "wait_for_deployment",
					"deployment_id", dc.Record.ID,
					"error", saveErr)
			}
		}
	}

	if err != nil {
		return err
	}
	dc.ConfigURL = configURL
	return nil
}

// Run performs every step after server validation in order. The task is
// only followed when wait is set.
func (e *Executor) Run(ctx context.Context, dc *DeployContext, defaultMode domain.AppMode, wait *connect.WaitOptions) error {
	if dc.Server == nil {
		return errors.New("server must be validated before deploying")
	}
	if err := e.ValidateAppMode(ctx, dc, defaultMode); err != nil {
		return err
	}
	if err := e.PrepareDeployment(ctx, dc); err != nil {
		return err
	}
	if err := e.DeployBundle(ctx, dc); err != nil {
		return err
	}
	if wait == nil {
		return nil
	}
	return e.WaitForDeployment(ctx, dc, *wait)
}
