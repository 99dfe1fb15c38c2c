package connect

import (
	"context"
	"log/slog"
	"time"

	"github.com/oar-cd/connectctl/domain"
)

// DeployTimeout is the request timeout used for bundle uploads and deploys.
const DeployTimeout = 120 * time.Second

// DeployRequest describes one bundle deployment. A zero AppID creates a new
// app named Name.
type DeployRequest struct {
	AppID          int64
	Name           string
	Title          string
	TitleIsDefault bool
	Bundle         []byte
	EnvVars        []domain.EnvVar
}

// Deploy creates or fetches the app, applies environment variables and the
// title, uploads the bundle and starts its deployment.
//
// Steps are not rolled back: when the upload or deploy fails, the title and
// environment variables may already have been changed on the server.
func (c *Client) Deploy(ctx context.Context, req DeployRequest) (*domain.DeploymentResult, error) {
	var (
		app *domain.App
		err error
	)

	titleIsDefault := req.TitleIsDefault
	if req.AppID == 0 {
		app, err = c.CreateApp(ctx, req.Name)
		if err != nil {
			return nil, err
		}
		slog.Info("Created app", "app_id", app.ID, "app_guid", app.GUID, "name", req.Name)
		// A new app always gets the requested title.
		titleIsDefault = false
	} else {
		// If the app was deleted the server reports it.
		app, err = c.GetApp(ctx, req.AppID)
		if err != nil {
			return nil, err
		}
	}

	if len(req.EnvVars) > 0 {
		if err := c.SetEnvironmentVars(ctx, app.GUID, req.EnvVars); err != nil {
			return nil, err
		}
		slog.Debug("Environment variables set", "app_guid", app.GUID, "count", len(req.EnvVars))
	}

	if app.Title != req.Title && !titleIsDefault {
		if _, err := c.UpdateApp(ctx, app.ID, map[string]any{"title": req.Title}); err != nil {
			return nil, err
		}
		app.Title = req.Title
	}

	bundle, err := c.UploadBundle(ctx, app.ID, req.Bundle)
	if err != nil {
		return nil, err
	}
	slog.Debug("Bundle uploaded", "app_id", app.ID, "bundle_id", bundle.ID, "size", len(req.Bundle))

	task, err := c.DeployApp(ctx, app.ID, bundle.ID)
	if err != nil {
		return nil, err
	}
	slog.Info("Deployment started", "app_id", app.ID, "bundle_id", bundle.ID, "task_id", task.ID)

	return &domain.DeploymentResult{
		TaskID:  task.ID,
		AppID:   app.ID,
		AppGUID: app.GUID,
		AppURL:  app.URL,
		Title:   app.Title,
	}, nil
}
