// Package connect implements the deployment protocol spoken with a Connect
// server: app and bundle operations, deploys, task polling and the paged
// application search.
package connect

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/oar-cd/connectctl/domain"
)

// Client wraps a Transport with the server's domain operations. A Client
// carries per-deploy state only on the stack; it must not be shared by
// concurrent deploys.
type Client struct {
	server    *domain.Server
	transport Transport
}

// NewClient returns a Client that sends requests for server through transport.
func NewClient(server *domain.Server, transport Transport) *Client {
	return &Client{server: server, transport: transport}
}

// Server returns the server the client talks to.
func (c *Client) Server() *domain.Server {
	return c.server
}

func (c *Client) serverURL() string {
	if c.server == nil {
		return ""
	}
	return c.server.URL
}

func (c *Client) check(resp *Response) error {
	return CheckResponse(c.serverURL(), resp)
}

// getJSON performs a GET, validates it and decodes the body into v.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, v any) error {
	resp := c.transport.Get(ctx, path, query)
	if err := c.check(resp); err != nil {
		return err
	}
	return resp.Decode(v)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, v any) error {
	resp := c.transport.Post(ctx, path, nil, body)
	if err := c.check(resp); err != nil {
		return err
	}
	if v == nil {
		return nil
	}
	return resp.Decode(v)
}

func appPath(appID int64, suffix string) string {
	return "applications/" + strconv.FormatInt(appID, 10) + suffix
}

// Me returns the user owning the API key.
func (c *Client) Me(ctx context.Context) (*domain.User, error) {
	var user domain.User
	if err := c.getJSON(ctx, "me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ServerSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if err := c.getJSON(ctx, "server_settings", nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// PythonSettings returns the Python installations known to the server.
func (c *Client) PythonSettings(ctx context.Context) (map[string]any, error) {
	var settings map[string]any
	if err := c.getJSON(ctx, "v1/server_settings/python", nil, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

// SearchApps fetches a single page of the applications search.
func (c *Client) SearchApps(ctx context.Context, filters url.Values) (*domain.SearchPage, error) {
	var page domain.SearchPage
	if err := c.getJSON(ctx, "applications", filters, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) CreateApp(ctx context.Context, name string) (*domain.App, error) {
	var app domain.App
	if err := c.postJSON(ctx, "applications", map[string]string{"name": name}, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *Client) GetApp(ctx context.Context, appID int64) (*domain.App, error) {
	var app domain.App
	if err := c.getJSON(ctx, appPath(appID, ""), nil, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdateApp posts a partial update of the app's fields.
func (c *Client) UpdateApp(ctx context.Context, appID int64, fields map[string]any) (*domain.App, error) {
	var app domain.App
	if err := c.postJSON(ctx, appPath(appID, ""), fields, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

// SetEnvironmentVars adds or replaces environment variables on the content.
func (c *Client) SetEnvironmentVars(ctx context.Context, appGUID string, vars []domain.EnvVar) error {
	resp := c.transport.Patch(ctx, "v1/content/"+appGUID+"/environment", vars)
	return c.check(resp)
}

func (c *Client) UploadBundle(ctx context.Context, appID int64, bundle []byte) (*domain.Bundle, error) {
	var b domain.Bundle
	if err := c.postJSON(ctx, appPath(appID, "/upload"), bundle, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeployApp activates a previously uploaded bundle and returns the task
// tracking the deployment.
func (c *Client) DeployApp(ctx context.Context, appID, bundleID int64) (*domain.Task, error) {
	var task domain.Task
	if err := c.postJSON(ctx, appPath(appID, "/deploy"), map[string]int64{"bundle": bundleID}, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) PublishApp(ctx context.Context, appID int64, access string) (*domain.App, error) {
	body := map[string]any{
		"access_type":  access,
		"id":           appID,
		"needs_config": false,
	}
	var app domain.App
	if err := c.postJSON(ctx, appPath(appID, ""), body, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (c *Client) GetAppConfig(ctx context.Context, appID int64) (*domain.AppConfig, error) {
	var cfg domain.AppConfig
	if err := c.getJSON(ctx, appPath(appID, "/config"), nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DownloadBundle returns the raw archive of a content bundle.
func (c *Client) DownloadBundle(ctx context.Context, contentGUID, bundleID string) ([]byte, error) {
	resp := c.transport.Get(ctx, fmt.Sprintf("v1/content/%s/bundles/%s/download", contentGUID, bundleID), nil)
	if err := c.check(resp); err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func (c *Client) SearchContent(ctx context.Context) ([]domain.Content, error) {
	var content []domain.Content
	if err := c.getJSON(ctx, "v1/content", nil, &content); err != nil {
		return nil, err
	}
	return content, nil
}

func (c *Client) GetContent(ctx context.Context, contentGUID string) (*domain.Content, error) {
	var content domain.Content
	if err := c.getJSON(ctx, "v1/content/"+contentGUID, nil, &content); err != nil {
		return nil, err
	}
	return &content, nil
}

// BuildContent asks the server to rebuild content from bundleID, or from
// its active bundle when bundleID is empty.
func (c *Client) BuildContent(ctx context.Context, contentGUID, bundleID string) (*domain.BuildTask, error) {
	body := map[string]any{"bundle_id": nil}
	if bundleID != "" {
		body["bundle_id"] = bundleID
	}
	var task domain.BuildTask
	if err := c.postJSON(ctx, "v1/content/"+contentGUID+"/build", body, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// GetTask returns the task status. When firstStatus is set, only the log
// lines after that cursor are returned.
func (c *Client) GetTask(ctx context.Context, taskID string, firstStatus *int64) (*domain.TaskStatus, error) {
	var query url.Values
	if firstStatus != nil {
		query = url.Values{"first_status": {strconv.FormatInt(*firstStatus, 10)}}
	}
	var status domain.TaskStatus
	if err := c.getJSON(ctx, "tasks/"+taskID, query, &status); err != nil {
		return nil, err
	}
	slog.Debug("Task status received",
		"task_id", taskID,
		"last_status", status.LastStatus,
		"new_lines", len(status.Status),
		"finished", status.Finished)
	return &status, nil
}
