package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
	"github.com/oar-cd/connectctl/repository"
)

// ServerSelection is how the user identified the target server: by the
// name of a stored alias or by URL with connection details.
type ServerSelection struct {
	Name     string
	URL      string
	APIKey   string
	Insecure bool
	// CACert is PEM-encoded CA data.
	CACert string

	APIKeyRequired bool
}

type resolved struct {
	url       string
	apiKey    string
	insecure  bool
	caData    string
	fromStore bool
}

// resolve looks the selection up in the server store. A URL that is not
// stored is used with the connection details given on the command line.
// With neither name nor URL, a single stored server is used by default.
func (e *Executor) resolve(sel ServerSelection) (resolved, error) {
	var (
		alias *domain.ServerAlias
		err   error
	)

	switch {
	case sel.Name != "":
		alias, err = e.servers.FindByName(sel.Name)
		if errors.Is(err, repository.ErrNotFound) {
			return resolved{}, connect.NewError(connect.ErrAmbiguousServerSelection, err,
				"the nickname %q does not exist", sel.Name)
		}
	case sel.URL != "":
		alias, err = e.servers.FindByURL(sel.URL)
		if errors.Is(err, repository.ErrNotFound) {
			alias, err = nil, nil
		}
	default:
		var all []*domain.ServerAlias
		all, err = e.servers.List()
		if len(all) == 1 {
			alias = all[0]
		}
	}
	if err != nil {
		return resolved{}, err
	}

	if alias != nil {
		return resolved{
			url:       alias.URL,
			apiKey:    alias.APIKey,
			insecure:  alias.Insecure,
			caData:    alias.CAData,
			fromStore: true,
		}, nil
	}
	return resolved{
		url:      sel.URL,
		apiKey:   sel.APIKey,
		insecure: sel.Insecure,
		caData:   sel.CACert,
	}, nil
}

// ValidateServer turns a selection into a server connection. Details that
// did not come from the store are checked against the server first.
func (e *Executor) ValidateServer(ctx context.Context, sel ServerSelection) (*domain.Server, error) {
	if sel.Name != "" && sel.URL != "" {
		return nil, connect.NewError(connect.ErrAmbiguousServerSelection, nil,
			"you must specify only one of -n/--name or -s/--server, not both")
	}

	r, err := e.resolve(sel)
	if err != nil {
		return nil, err
	}
	if r.url == "" {
		return nil, connect.NewError(connect.ErrAmbiguousServerSelection, nil,
			"you must specify one of -n/--name or -s/--server")
	}

	server, err := domain.NewServer(r.url, "", r.insecure, r.caData)
	if err != nil {
		return nil, err
	}

	if !r.fromStore {
		client, err := e.Client(server)
		if err != nil {
			return nil, err
		}
		if _, err := connect.VerifyServer(ctx, client); err != nil {
			return nil, err
		}
	}

	server.APIKey = r.apiKey
	if server.APIKey == "" {
		if sel.APIKeyRequired {
			return nil, fmt.Errorf("an API key must be specified for %q", server.URL)
		}
		return server, nil
	}

	if !r.fromStore {
		client, err := e.Client(server)
		if err != nil {
			return nil, err
		}
		username, err := connect.VerifyAPIKey(ctx, client)
		if err != nil {
			return nil, err
		}
		slog.Debug("API key verified", "server_url", server.URL, "username", username)
	}

	return server, nil
}

// ValidateAppMode makes sure a redeploy keeps the app's mode. Without an
// app ID, the app of the last deployment of dc.Path is reused.
func (e *Executor) ValidateAppMode(ctx context.Context, dc *DeployContext, defaultMode domain.AppMode) error {
	if dc.New && dc.AppID != 0 {
		return errors.New("specify either a new deploy or an app ID but not both")
	}

	mode := dc.AppMode
	if mode == domain.AppModeUnknown {
		mode = defaultMode
	}

	if !dc.New {
		existing := domain.AppModeUnknown

		if dc.AppID == 0 {
			record, err := e.apps.FindLatest(dc.Server.URL, dc.Path)
			switch {
			case err == nil:
				dc.AppID = record.AppID
				existing = record.AppMode
				slog.Debug("Using app from previous deployment",
					"app_id", record.AppID,
					"app_mode", record.AppMode.Name(),
					"path", dc.Path)
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}
		} else {
			client, err := e.Client(dc.Server)
			if err != nil {
				return err
			}
			app, err := client.GetApp(ctx, dc.AppID)
			if err != nil {
				return err
			}
			existing = app.Mode()
		}

		if existing != domain.AppModeUnknown && existing != mode {
			return connect.NewError(connect.ErrModeConflict, nil,
				"deploying with mode '%s', but the existing deployment has mode '%s'; "+
					"use the --new option to create a new deployment of the desired type",
				mode.Description(), existing.Description())
		}
	}

	dc.AppMode = mode
	return nil
}

// VerifyConnection checks that server answers as a Connect server and, when
// it carries an API key, that the key is accepted. It returns the user the
// key belongs to.
func (e *Executor) VerifyConnection(ctx context.Context, server *domain.Server) (string, error) {
	client, err := e.Client(server)
	if err != nil {
		return "", err
	}
	if _, err := connect.VerifyServer(ctx, client); err != nil {
		return "", err
	}
	if server.APIKey == "" {
		return "", nil
	}
	return connect.VerifyAPIKey(ctx, client)
}
