package connect

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/oar-cd/connectctl/domain"
)

// invalidAPIKeyCode is the server's error code for an unknown API key.
const invalidAPIKeyCode = 30

// Dial returns a Client that talks to server over HTTP.
func Dial(server *domain.Server, timeout time.Duration) (*Client, error) {
	transport, err := NewHTTPTransport(server, timeout)
	if err != nil {
		return nil, err
	}
	return NewClient(server, transport), nil
}

// VerifyServer checks that the server is reachable and really is a Connect
// server, returning its settings.
func VerifyServer(ctx context.Context, client *Client) (map[string]any, error) {
	settings, err := client.ServerSettings(ctx)
	if err != nil {
		if isTLSError(err) {
			return nil, NewError(ErrTransportFailure, err, "there is an SSL/TLS configuration problem: %v", err)
		}
		return nil, err
	}
	return settings, nil
}

func isTLSError(err error) bool {
	var (
		verifyErr    *tls.CertificateVerificationError
		recordErr    tls.RecordHeaderError
		authorityErr x509.UnknownAuthorityError
		hostErr      x509.HostnameError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &authorityErr) ||
		errors.As(err, &hostErr)
}

// VerifyAPIKey checks that the client's API key is accepted and returns the
// name of the user it belongs to.
func VerifyAPIKey(ctx context.Context, client *Client) (string, error) {
	resp := client.transport.Get(ctx, "me", nil)
	if resp.Err != nil {
		return "", client.check(resp)
	}
	if resp.StatusCode != http.StatusOK {
		var payload struct {
			Code *int `json:"code"`
		}
		if json.Unmarshal(resp.Body, &payload) == nil && payload.Code != nil && *payload.Code == invalidAPIKeyCode {
			return "", NewError(ErrServerReported, nil, "the specified API key is not valid")
		}
		return "", &Error{
			Kind:    ErrUnexpectedStatus,
			Message: fmt.Sprintf("could not verify the API key: %d %s", resp.StatusCode, resp.Reason),
			Status:  resp.StatusCode,
			Reason:  resp.Reason,
		}
	}

	var user domain.User
	if err := resp.Decode(&user); err != nil {
		return "", err
	}
	return user.Username, nil
}

// DeployBundle uploads and deploys a bundle with the longer deploy timeout.
func DeployBundle(ctx context.Context, server *domain.Server, req DeployRequest) (*domain.DeploymentResult, error) {
	client, err := Dial(server, DeployTimeout)
	if err != nil {
		return nil, err
	}
	return client.Deploy(ctx, req)
}
