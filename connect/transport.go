package connect

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/oar-cd/connectctl/domain"
)

// DefaultRequestTimeout applies to ordinary API calls.
const DefaultRequestTimeout = 30 * time.Second

// Transport issues requests against the server API. Implementations record
// connection failures in Response.Err instead of returning them.
type Transport interface {
	Get(ctx context.Context, path string, query url.Values) *Response
	Post(ctx context.Context, path string, query url.Values, body any) *Response
	Patch(ctx context.Context, path string, body any) *Response
}

// HTTPTransport talks to the /__api__ root of a Connect server over HTTP.
type HTTPTransport struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

var _ Transport = (*HTTPTransport)(nil)

// NewHTTPTransport builds a transport for server. The server's cookie jar is
// shared by every request so session cookies survive between calls.
func NewHTTPTransport(server *domain.Server, timeout time.Duration) (*HTTPTransport, error) {
	if server == nil {
		return nil, fmt.Errorf("server is required")
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	tlsConfig := &tls.Config{InsecureSkipVerify: server.Insecure} // #nosec G402 -- opt-in via --insecure
	if server.CAData != "" {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM([]byte(server.CAData)) {
			return nil, fmt.Errorf("no certificates found in CA data")
		}
		tlsConfig.RootCAs = pool
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig

	return &HTTPTransport{
		baseURL: strings.TrimRight(server.URL, "/") + "/__api__/",
		apiKey:  server.APIKey,
		httpClient: &http.Client{
			Timeout:   timeout,
			Jar:       server.Jar,
			Transport: transport,
		},
	}, nil
}

func (t *HTTPTransport) Get(ctx context.Context, path string, query url.Values) *Response {
	return t.do(ctx, http.MethodGet, path, query, nil)
}

func (t *HTTPTransport) Post(ctx context.Context, path string, query url.Values, body any) *Response {
	return t.do(ctx, http.MethodPost, path, query, body)
}

func (t *HTTPTransport) Patch(ctx context.Context, path string, body any) *Response {
	return t.do(ctx, http.MethodPatch, path, nil, body)
}

func (t *HTTPTransport) do(ctx context.Context, method, path string, query url.Values, body any) *Response {
	endpoint := t.baseURL + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	contentType := ""
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
		contentType = "application/octet-stream"
	default:
		payload, err := json.Marshal(b)
		if err != nil {
			return &Response{Err: fmt.Errorf("encode request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return &Response{Err: fmt.Errorf("create request: %w", err)}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Key "+t.apiKey)
	}

	slog.Debug("Sending request", "method", method, "path", path)

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return &Response{Err: err}
	}
	defer resp.Body.Close() // nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Response{StatusCode: resp.StatusCode, Reason: reason(resp), Err: fmt.Errorf("read response: %w", err)}
	}

	slog.Debug("Received response", "method", method, "path", path, "status", resp.StatusCode)

	return &Response{
		StatusCode: resp.StatusCode,
		Reason:     reason(resp),
		Body:       data,
	}
}

func reason(resp *http.Response) string {
	r := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	r = strings.TrimSpace(r)
	if r == "" {
		r = http.StatusText(resp.StatusCode)
	}
	return r
}
