// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/oar-cd/connectctl/connect"
	"github.com/oar-cd/connectctl/domain"
)

// Call is one request seen by MockTransport.
type Call struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
}

// MockTransport implements connect.Transport for testing. Unset funcs answer
// 404 Not Found.
type MockTransport struct {
	GetFunc   func(ctx context.Context, path string, query url.Values) *connect.Response
	PostFunc  func(ctx context.Context, path string, query url.Values, body any) *connect.Response
	PatchFunc func(ctx context.Context, path string, body any) *connect.Response

	mu    sync.Mutex
	calls []Call
}

var _ connect.Transport = (*MockTransport)(nil)

func (m *MockTransport) record(method, path string, query url.Values, body any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, Call{Method: method, Path: path, Query: query, Body: body})
}

func (m *MockTransport) Get(ctx context.Context, path string, query url.Values) *connect.Response {
	m.record(http.MethodGet, path, query, nil)
	if m.GetFunc != nil {
		return m.GetFunc(ctx, path, query)
	}
	return NotFound()
}

func (m *MockTransport) Post(ctx context.Context, path string, query url.Values, body any) *connect.Response {
	m.record(http.MethodPost, path, query, body)
	if m.PostFunc != nil {
		return m.PostFunc(ctx, path, query, body)
	}
	return NotFound()
}

func (m *MockTransport) Patch(ctx context.Context, path string, body any) *connect.Response {
	m.record(http.MethodPatch, path, nil, body)
	if m.PatchFunc != nil {
		return m.PatchFunc(ctx, path, body)
	}
	return NotFound()
}

// Calls returns every request made so far, in order.
func (m *MockTransport) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// CallsTo returns the requests made with method to path.
func (m *MockTransport) CallsTo(method, path string) []Call {
	var matched []Call
	for _, c := range m.Calls() {
		if c.Method == method && c.Path == path {
			matched = append(matched, c)
		}
	}
	return matched
}

// JSONResponse builds a response whose body is v encoded as JSON.
func JSONResponse(status int, v any) *connect.Response {
	body, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return &connect.Response{StatusCode: status, Reason: http.StatusText(status), Body: body}
}

// OK is a 200 response carrying v.
func OK(v any) *connect.Response {
	return JSONResponse(http.StatusOK, v)
}

func NotFound() *connect.Response {
	return JSONResponse(http.StatusNotFound, map[string]any{"error": "Not Found", "code": 4})
}

// TransportError is a response for a request that never reached the server.
func TransportError(err error) *connect.Response {
	return &connect.Response{Err: err}
}

// Dialer returns a dial function that opens every client on transport.
func Dialer(transport connect.Transport) func(*domain.Server, time.Duration) (*connect.Client, error) {
	return func(server *domain.Server, _ time.Duration) (*connect.Client, error) {
		return connect.NewClient(server, transport), nil
	}
}
